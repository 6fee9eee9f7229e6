package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"docfit-go/internal/config"
	"docfit-go/internal/logger"
)

var (
	cfgFile   string
	verbose   bool
	quiet     bool
	jsonOut   bool
	version   = "dev"
	buildTime = "unknown"
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "docfit",
	Short: "Fit document scans to upload requirements",
	Long: `docfit transforms images and scanned documents so that they meet an upload
requirement: accepted format, size window, pixel dimensions and quality
priority. Files that already comply are returned untouched; otherwise the
file is converted, resized and re-encoded with the least quality loss that
still fits.

Features:
- JPEG, PNG, GIF, TIFF, BMP output and WebP input
- Single-page PDF wrapping with size-bounded embedded images
- Progressive quality and scale search with a bounded attempt budget
- Per-category quality floors for photos, signatures and ID documents
- Batch mode with a worker pool and statistics`,
	Version:       fmt.Sprintf("%s (built %s)", version, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./docfit.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print reports as JSON")

	rootCmd.AddCommand(newTransformCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newInspectCmd())
}

// loadConfig loads configuration from --config, the search path and DOCFIT_* variables.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// setupLogger configures and returns a logger.
func setupLogger(cfg *config.Config) *logrus.Logger {
	loggerCfg := logger.LoggerConfig{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
		Console:    cfg.Logging.Console || verbose,
	}

	if verbose {
		loggerCfg.Level = "debug"
	}
	if quiet {
		loggerCfg.Level = "error"
	}

	log, err := logger.NewLogger(loggerCfg)
	if err != nil {
		log = logrus.New()
		log.SetOutput(os.Stderr)
		log.Warnf("Falling back to stderr logging: %v", err)
	}
	return log
}

// signalContext is cancelled on SIGINT or SIGTERM so that a running search
// stops between attempts.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
