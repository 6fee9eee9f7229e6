package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"docfit-go/internal/codec"
	"docfit-go/internal/domain"
	"docfit-go/internal/logger"
	"docfit-go/internal/transform"
)

func newTransformCmd() *cobra.Command {
	var (
		reqFlags requirementFlags
		output   string
		declared string
	)

	cmd := &cobra.Command{
		Use:   "transform <file>",
		Short: "Fit one file to a requirement",
		Long: `Transforms a single file so that it meets the requirement given by flags or
a --requirement JSON file. The output is written next to the input with a
_fit suffix unless --output is given.`,
		Example: `  docfit transform scan.png --format jpeg --max-size 200KB --category photo
  docfit transform id.jpg --format pdf --max-size 1MiB --category identity_document`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := reqFlags.build()
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := setupLogger(cfg)

			input := args[0]
			data, err := os.ReadFile(input)
			if err != nil {
				return err
			}
			format := domain.ParseFormat(declared)
			if declared == "" {
				format = domain.ParseFormat(filepath.Ext(input))
			}

			ctx, stop := signalContext()
			defer stop()

			engine := transform.New(codec.DefaultRegistry(), log)
			res, err := engine.Transform(ctx, data, format, req, cfg.Snapshot())

			if output == "" {
				output = defaultOutput(input, req.AcceptedFormat)
			}
			rep := newReport(input, output, int64(len(data)), res, err)
			if err == nil {
				if werr := os.WriteFile(output, res.FinalBytes, 0644); werr != nil {
					return werr
				}
				logger.WithFile(log, output).Info("Wrote output")
			}

			if jsonOut {
				if jerr := writeJSON(cmd.OutOrStdout(), rep); jerr != nil {
					return jerr
				}
			} else if !quiet || err != nil {
				writeText(cmd.OutOrStdout(), rep)
			}
			return err
		},
	}

	reqFlags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path")
	cmd.Flags().StringVar(&declared, "declared-format", "", "format of the input (default: from extension, then content)")
	return cmd
}

// defaultOutput places the result next to input with a _fit suffix.
func defaultOutput(input string, f domain.Format) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return fmt.Sprintf("%s_fit%s", base, f.Extension())
}
