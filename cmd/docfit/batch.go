package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docfit-go/internal/batch"
	"docfit-go/internal/codec"
	"docfit-go/internal/statistics"
	"docfit-go/internal/transform"
)

func newBatchCmd() *cobra.Command {
	var (
		reqFlags  requirementFlags
		outputDir string
		workers   int
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "batch <path>...",
		Short: "Fit every supported file under the given paths",
		Long: `Walks the given files and directories and transforms each supported file
against the same requirement, using a pool of workers. Transforms are
independent; a failure on one file does not stop the others.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := reqFlags.build()
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if outputDir != "" {
				cfg.Batch.OutputDirectory = outputDir
			}
			if workers > 0 {
				cfg.Batch.WorkerThreads = workers
			}
			if dryRun {
				cfg.Batch.DryRun = true
			}

			log := setupLogger(cfg)
			stats := statistics.NewStatistics()
			runner := batch.NewRunner(cfg, log, stats, transform.New(codec.DefaultRegistry(), log), req)

			ctx, stop := signalContext()
			defer stop()

			outcomes, err := runner.Run(ctx, args)
			if err != nil && len(outcomes) == 0 {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				reports := make([]report, len(outcomes))
				for i, o := range outcomes {
					reports[i] = newReport(o.File.Path, o.OutputPath, o.File.Size, o.Result, o.Err)
				}
				if jerr := writeJSON(out, reports); jerr != nil {
					return jerr
				}
			} else if !quiet {
				for _, o := range outcomes {
					writeText(out, newReport(o.File.Path, o.OutputPath, o.File.Size, o.Result, o.Err))
				}
				fmt.Fprintln(out, "\n"+stats.GetSummary())
				fmt.Fprintln(out, "\n"+stats.GetStrategyBreakdown())
				fmt.Fprintln(out, stats.GetErrorSummary())
			}

			if err != nil {
				return err
			}
			if n := stats.GetFilesWithErrors(); n > 0 {
				return fmt.Errorf("%d of %d files failed", n, stats.GetTotalFilesProcessed())
			}
			return nil
		},
	}

	reqFlags.register(cmd)
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "write outputs here instead of next to the inputs")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of concurrent transforms (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "transform in memory without writing outputs")
	return cmd
}
