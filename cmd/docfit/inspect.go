package main

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"docfit-go/internal/extractor"
)

func newInspectCmd() *cobra.Command {
	var useExiftool bool

	cmd := &cobra.Command{
		Use:   "inspect <file>...",
		Short: "Show format, size, dimensions and metadata of files",
		Long: `Probes each file the way the transform pipeline sees it (detected format,
byte size, displayed dimensions, embedded image for PDFs) and adds EXIF
metadata. With --exiftool, fields from an installed exiftool are included.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := setupLogger(cfg)

			extractors := []extractor.MetadataExtractor{extractor.NewEXIFExtractor(log)}
			if useExiftool {
				et, err := extractor.NewExiftoolExtractor(log)
				if err != nil {
					log.WithError(err).Warn("exiftool unavailable, continuing without it")
				} else {
					defer et.Close()
					extractors = append(extractors, et)
				}
			}
			inspector := extractor.NewInspector(log, extractors...)

			var all []*extractor.Metadata
			for _, path := range args {
				md, err := inspector.Inspect(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				all = append(all, md)
			}

			stats := inspector.CacheStats()
			log.WithFields(logrus.Fields{
				"hits":     stats.Hits,
				"misses":   stats.Misses,
				"hit_rate": stats.HitRate,
			}).Debug("Metadata cache")

			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, all)
			}
			for _, md := range all {
				fmt.Fprintf(out, "%s\n  format: %s\n  size: %s\n", md.Path, md.Format, humanize.IBytes(uint64(md.Size)))
				if !md.Dimensions.IsZero() {
					fmt.Fprintf(out, "  dimensions: %s\n", md.Dimensions)
				}
				if md.Embedded != 0 {
					fmt.Fprintf(out, "  embedded: %s\n", md.Embedded)
				}
				if md.Orientation > 0 {
					fmt.Fprintf(out, "  orientation: %d\n", md.Orientation)
				}
				if md.Camera != "" {
					fmt.Fprintf(out, "  camera: %s\n", md.Camera)
				}
				if md.Date != nil {
					fmt.Fprintf(out, "  date: %s (%s)\n", md.Date.Date.Format("2006-01-02 15:04:05"), md.Date.Source)
				}
				keys := make([]string, 0, len(md.Fields))
				for k := range md.Fields {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(out, "  %s: %s\n", k, md.Fields[k])
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&useExiftool, "exiftool", false, "also read metadata with exiftool if installed")
	return cmd
}
