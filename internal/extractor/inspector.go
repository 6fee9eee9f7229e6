package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/sirupsen/logrus"

	"docfit-go/internal/container"
	"docfit-go/internal/domain"
	"docfit-go/internal/logger"
)

// Inspector probes a file and runs every applicable extractor over it.
type Inspector struct {
	extractors []MetadataExtractor
	logger     logrus.FieldLogger
}

// NewInspector returns an Inspector. Extractors run from highest priority to
// lowest; earlier ones win on fields both provide.
func NewInspector(log logrus.FieldLogger, extractors ...MetadataExtractor) *Inspector {
	ordered := slices.Clone(extractors)
	byPriority(ordered)
	return &Inspector{extractors: ordered, logger: logger.OrDiscard(log)}
}

// CacheStats sums the cache counters of every caching extractor.
func (i *Inspector) CacheStats() CacheStats {
	var total CacheStats
	for _, x := range i.extractors {
		cached, ok := x.(CachedMetadataExtractor)
		if !ok {
			continue
		}
		st := cached.GetCacheStats()
		total.Hits += st.Hits
		total.Misses += st.Misses
		total.Size += st.Size
		total.TotalQueries += st.TotalQueries
	}
	if total.TotalQueries > 0 {
		total.HitRate = float64(total.Hits) / float64(total.TotalQueries)
	}
	return total
}

// Inspect reads filePath and describes it. Extractor failures are logged and
// skipped; only an unreadable or unidentifiable file is an error.
func (i *Inspector) Inspect(filePath string) (*Metadata, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	c := domain.NewCandidate(data, domain.DetectFormat(data))
	if c.Format() == domain.FormatUnknown {
		c = domain.NewCandidate(data, domain.ParseFormat(filepath.Ext(filePath)))
	}
	if c.Format() == domain.FormatUnknown {
		return nil, domain.Errorf(domain.KindUnsupportedFormat, "inspect", "cannot identify %s", filePath)
	}

	md := &Metadata{Path: filePath, Format: c.Format(), Size: c.Size(), Sources: []string{"probe"}}
	probe := c
	if c.Format().IsContainer() {
		if inner, err := container.Unwrap(c); err == nil {
			probe = inner
			md.Embedded = inner.Format()
		}
	}
	if probe.Format().IsRaster() {
		dims, err := probe.Dimensions()
		if err != nil {
			return nil, err
		}
		md.Dimensions = dims
	}

	for _, x := range i.extractors {
		if !x.SupportsFormat(c.Format()) {
			continue
		}
		if err := x.Extract(filePath, md); err != nil {
			logger.WithFile(i.logger, filePath).WithError(err).Debug("Metadata extractor failed")
		}
	}

	if md.Date == nil {
		if info, err := os.Stat(filePath); err == nil {
			md.Date = &ExtractedDate{Date: info.ModTime(), Source: DateSourceFileModTime}
		}
	}
	return md, nil
}
