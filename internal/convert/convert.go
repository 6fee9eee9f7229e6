// Package convert moves candidates between formats.
package convert

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"docfit-go/internal/codec"
	"docfit-go/internal/container"
	"docfit-go/internal/domain"
	"docfit-go/internal/logger"
)

// DefaultQuality is the baseline encoder quality for a format change.
const DefaultQuality = 0.90

// Converter re-encodes rasters and wraps them into containers.
type Converter struct {
	codecs    *codec.Registry
	assembler *container.Assembler
	quality   float64
	timeout   time.Duration
	log       logrus.FieldLogger
}

// New returns a Converter. A quality outside (0, 1] selects DefaultQuality.
// timeout bounds the re-encode like a single search attempt.
func New(codecs *codec.Registry, assembler *container.Assembler, quality float64, timeout time.Duration, log logrus.FieldLogger) *Converter {
	if quality <= 0 || quality > 1 {
		quality = DefaultQuality
	}
	return &Converter{codecs: codecs, assembler: assembler, quality: quality, timeout: timeout, log: logger.OrDiscard(log)}
}

// Quality returns the baseline quality used for conversions.
func (c *Converter) Quality() float64 {
	return c.quality
}

// Convert returns c in the target format. A raster becomes another raster by
// a decode and a re-encode at the baseline quality, or a container through
// the assembler on the given page. Containers cannot become rasters.
func (c *Converter) Convert(ctx context.Context, in *domain.Candidate, target domain.Format, page container.PageSize) (*domain.Candidate, error) {
	if in.Format() == target {
		return in, nil
	}
	if !in.Format().IsRaster() {
		return nil, domain.Errorf(domain.KindUnsupportedFormat, "convert", "no conversion from %s to %s", in.Format(), target)
	}

	entry := c.log.WithFields(logrus.Fields{
		"operation": "convert",
		"from":      in.Format(),
		"to":        target,
	})

	switch {
	case target.IsRaster():
		src, err := c.codecs.Lookup(in.Format())
		if err != nil {
			return nil, err
		}
		dst, err := c.codecs.Lookup(target)
		if err != nil {
			return nil, err
		}
		data, err := codec.Run(ctx, c.timeout, func() ([]byte, error) {
			return codec.Transcode(src, dst, in.Bytes(), c.quality, nil)
		})
		if err != nil {
			return nil, err
		}
		entry.WithField("size", len(data)).Info("Converted raster")
		return domain.NewCandidate(data, target), nil

	case target.IsContainer():
		if c.assembler == nil {
			return nil, domain.Errorf(domain.KindUnsupportedFormat, "convert", "no assembler for %s", target)
		}
		res, err := c.assembler.Assemble(ctx, in, page, domain.Requirement{AcceptedFormat: target}, c.baseline())
		if err != nil {
			return nil, err
		}
		entry.WithField("size", res.FinalSize).Info("Wrapped raster into container")
		return domain.NewCandidate(res.FinalBytes, target), nil

	default:
		return nil, domain.Errorf(domain.KindUnsupportedFormat, "convert", "unknown target format %s", target)
	}
}

// baseline is a single-attempt search at the conversion quality. Without size
// bounds its first attempt is always accepted.
func (c *Converter) baseline() domain.Strategy {
	return domain.Strategy{
		Name:           "convert",
		InitialQuality: c.quality,
		QualityFloor:   c.quality,
		MaxAttempts:    1,
	}
}
