package compressor

import (
	"context"
	"image"

	"github.com/sirupsen/logrus"

	"docfit-go/internal/codec"
	"docfit-go/internal/domain"
	"docfit-go/internal/logger"
	"docfit-go/internal/scaler"
)

// ProgressiveCompressor is the default implementation of the Compressor
// interface. It holds no per-call state and is safe for concurrent use.
type ProgressiveCompressor struct {
	codecs *codec.Registry
	scaler *scaler.Scaler
	opts   Options
	log    logrus.FieldLogger
}

// New returns a ProgressiveCompressor. A nil logger discards output.
func New(codecs *codec.Registry, sc *scaler.Scaler, opts Options, log logrus.FieldLogger) *ProgressiveCompressor {
	if sc == nil {
		sc = scaler.New(scaler.DefaultMaxUpscale)
	}
	return &ProgressiveCompressor{codecs: codecs, scaler: sc, opts: opts, log: logger.OrDiscard(log)}
}

// Options returns the options the compressor was built with.
func (p *ProgressiveCompressor) Options() Options {
	return p.opts
}

// Compress runs the search with its last-resort pass over c and settles the
// outcome.
func (p *ProgressiveCompressor) Compress(ctx context.Context, c *domain.Candidate, req domain.Requirement, st domain.Strategy) (*domain.Result, error) {
	render, err := p.RasterRenderer(c, req.AcceptedFormat)
	if err != nil {
		return nil, err
	}
	bounds := req.Bounds()

	p.log.WithFields(logrus.Fields{
		"operation": "compress",
		"strategy":  st.Name,
		"size":      c.Size(),
		"bounds":    bounds.String(),
	}).Info("Starting progressive compression")

	out, err := p.Fit(ctx, render, bounds, st)
	if err != nil {
		return nil, err
	}
	return p.Settle(out, bounds, st.Name, req.AcceptedFormat)
}

// RasterRenderer returns a Renderer that decodes c, shrinks it by the scale
// factor and encodes it as target. Each call decodes afresh so that at most
// one pixel buffer is live per attempt.
func (p *ProgressiveCompressor) RasterRenderer(c *domain.Candidate, target domain.Format) (Renderer, error) {
	if !c.Format().IsRaster() {
		return nil, domain.Errorf(domain.KindUnsupportedFormat, "compress", "%s is not a raster format", c.Format())
	}
	src, err := p.codecs.Lookup(c.Format())
	if err != nil {
		return nil, err
	}
	dst, err := p.codecs.Lookup(target)
	if err != nil {
		return nil, err
	}
	data := c.Bytes()
	return func(scale, quality float64) ([]byte, error) {
		return codec.Transcode(src, dst, data, quality, p.Shrink(scale))
	}, nil
}

// Shrink returns a transform that scales images down by scale, or nil at full size.
func (p *ProgressiveCompressor) Shrink(scale float64) codec.Transform {
	if scale >= 1 {
		return nil
	}
	return func(img image.Image) (image.Image, error) {
		return p.scaler.ScaleBy(img, scale), nil
	}
}

var _ Compressor = (*ProgressiveCompressor)(nil)
