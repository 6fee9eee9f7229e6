package container

import (
	"context"

	"github.com/sirupsen/logrus"

	"docfit-go/internal/codec"
	"docfit-go/internal/compressor"
	"docfit-go/internal/domain"
	"docfit-go/internal/logger"
)

// Assembler wraps rasters into single-page PDFs whose total size meets a
// requirement. The embedded JPEG is searched with the same driver as plain
// rasters, measured on the assembled document.
type Assembler struct {
	search *compressor.ProgressiveCompressor
	codecs *codec.Registry
	margin float64
	log    logrus.FieldLogger
}

// NewAssembler returns an Assembler that uses search to drive the encode loop.
func NewAssembler(search *compressor.ProgressiveCompressor, codecs *codec.Registry, margin float64, log logrus.FieldLogger) *Assembler {
	if margin < 0 {
		margin = DefaultMargin
	}
	return &Assembler{search: search, codecs: codecs, margin: margin, log: logger.OrDiscard(log)}
}

// Renderer returns a compressor.Renderer that shrinks raster, encodes it as
// JPEG and builds the PDF. The layout is fixed by the original size so that
// scaling only lowers the embedded resolution.
func (a *Assembler) Renderer(raster *domain.Candidate, page PageSize) (compressor.Renderer, Layout, error) {
	if !raster.Format().IsRaster() {
		return nil, Layout{}, domain.Errorf(domain.KindUnsupportedFormat, "assemble", "%s cannot be embedded", raster.Format())
	}
	dims, err := raster.Dimensions()
	if err != nil {
		return nil, Layout{}, err
	}
	src, err := a.codecs.Lookup(raster.Format())
	if err != nil {
		return nil, Layout{}, err
	}
	enc, err := a.codecs.Lookup(domain.FormatJPEG)
	if err != nil {
		return nil, Layout{}, err
	}

	layout := ComputeLayout(dims, page, a.margin)
	data := raster.Bytes()
	render := func(scale, quality float64) ([]byte, error) {
		jpg, err := codec.Transcode(src, enc, data, quality, a.search.Shrink(scale))
		if err != nil {
			return nil, err
		}
		return Build(jpg, layout)
	}
	return render, layout, nil
}

// Assemble searches for the highest-quality PDF of raster on page whose size
// fits req. Errors carry the attempts log like the raster search.
func (a *Assembler) Assemble(ctx context.Context, raster *domain.Candidate, page PageSize, req domain.Requirement, st domain.Strategy) (*domain.Result, error) {
	out, err := a.Search(ctx, raster, page, req, st)
	if err != nil {
		return nil, err
	}
	return a.search.Settle(out, req.Bounds(), st.Name, domain.FormatPDF)
}

// Search runs the bounded search over assembled documents without settling.
func (a *Assembler) Search(ctx context.Context, raster *domain.Candidate, page PageSize, req domain.Requirement, st domain.Strategy) (compressor.Outcome, error) {
	render, layout, err := a.Renderer(raster, page)
	if err != nil {
		return compressor.Outcome{}, err
	}
	a.log.WithFields(logrus.Fields{
		"operation": "assemble",
		"page":      layout.Page.Name,
		"strategy":  st.Name,
		"bounds":    req.Bounds().String(),
	}).Info("Assembling container")
	return a.search.Fit(ctx, render, req.Bounds(), st)
}

// Unwrap returns the largest embedded JPEG of a PDF candidate.
func Unwrap(c *domain.Candidate) (*domain.Candidate, error) {
	if c.Format() != domain.FormatPDF {
		return nil, domain.Errorf(domain.KindUnsupportedFormat, "extract", "%s is not a container", c.Format())
	}
	jpg, err := Extract(c.Bytes())
	if err != nil {
		return nil, err
	}
	return domain.NewCandidate(jpg, domain.FormatJPEG), nil
}
