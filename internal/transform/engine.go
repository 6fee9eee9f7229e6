// Package transform sequences the pipeline that brings a file into line with
// a requirement: compliance check, format conversion, dimension fitting,
// size search and final validation.
package transform

import (
	"bytes"
	"context"
	"errors"
	"image"
	"time"

	"github.com/sirupsen/logrus"

	"docfit-go/internal/codec"
	"docfit-go/internal/compliance"
	"docfit-go/internal/compressor"
	"docfit-go/internal/container"
	"docfit-go/internal/convert"
	"docfit-go/internal/domain"
	"docfit-go/internal/logger"
	"docfit-go/internal/scaler"
	"docfit-go/internal/strategy"
)

// Strategy names reported for results produced before the size search.
const (
	StrategyNone    = "none"
	StrategyConvert = "convert"
	StrategyResize  = "resize"
)

// Engine runs transforms. It holds no per-call state, so one Engine serves
// any number of concurrent Transform calls.
type Engine struct {
	codecs *codec.Registry
	log    logrus.FieldLogger
}

// New returns an Engine over the given codecs. Nil arguments select the
// default registry and a discarding logger.
func New(codecs *codec.Registry, log logrus.FieldLogger) *Engine {
	if codecs == nil {
		codecs = codec.DefaultRegistry()
	}
	return &Engine{codecs: codecs, log: logger.OrDiscard(log)}
}

// pipeline is the set of components built from one Options snapshot.
type pipeline struct {
	codecs     *codec.Registry
	opts       Options
	page       container.PageSize
	scaler     *scaler.Scaler
	selector   *strategy.Selector
	compressor *compressor.ProgressiveCompressor
	assembler  *container.Assembler
	converter  *convert.Converter
	log        logrus.FieldLogger
}

func (e *Engine) pipeline(opts Options, req domain.Requirement) *pipeline {
	log := e.log.WithFields(logrus.Fields{
		"category": req.Category,
		"format":   req.AcceptedFormat,
	})
	sc := scaler.New(opts.MaxUpscale)
	comp := compressor.New(e.codecs, sc, opts.compressorOptions(), log)
	asm := container.NewAssembler(comp, e.codecs, opts.PageMargin, log)
	return &pipeline{
		codecs:     e.codecs,
		opts:       opts,
		page:       opts.pageFor(req.Category),
		scaler:     sc,
		selector:   strategy.NewSelector(opts.Presets, opts.MinScale),
		compressor: comp,
		assembler:  asm,
		converter:  convert.New(e.codecs, asm, opts.ConvertQuality, opts.AttemptTimeout, log),
		log:        log,
	}
}

// Transform brings data, declared as format, into line with req. Each stage
// runs only when the previous output still violates the requirement, so a
// compliant input comes back byte-identical with an empty attempts log.
//
// opts is used read-only for the duration of the call.
func (e *Engine) Transform(ctx context.Context, data []byte, format domain.Format, req domain.Requirement, opts Options) (*domain.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	in, err := ingest(data, format)
	if err != nil {
		return nil, err
	}

	p := e.pipeline(opts, req)
	start := time.Now()
	defer func() {
		p.log.WithField("duration", time.Since(start)).Debug("Transform finished")
	}()

	if compliance.IsCompliant(in, req) {
		p.log.WithField("size", in.Size()).Info("Input already compliant")
		return p.finish(in, StrategyNone)
	}
	if req.AcceptedFormat.IsRaster() && !e.codecs.CanEncode(req.AcceptedFormat) {
		return nil, domain.Errorf(domain.KindUnsupportedFormat, "transform", "%s output is not supported", req.AcceptedFormat)
	}

	cur := in
	if cur.Format() != req.AcceptedFormat {
		if err := ctx.Err(); err != nil {
			return nil, canceled(err)
		}
		p.log.WithFields(logrus.Fields{"stage": "convert", "from": cur.Format()}).Info("Converting format")
		if cur, err = p.converter.Convert(ctx, cur, req.AcceptedFormat, p.page); err != nil {
			return nil, err
		}
		if compliance.IsCompliant(cur, req) {
			return p.finish(cur, StrategyConvert)
		}
	}

	if report := compliance.Check(cur, req); report.Has(domain.ConstraintDimension) {
		if err := ctx.Err(); err != nil {
			return nil, canceled(err)
		}
		p.log.WithFields(logrus.Fields{"stage": "resize", "target": req.TargetDimensions.String()}).Info("Fitting dimensions")
		if cur, err = p.resize(ctx, cur, req); err != nil {
			return nil, err
		}
		if compliance.IsCompliant(cur, req) {
			return p.finish(cur, StrategyResize)
		}
	}

	res, err := p.compress(ctx, in, cur, req)
	if err != nil {
		return nil, err
	}
	return p.validate(res, req)
}

// ingest wraps data and rejects content that contradicts its declared format
// or cannot be probed.
func ingest(data []byte, format domain.Format) (*domain.Candidate, error) {
	if len(data) == 0 {
		return nil, domain.Errorf(domain.KindCorruptInput, "transform", "empty input")
	}
	if sniffed := domain.DetectFormat(data); format != domain.FormatUnknown && sniffed != domain.FormatUnknown && sniffed != format {
		return nil, domain.Errorf(domain.KindCorruptInput, "transform", "declared %s but content is %s", format, sniffed)
	}
	in := domain.NewCandidate(data, format)
	if in.Format() == domain.FormatUnknown {
		return nil, domain.Errorf(domain.KindUnsupportedFormat, "transform", "cannot identify input format")
	}
	if _, err := in.Dimensions(); err != nil {
		return nil, err
	}
	return in, nil
}

// resize fits a raster into the target box and re-encodes it in its own
// format at the conversion quality.
func (p *pipeline) resize(ctx context.Context, c *domain.Candidate, req domain.Requirement) (*domain.Candidate, error) {
	cd, err := p.codecs.Lookup(c.Format())
	if err != nil {
		return nil, err
	}
	box, mode := *req.TargetDimensions, req.FitMode()
	data, err := codec.Run(ctx, p.opts.AttemptTimeout, func() ([]byte, error) {
		return codec.Transcode(cd, cd, c.Bytes(), p.converter.Quality(), func(img image.Image) (image.Image, error) {
			return p.scaler.Scale(img, box, mode)
		})
	})
	if err != nil {
		return nil, err
	}
	return domain.NewCandidate(data, c.Format()), nil
}

// compress runs the bounded search and settles the outcome with tolerance.
func (p *pipeline) compress(ctx context.Context, in, cur *domain.Candidate, req domain.Requirement) (*domain.Result, error) {
	bounds := req.Bounds()
	st := p.selector.Select(cur, req)

	var render compressor.Renderer
	var err error
	if req.AcceptedFormat.IsContainer() {
		raster := in
		if !raster.Format().IsRaster() {
			if raster, err = container.Unwrap(in); err != nil {
				return nil, err
			}
		}
		render, _, err = p.assembler.Renderer(raster, p.page)
	} else {
		if req.TargetDimensions != nil && req.FitMode() == domain.FitExact {
			st.AllowScale = false
		}
		render, err = p.compressor.RasterRenderer(cur, req.AcceptedFormat)
	}
	if err != nil {
		return nil, err
	}

	p.log.WithFields(logrus.Fields{
		"stage":    "compress",
		"strategy": st.Name,
		"size":     cur.Size(),
		"bounds":   bounds.String(),
	}).Info("Searching for size")

	out, err := p.compressor.Fit(ctx, render, bounds, st)
	if err != nil {
		return nil, err
	}
	res, err := p.compressor.Settle(out, bounds, st.Name, req.AcceptedFormat)
	if err != nil {
		return nil, err
	}
	res.Dimensions = dimensionsOf(res.FinalBytes, res.FinalFormat)
	return res, nil
}

// validate re-checks the searched output against the full requirement. The
// size window is widened only when the result already carries a tolerance
// warning.
func (p *pipeline) validate(res *domain.Result, req domain.Requirement) (*domain.Result, error) {
	var opts []compliance.Option
	if len(res.Warnings) > 0 {
		opts = append(opts, compliance.WithTolerance(p.opts.Tolerance))
	}
	final := domain.NewCandidate(res.FinalBytes, res.FinalFormat)
	if err := compliance.Check(final, req, opts...).Err(); err != nil {
		p.log.WithError(err).Error("Final validation failed")
		return nil, withAttempts(err, res.AttemptsLog)
	}
	p.log.WithFields(logrus.Fields{
		"size":     res.FinalSize,
		"strategy": res.StrategyUsed,
		"attempts": len(res.AttemptsLog),
	}).Info("Transform complete")
	return res, nil
}

// finish returns a stage output that already complies. The bytes are copied
// so the caller owns them outright.
func (p *pipeline) finish(c *domain.Candidate, stage string) (*domain.Result, error) {
	dims, _ := c.Dimensions()
	return &domain.Result{
		FinalBytes:   bytes.Clone(c.Bytes()),
		FinalFormat:  c.Format(),
		FinalSize:    c.Size(),
		Dimensions:   dims,
		StrategyUsed: stage,
		AttemptsLog:  []domain.Attempt{},
	}, nil
}

func dimensionsOf(data []byte, f domain.Format) domain.Dimensions {
	dims, _ := domain.NewCandidate(data, f).Dimensions()
	return dims
}

func canceled(err error) error {
	kind := domain.KindCanceled
	if errors.Is(err, context.DeadlineExceeded) {
		kind = domain.KindTimeout
	}
	return &domain.Error{Kind: kind, Op: "transform", Err: err}
}

func withAttempts(err error, attempts []domain.Attempt) error {
	var e *domain.Error
	if !errors.As(err, &e) {
		return err
	}
	cp := *e
	cp.Attempts = attempts
	return &cp
}
