package compressor

import (
	"context"
	"time"

	"docfit-go/internal/domain"
)

// Renderer produces the output artifact for one (scale, quality) pair. The
// search measures whatever bytes it returns, so container builders can plug
// in the same driver as plain raster encoders.
type Renderer func(scale, quality float64) ([]byte, error)

// Compressor searches for the best-quality output inside a size window.
type Compressor interface {
	// Compress re-encodes c into req.AcceptedFormat under strategy st.
	// Returns a result or an error of kind CompressionInfeasible carrying the
	// attempts log.
	Compress(ctx context.Context, c *domain.Candidate, req domain.Requirement, st domain.Strategy) (*domain.Result, error)
}

// Options tunes the search. The zero value is usable.
type Options struct {
	// AttemptTimeout bounds each encode. Zero disables the limit.
	AttemptTimeout time.Duration
	// Tolerance is the fraction by which the closest attempt may miss the
	// window and still be returned with a warning. Zero disables it.
	Tolerance float64
	// FallbackAttempts bounds the binary-search safety net.
	FallbackAttempts int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		AttemptTimeout:   30 * time.Second,
		Tolerance:        0.10,
		FallbackAttempts: 8,
	}
}

// Outcome is the state of a finished search.
type Outcome struct {
	// Found is true when Data lies inside the window.
	Found bool
	// Data is the accepted output, or the closest output when not Found.
	Data []byte
	// Best is the attempt that produced Data. Valid only when Data != nil.
	Best     domain.Attempt
	Attempts []domain.Attempt
}

// Absorb merges a later search into o, keeping the better artifact.
func (o *Outcome) Absorb(later Outcome, bounds domain.Bounds) {
	o.Attempts = append(o.Attempts, later.Attempts...)
	switch {
	case o.Found:
	case later.Found:
		o.Found, o.Data, o.Best = true, later.Data, later.Best
	case later.Data != nil && (o.Data == nil || closer(later.Best, o.Best, bounds)):
		o.Data, o.Best = later.Data, later.Best
	}
}

// closer reports whether a is nearer the window than b. Ties prefer the larger
// scale factor, then the higher quality.
func closer(a, b domain.Attempt, bounds domain.Bounds) bool {
	da, db := bounds.Distance(a.ResultSizeBytes), bounds.Distance(b.ResultSizeBytes)
	if da != db {
		return da < db
	}
	if a.ScaleFactor != b.ScaleFactor {
		return a.ScaleFactor > b.ScaleFactor
	}
	return a.Quality > b.Quality
}
