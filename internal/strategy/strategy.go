// Package strategy chooses compression search parameters from a requirement.
package strategy

import (
	"maps"
	"math"

	"docfit-go/internal/domain"
)

// Strategy names.
const (
	NameQuality    = "quality"
	NameBalanced   = "balanced"
	NameAggressive = "aggressive"
)

// AggressiveRatio is the compression ratio above which the aggressive
// strategy is used regardless of priority.
const AggressiveRatio = 8.0

// DefaultMinScale is the smallest scale factor the search will try.
const DefaultMinScale = 0.25

// Preset tunes the search for one document category.
type Preset struct {
	// QualityFloor raises the strategy floor so the category stays legible.
	QualityFloor float64
	// MaxAttempts overrides the attempt ceiling when positive.
	MaxAttempts int
	// PageSize names the page preset used when wrapping into a container.
	PageSize string
}

// Selector applies the decision table. It is immutable and safe for
// concurrent use.
type Selector struct {
	presets  map[domain.Category]Preset
	minScale float64
}

// NewSelector copies presets into a new Selector.
func NewSelector(presets map[domain.Category]Preset, minScale float64) *Selector {
	if minScale <= 0 || minScale > 1 {
		minScale = DefaultMinScale
	}
	return &Selector{presets: maps.Clone(presets), minScale: minScale}
}

// Preset returns the preset for a category, if one is configured.
func (s *Selector) Preset(c domain.Category) (Preset, bool) {
	p, ok := s.presets[c]
	return p, ok
}

// CompressionRatio returns size / maxSizeBytes, or 0 without an upper bound.
func CompressionRatio(size int64, req domain.Requirement) float64 {
	b := req.Bounds()
	if !b.HasMax {
		return 0
	}
	if b.Max <= 0 {
		return math.Inf(1)
	}
	return float64(size) / float64(b.Max)
}

// Select picks the strategy for compressing c to meet req.
func (s *Selector) Select(c *domain.Candidate, req domain.Requirement) domain.Strategy {
	ratio := CompressionRatio(c.Size(), req)

	var st domain.Strategy
	switch {
	case req.Priority() == domain.PrioritySize || ratio > AggressiveRatio:
		st = domain.Strategy{
			Name:           NameAggressive,
			InitialQuality: 0.70,
			QualityFloor:   0.20,
			AllowScale:     true,
			ScaleEarly:     true,
			MaxAttempts:    20,
		}
		if ratio > 2*AggressiveRatio {
			st.MaxAttempts = 25
		}
	case req.Priority() == domain.PriorityQuality:
		st = domain.Strategy{
			Name:           NameQuality,
			InitialQuality: 0.92,
			QualityFloor:   0.75,
			AllowScale:     true,
			MaxAttempts:    10,
		}
	default:
		st = domain.Strategy{
			Name:           NameBalanced,
			InitialQuality: 0.85,
			QualityFloor:   0.50,
			AllowScale:     true,
			MaxAttempts:    15,
		}
	}
	st.MinScale = s.minScale

	if p, ok := s.presets[req.Category]; ok {
		if p.QualityFloor > st.QualityFloor {
			st.QualityFloor = math.Min(p.QualityFloor, st.InitialQuality)
		}
		if p.MaxAttempts > 0 {
			st.MaxAttempts = p.MaxAttempts
		}
	}
	return st
}
