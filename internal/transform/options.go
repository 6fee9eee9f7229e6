package transform

import (
	"maps"
	"time"

	"docfit-go/internal/compressor"
	"docfit-go/internal/container"
	"docfit-go/internal/convert"
	"docfit-go/internal/domain"
	"docfit-go/internal/scaler"
	"docfit-go/internal/strategy"
)

// Options is the read-only configuration of one Transform call. Build a new
// value to change it; the engine never mutates it.
type Options struct {
	// Tolerance is the fraction by which the closest attempt may miss the
	// size window and still be returned with a warning.
	Tolerance        float64
	AttemptTimeout   time.Duration
	ConvertQuality   float64
	MinScale         float64
	MaxUpscale       float64
	FallbackAttempts int
	Page             container.PageSize
	PageMargin       float64
	Presets          map[domain.Category]strategy.Preset
}

// DefaultPresets returns the per-category tuning used when none is configured.
func DefaultPresets() map[domain.Category]strategy.Preset {
	return map[domain.Category]strategy.Preset{
		domain.CategoryPhoto:            {QualityFloor: 0.40},
		domain.CategorySignature:        {QualityFloor: 0.60},
		domain.CategoryThumbImpression:  {QualityFloor: 0.50},
		domain.CategoryIdentityDocument: {QualityFloor: 0.60, PageSize: container.PageA4.Name},
	}
}

// DefaultOptions returns the built-in configuration.
func DefaultOptions() Options {
	c := compressor.DefaultOptions()
	return Options{
		Tolerance:        c.Tolerance,
		AttemptTimeout:   c.AttemptTimeout,
		ConvertQuality:   convert.DefaultQuality,
		MinScale:         strategy.DefaultMinScale,
		MaxUpscale:       scaler.DefaultMaxUpscale,
		FallbackAttempts: c.FallbackAttempts,
		Page:             container.PageA4,
		PageMargin:       container.DefaultMargin,
		Presets:          DefaultPresets(),
	}
}

// Clone returns a deep copy so that the caller may keep editing its own value.
func (o Options) Clone() Options {
	o.Presets = maps.Clone(o.Presets)
	return o
}

func (o Options) compressorOptions() compressor.Options {
	return compressor.Options{
		AttemptTimeout:   o.AttemptTimeout,
		Tolerance:        o.Tolerance,
		FallbackAttempts: o.FallbackAttempts,
	}
}

// pageFor resolves the page preset for a category, falling back to Page.
func (o Options) pageFor(c domain.Category) container.PageSize {
	if p, ok := o.Presets[c]; ok && p.PageSize != "" {
		if page, err := container.ParsePageSize(p.PageSize); err == nil {
			return page
		}
	}
	if o.Page.Name == "" {
		return container.PageA4
	}
	return o.Page
}
