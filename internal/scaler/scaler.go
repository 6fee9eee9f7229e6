// Package scaler resizes raster images while preserving their aspect ratio.
package scaler

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"docfit-go/internal/domain"
)

// DefaultMaxUpscale caps enlargement for exact-size targets.
const DefaultMaxUpscale = 4.0

// Scaler fits images into target boxes.
type Scaler struct {
	// MaxUpscale is the largest factor allowed when an exact size is demanded.
	MaxUpscale float64
	// Background fills the padding around exact-size canvases.
	Background color.Color
	Filter     imaging.ResampleFilter
}

// New returns a Scaler with the given upscale ceiling.
func New(maxUpscale float64) *Scaler {
	if maxUpscale < 1 {
		maxUpscale = DefaultMaxUpscale
	}
	return &Scaler{
		MaxUpscale: maxUpscale,
		Background: color.White,
		Filter:     imaging.Lanczos,
	}
}

// Factor returns the uniform scale that fits src into box. Under FitMax the
// factor never exceeds 1.
func Factor(src, box domain.Dimensions, mode domain.FitMode) float64 {
	if src.Width <= 0 || src.Height <= 0 {
		return 1
	}
	f := math.Min(float64(box.Width)/float64(src.Width), float64(box.Height)/float64(src.Height))
	if mode != domain.FitExact && f > 1 {
		f = 1
	}
	return f
}

// Scaled returns src multiplied by f, rounded, never below one pixel.
func Scaled(src domain.Dimensions, f float64) domain.Dimensions {
	return domain.Dimensions{
		Width:  max(1, int(math.Round(float64(src.Width)*f))),
		Height: max(1, int(math.Round(float64(src.Height)*f))),
	}
}

// Scale fits img into box. Under FitExact the result is padded and centred on
// a canvas of exactly box.
func (s *Scaler) Scale(img image.Image, box domain.Dimensions, mode domain.FitMode) (image.Image, error) {
	if box.Width <= 0 || box.Height <= 0 {
		return nil, domain.Errorf(domain.KindDimensionMismatch, "scale", "invalid target box %s", box)
	}
	b := img.Bounds()
	src := domain.Dimensions{Width: b.Dx(), Height: b.Dy()}

	f := Factor(src, box, mode)
	if f > s.MaxUpscale {
		return nil, domain.Errorf(domain.KindDimensionMismatch, "scale",
			"%s to %s needs %.2fx enlargement, limit is %.2fx", src, box, f, s.MaxUpscale)
	}

	out := img
	if f != 1 {
		size := Scaled(src, f)
		if mode == domain.FitExact {
			size.Width = min(size.Width, box.Width)
			size.Height = min(size.Height, box.Height)
		}
		out = imaging.Resize(img, size.Width, size.Height, s.Filter)
	}
	if mode != domain.FitExact {
		return out, nil
	}

	ob := out.Bounds()
	if ob.Dx() == box.Width && ob.Dy() == box.Height {
		return out, nil
	}
	canvas := imaging.New(box.Width, box.Height, s.Background)
	return imaging.PasteCenter(canvas, out), nil
}

// ScaleBy shrinks img by factor f in (0, 1]. A factor of 1 returns img as is.
func (s *Scaler) ScaleBy(img image.Image, f float64) image.Image {
	if f >= 1 || f <= 0 {
		return img
	}
	b := img.Bounds()
	size := Scaled(domain.Dimensions{Width: b.Dx(), Height: b.Dy()}, f)
	return imaging.Resize(img, size.Width, size.Height, s.Filter)
}
