// Package container wraps a raster image into a single-page PDF and bounds
// the size of the assembled document.
package container

import (
	"fmt"
	"math"
	"strings"

	"docfit-go/internal/domain"
)

// PageSize is a page in PDF points (1/72 inch).
type PageSize struct {
	Name   string
	Width  float64
	Height float64
}

// Page presets. PageFit sizes the page to the image itself.
var (
	PageA4     = PageSize{Name: "a4", Width: 595.28, Height: 841.89}
	PageLetter = PageSize{Name: "letter", Width: 612, Height: 792}
	PageLegal  = PageSize{Name: "legal", Width: 612, Height: 1008}
	PageFit    = PageSize{Name: "fit"}
)

// DefaultMargin is the blank border kept around the image on fixed pages.
const DefaultMargin = 36.0

// ParsePageSize resolves a preset name. The empty string selects A4.
func ParsePageSize(name string) (PageSize, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "a4":
		return PageA4, nil
	case "letter":
		return PageLetter, nil
	case "legal":
		return PageLegal, nil
	case "fit":
		return PageFit, nil
	default:
		return PageSize{}, fmt.Errorf("unknown page size %q", name)
	}
}

// Rect is a placement on the page in points, origin top-left.
type Rect struct {
	X, Y, Width, Height float64
}

// Layout is the page and the image placement on it.
type Layout struct {
	Page PageSize
	Rect Rect
}

// ComputeLayout centres an image of the given pixel size on page, scaled to
// fit inside the margins without distortion. For PageFit the page takes the
// image's size at 72 dpi and the image fills it.
func ComputeLayout(img domain.Dimensions, page PageSize, margin float64) Layout {
	w, h := float64(max(img.Width, 1)), float64(max(img.Height, 1))
	if page.Width <= 0 || page.Height <= 0 {
		fit := PageSize{Name: PageFit.Name, Width: w, Height: h}
		return Layout{Page: fit, Rect: Rect{Width: w, Height: h}}
	}

	availW := math.Max(page.Width-2*margin, 1)
	availH := math.Max(page.Height-2*margin, 1)
	f := math.Min(availW/w, availH/h)
	rw, rh := w*f, h*f
	return Layout{
		Page: page,
		Rect: Rect{
			X:      (page.Width - rw) / 2,
			Y:      (page.Height - rh) / 2,
			Width:  rw,
			Height: rh,
		},
	}
}
