package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Category is the kind of document a file is uploaded as.
type Category string

const (
	CategoryPhoto            Category = "photo"
	CategorySignature        Category = "signature"
	CategoryThumbImpression  Category = "thumb_impression"
	CategoryIdentityDocument Category = "identity_document"
	CategoryOther            Category = "other"
)

// Categories lists every known category.
func Categories() []Category {
	return []Category{
		CategoryPhoto,
		CategorySignature,
		CategoryThumbImpression,
		CategoryIdentityDocument,
		CategoryOther,
	}
}

// Priority tells the engine which side of the size/quality trade-off to favour.
type Priority string

const (
	PriorityQuality  Priority = "quality"
	PriorityBalanced Priority = "balanced"
	PrioritySize     Priority = "size"
)

// FitMode controls how TargetDimensions are interpreted.
type FitMode string

const (
	// FitMax treats the target as a bounding box; images are never enlarged.
	FitMax FitMode = "max"
	// FitExact demands a canvas of exactly the target size.
	FitExact FitMode = "exact"
)

// Dimensions is a width x height pair in pixels.
type Dimensions struct {
	Width  int `json:"width" validate:"gt=0"`
	Height int `json:"height" validate:"gt=0"`
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// IsZero reports whether no dimensions are set.
func (d Dimensions) IsZero() bool {
	return d.Width == 0 && d.Height == 0
}

// Requirement is the normalised set of constraints an output must satisfy.
// It is built by an upstream resolver and treated as read-only.
type Requirement struct {
	Category         Category    `json:"category" validate:"omitempty,oneof=photo signature thumb_impression identity_document other"`
	AcceptedFormat   Format      `json:"accepted_format"`
	MinSizeBytes     *int64      `json:"min_size_bytes,omitempty" validate:"omitempty,gte=0"`
	MaxSizeBytes     *int64      `json:"max_size_bytes,omitempty" validate:"omitempty,gte=0"`
	TargetDimensions *Dimensions `json:"target_dimensions,omitempty" validate:"omitempty"`
	Fit              FitMode     `json:"fit,omitempty" validate:"omitempty,oneof=max exact"`
	QualityPriority  Priority    `json:"quality_priority" validate:"omitempty,oneof=quality balanced size"`
}

// Bytes returns a pointer to n, for populating optional size bounds.
func Bytes(n int64) *int64 {
	return &n
}

// KB returns a pointer to n kibibytes.
func KB(n int64) *int64 {
	return Bytes(n * 1024)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		r := sl.Current().Interface().(Requirement)
		if r.MinSizeBytes != nil && r.MaxSizeBytes != nil && *r.MinSizeBytes > *r.MaxSizeBytes {
			sl.ReportError(r.MinSizeBytes, "MinSizeBytes", "MinSizeBytes", "ltefield", "MaxSizeBytes")
		}
		if !r.AcceptedFormat.IsRaster() && !r.AcceptedFormat.IsContainer() {
			sl.ReportError(r.AcceptedFormat, "AcceptedFormat", "AcceptedFormat", "format", "")
		}
	}, Requirement{})
	return v
}

// Validate checks the invariants of the requirement.
func (r Requirement) Validate() error {
	if err := validate.Struct(r); err != nil {
		return NewError(KindInvalidRequirement, "validate requirement", err)
	}
	return nil
}

// Priority returns the quality priority, defaulting to balanced.
func (r Requirement) Priority() Priority {
	if r.QualityPriority == "" {
		return PriorityBalanced
	}
	return r.QualityPriority
}

// FitMode returns the dimension fit mode, defaulting to FitMax.
func (r Requirement) FitMode() FitMode {
	if r.Fit == "" {
		return FitMax
	}
	return r.Fit
}

// Bounds returns the size window of the requirement.
func (r Requirement) Bounds() Bounds {
	var b Bounds
	if r.MinSizeBytes != nil {
		b.Min, b.HasMin = *r.MinSizeBytes, true
	}
	if r.MaxSizeBytes != nil {
		b.Max, b.HasMax = *r.MaxSizeBytes, true
	}
	return b
}

// Bounds is a byte-size window. An absent side is unconstrained.
type Bounds struct {
	Min    int64
	Max    int64
	HasMin bool
	HasMax bool
}

// Contains reports whether size lies inside the window.
func (b Bounds) Contains(size int64) bool {
	return !b.Above(size) && !b.Below(size)
}

// Above reports whether size exceeds the upper bound.
func (b Bounds) Above(size int64) bool {
	return b.HasMax && size > b.Max
}

// Below reports whether size is under the lower bound.
func (b Bounds) Below(size int64) bool {
	return b.HasMin && size < b.Min
}

// Widen returns the window relaxed by the given fraction on both sides.
func (b Bounds) Widen(tolerance float64) Bounds {
	if tolerance <= 0 {
		return b
	}
	w := b
	if b.HasMax {
		w.Max = b.Max + int64(float64(b.Max)*tolerance)
	}
	if b.HasMin {
		w.Min = b.Min - int64(float64(b.Min)*tolerance)
		if w.Min < 0 {
			w.Min = 0
		}
	}
	return w
}

// Distance returns how many bytes size lies outside the window, zero inside.
func (b Bounds) Distance(size int64) int64 {
	switch {
	case b.Above(size):
		return size - b.Max
	case b.Below(size):
		return b.Min - size
	default:
		return 0
	}
}

func (b Bounds) String() string {
	lo, hi := "-", "-"
	if b.HasMin {
		lo = fmt.Sprintf("%d", b.Min)
	}
	if b.HasMax {
		hi = fmt.Sprintf("%d", b.Max)
	}
	return fmt.Sprintf("[%s, %s]", lo, hi)
}
