// Package compliance decides whether a candidate already satisfies a requirement.
package compliance

import (
	"fmt"

	"docfit-go/internal/domain"
)

// Violation describes one unmet constraint.
type Violation struct {
	Constraint domain.Constraint
	Detail     string
}

// Report lists every violated constraint. An empty report is compliant.
type Report struct {
	Violations []Violation
}

// Compliant reports whether no constraint is violated.
func (r Report) Compliant() bool {
	return len(r.Violations) == 0
}

// Has reports whether the given constraint is violated.
func (r Report) Has(c domain.Constraint) bool {
	for _, v := range r.Violations {
		if v.Constraint == c {
			return true
		}
	}
	return false
}

// Err converts the first violation into a ConstraintViolation error, or nil.
func (r Report) Err() error {
	if r.Compliant() {
		return nil
	}
	v := r.Violations[0]
	kind := domain.KindConstraintViolation
	if v.Constraint == domain.ConstraintDimension {
		kind = domain.KindDimensionMismatch
	}
	return &domain.Error{Kind: kind, Op: "validate", Constraint: v.Constraint, Detail: v.Detail}
}

// Option adjusts a check.
type Option func(*options)

type options struct {
	tolerance float64
}

// WithTolerance relaxes the size window by the given fraction.
func WithTolerance(t float64) Option {
	return func(o *options) { o.tolerance = t }
}

// IsCompliant is the pure predicate used between pipeline stages.
func IsCompliant(c *domain.Candidate, req domain.Requirement) bool {
	return Check(c, req).Compliant()
}

// Check evaluates c against every constraint of req. Absent bounds and
// absent target dimensions are unconstrained.
func Check(c *domain.Candidate, req domain.Requirement, opts ...Option) Report {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var r Report
	if c.Format() != req.AcceptedFormat {
		r.Violations = append(r.Violations, Violation{
			Constraint: domain.ConstraintFormat,
			Detail:     fmt.Sprintf("have %s, want %s", c.Format(), req.AcceptedFormat),
		})
	}

	bounds := req.Bounds().Widen(o.tolerance)
	if size := c.Size(); !bounds.Contains(size) {
		r.Violations = append(r.Violations, Violation{
			Constraint: domain.ConstraintSize,
			Detail:     fmt.Sprintf("%d bytes outside %s", size, bounds),
		})
	}

	if req.TargetDimensions != nil && c.Format().IsRaster() {
		dims, err := c.Dimensions()
		switch {
		case err != nil:
			r.Violations = append(r.Violations, Violation{
				Constraint: domain.ConstraintDimension,
				Detail:     err.Error(),
			})
		case !DimensionsFit(dims, *req.TargetDimensions, req.FitMode()):
			r.Violations = append(r.Violations, Violation{
				Constraint: domain.ConstraintDimension,
				Detail:     fmt.Sprintf("%s does not fit %s (%s)", dims, req.TargetDimensions, req.FitMode()),
			})
		}
	}
	return r
}

// DimensionsFit reports whether have satisfies target under mode.
func DimensionsFit(have, target domain.Dimensions, mode domain.FitMode) bool {
	if mode == domain.FitExact {
		return have == target
	}
	return have.Width <= target.Width && have.Height <= target.Height
}
