package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docfit-go/internal/domain"
	"docfit-go/internal/testutil"
)

func TestCheck(t *testing.T) {
	jpeg := testutil.JPEG(testutil.Noise(40, 30, 1), 85)
	size := int64(len(jpeg))
	cand := domain.NewCandidate(jpeg, domain.FormatJPEG)

	tests := []struct {
		name string
		req  domain.Requirement
		want []domain.Constraint
	}{
		{
			name: "no bounds",
			req:  domain.Requirement{AcceptedFormat: domain.FormatJPEG},
		},
		{
			name: "inside window",
			req:  domain.Requirement{AcceptedFormat: domain.FormatJPEG, MinSizeBytes: domain.Bytes(size - 1), MaxSizeBytes: domain.Bytes(size)},
		},
		{
			name: "only min",
			req:  domain.Requirement{AcceptedFormat: domain.FormatJPEG, MinSizeBytes: domain.Bytes(1)},
		},
		{
			name: "too big",
			req:  domain.Requirement{AcceptedFormat: domain.FormatJPEG, MaxSizeBytes: domain.Bytes(size - 1)},
			want: []domain.Constraint{domain.ConstraintSize},
		},
		{
			name: "too small",
			req:  domain.Requirement{AcceptedFormat: domain.FormatJPEG, MinSizeBytes: domain.Bytes(size + 1)},
			want: []domain.Constraint{domain.ConstraintSize},
		},
		{
			name: "wrong format",
			req:  domain.Requirement{AcceptedFormat: domain.FormatPNG},
			want: []domain.Constraint{domain.ConstraintFormat},
		},
		{
			name: "fits box",
			req:  domain.Requirement{AcceptedFormat: domain.FormatJPEG, TargetDimensions: &domain.Dimensions{Width: 40, Height: 40}},
		},
		{
			name: "exceeds box",
			req:  domain.Requirement{AcceptedFormat: domain.FormatJPEG, TargetDimensions: &domain.Dimensions{Width: 20, Height: 40}},
			want: []domain.Constraint{domain.ConstraintDimension},
		},
		{
			name: "exact mismatch",
			req:  domain.Requirement{AcceptedFormat: domain.FormatJPEG, TargetDimensions: &domain.Dimensions{Width: 40, Height: 40}, Fit: domain.FitExact},
			want: []domain.Constraint{domain.ConstraintDimension},
		},
		{
			name: "everything wrong",
			req: domain.Requirement{
				AcceptedFormat:   domain.FormatPDF,
				MaxSizeBytes:     domain.Bytes(1),
				TargetDimensions: &domain.Dimensions{Width: 1, Height: 1},
			},
			want: []domain.Constraint{domain.ConstraintFormat, domain.ConstraintSize, domain.ConstraintDimension},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Check(cand, tt.req)
			var got []domain.Constraint
			for _, v := range r.Violations {
				got = append(got, v.Constraint)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want) == 0, IsCompliant(cand, tt.req))
		})
	}
}

func TestCheckWithTolerance(t *testing.T) {
	cand := domain.NewCandidate(make([]byte, 105), domain.FormatPDF)
	req := domain.Requirement{AcceptedFormat: domain.FormatPDF, MaxSizeBytes: domain.Bytes(100)}

	assert.False(t, Check(cand, req).Compliant())
	assert.True(t, Check(cand, req, WithTolerance(0.1)).Compliant())
}

func TestContainersIgnoreDimensions(t *testing.T) {
	cand := domain.NewCandidate([]byte("%PDF-1.4"), domain.FormatPDF)
	req := domain.Requirement{AcceptedFormat: domain.FormatPDF, TargetDimensions: &domain.Dimensions{Width: 1, Height: 1}}
	assert.True(t, IsCompliant(cand, req))
}

func TestReportErr(t *testing.T) {
	assert.NoError(t, Report{}.Err())

	err := Report{Violations: []Violation{{Constraint: domain.ConstraintDimension, Detail: "x"}}}.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	err = Report{Violations: []Violation{{Constraint: domain.ConstraintSize}}}.Err()
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)
	assert.True(t, Report{Violations: []Violation{{Constraint: domain.ConstraintSize}}}.Has(domain.ConstraintSize))
}
