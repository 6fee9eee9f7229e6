package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docfit-go/internal/testutil"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"JPG", FormatJPEG},
		{".jpeg", FormatJPEG},
		{"image/jpeg", FormatJPEG},
		{"image/png; charset=binary", FormatPNG},
		{"TIF", FormatTIFF},
		{"application/pdf", FormatPDF},
		{"webp", FormatWebP},
		{"docx", FormatUnknown},
		{"", FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFormat(tt.in))
		})
	}
}

func TestDetectFormat(t *testing.T) {
	img := testutil.Noise(4, 4, 1)
	assert.Equal(t, FormatJPEG, DetectFormat(testutil.JPEG(img, 80)))
	assert.Equal(t, FormatPNG, DetectFormat(testutil.PNG(img)))
	assert.Equal(t, FormatPDF, DetectFormat([]byte("%PDF-1.4\n")))
	assert.Equal(t, FormatWebP, DetectFormat([]byte("RIFF\x00\x00\x00\x00WEBPVP8 ")))
	assert.Equal(t, FormatUnknown, DetectFormat(nil))
}

func TestFormatText(t *testing.T) {
	var f Format
	require.NoError(t, f.UnmarshalText([]byte("jpg")))
	assert.Equal(t, FormatJPEG, f)

	out, err := f.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(out))

	assert.ErrorIs(t, f.UnmarshalText([]byte("heic")), ErrUnsupportedFormat)
	assert.Equal(t, ".jpg", FormatJPEG.Extension())
	assert.Equal(t, ".pdf", FormatPDF.Extension())
}

func TestRequirementValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Requirement
		wantErr bool
	}{
		{
			name: "minimal",
			req:  Requirement{AcceptedFormat: FormatJPEG},
		},
		{
			name: "full",
			req: Requirement{
				Category:         CategorySignature,
				AcceptedFormat:   FormatJPEG,
				MinSizeBytes:     KB(10),
				MaxSizeBytes:     KB(20),
				TargetDimensions: &Dimensions{Width: 140, Height: 60},
				Fit:              FitExact,
				QualityPriority:  PriorityQuality,
			},
		},
		{
			name:    "min above max",
			req:     Requirement{AcceptedFormat: FormatJPEG, MinSizeBytes: KB(30), MaxSizeBytes: KB(20)},
			wantErr: true,
		},
		{
			name:    "unknown format",
			req:     Requirement{},
			wantErr: true,
		},
		{
			name:    "bad priority",
			req:     Requirement{AcceptedFormat: FormatPNG, QualityPriority: "speed"},
			wantErr: true,
		},
		{
			name:    "zero width",
			req:     Requirement{AcceptedFormat: FormatPNG, TargetDimensions: &Dimensions{Height: 10}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRequirement)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRequirementDefaults(t *testing.T) {
	r := Requirement{AcceptedFormat: FormatPNG}
	assert.Equal(t, PriorityBalanced, r.Priority())
	assert.Equal(t, FitMax, r.FitMode())
	assert.Equal(t, Bounds{}, r.Bounds())
}

func TestBounds(t *testing.T) {
	b := Bounds{Min: 100, Max: 200, HasMin: true, HasMax: true}
	assert.True(t, b.Contains(100))
	assert.True(t, b.Contains(200))
	assert.True(t, b.Above(201))
	assert.True(t, b.Below(99))
	assert.Equal(t, int64(50), b.Distance(250))
	assert.Equal(t, int64(10), b.Distance(90))
	assert.Equal(t, int64(0), b.Distance(150))

	w := b.Widen(0.1)
	assert.Equal(t, int64(90), w.Min)
	assert.Equal(t, int64(220), w.Max)

	var open Bounds
	assert.True(t, open.Contains(0))
	assert.True(t, open.Contains(1<<40))
	assert.Equal(t, "[-, -]", open.String())
}

func TestCandidateDimensions(t *testing.T) {
	c := NewCandidate(testutil.JPEG(testutil.Noise(30, 20, 2), 80), FormatUnknown)
	assert.Equal(t, FormatJPEG, c.Format())

	dims, err := c.Dimensions()
	require.NoError(t, err)
	assert.Equal(t, Dimensions{Width: 30, Height: 20}, dims)

	pdf := NewCandidate([]byte("%PDF-1.4"), FormatPDF)
	dims, err = pdf.Dimensions()
	require.NoError(t, err)
	assert.True(t, dims.IsZero())

	broken := NewCandidate([]byte{0xFF, 0xD8, 0xFF, 0xE0}, FormatJPEG)
	_, err = broken.Dimensions()
	assert.ErrorIs(t, err, ErrCorruptInput)
}

func TestErrorKinds(t *testing.T) {
	base := errors.New("short write")
	err := fmt.Errorf("stage: %w", &Error{
		Kind:     KindCompressionInfeasible,
		Op:       "compress",
		Attempts: []Attempt{{Quality: 0.5}},
		Err:      base,
	})

	assert.ErrorIs(t, err, ErrCompressionInfeasible)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, KindCompressionInfeasible, KindOf(err))
	assert.Len(t, AttemptsOf(err), 1)
	assert.Contains(t, err.Error(), "CompressionInfeasible")
	assert.Contains(t, err.Error(), "(1 attempts)")

	v := &Error{Kind: KindConstraintViolation, Constraint: ConstraintSize, Detail: "too big"}
	assert.Equal(t, "ConstraintViolation [size]: too big", v.Error())
	assert.Equal(t, KindUnknown, KindOf(base))
}
