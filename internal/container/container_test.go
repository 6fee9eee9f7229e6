package container

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docfit-go/internal/codec"
	"docfit-go/internal/compressor"
	"docfit-go/internal/domain"
	"docfit-go/internal/testutil"
)

func newAssembler() *Assembler {
	log, _ := test.NewNullLogger()
	reg := codec.DefaultRegistry()
	return NewAssembler(compressor.New(reg, nil, compressor.DefaultOptions(), log), reg, DefaultMargin, log)
}

func TestParsePageSize(t *testing.T) {
	for name, want := range map[string]PageSize{"": PageA4, "A4": PageA4, "letter": PageLetter, " legal ": PageLegal, "fit": PageFit} {
		got, err := ParsePageSize(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParsePageSize("tabloid")
	assert.Error(t, err)
}

func TestComputeLayout(t *testing.T) {
	t.Run("landscape image on portrait page", func(t *testing.T) {
		l := ComputeLayout(domain.Dimensions{Width: 800, Height: 600}, PageA4, DefaultMargin)
		assert.Equal(t, PageA4, l.Page)
		assert.InDelta(t, PageA4.Width-2*DefaultMargin, l.Rect.Width, 1e-6)
		assert.InDelta(t, l.Rect.Width*0.75, l.Rect.Height, 1e-6)
		assert.InDelta(t, DefaultMargin, l.Rect.X, 1e-6)
		assert.InDelta(t, (PageA4.Height-l.Rect.Height)/2, l.Rect.Y, 1e-6)
	})

	t.Run("fit page", func(t *testing.T) {
		l := ComputeLayout(domain.Dimensions{Width: 320, Height: 200}, PageFit, DefaultMargin)
		assert.Equal(t, 320.0, l.Page.Width)
		assert.Equal(t, 200.0, l.Page.Height)
		assert.Equal(t, Rect{Width: 320, Height: 200}, l.Rect)
	})
}

func TestBuildEmbedsJPEGVerbatim(t *testing.T) {
	jpg := testutil.JPEG(testutil.Noise(160, 120, 1), 80)
	l := ComputeLayout(domain.Dimensions{Width: 160, Height: 120}, PageLetter, DefaultMargin)

	pdf, err := Build(jpg, l)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	assert.Equal(t, domain.FormatPDF, domain.DetectFormat(pdf))

	got, err := Extract(pdf)
	require.NoError(t, err)
	assert.Equal(t, jpg, got)

	again, err := Build(jpg, l)
	require.NoError(t, err)
	assert.Equal(t, pdf, again, "build is deterministic")
}

// multiImagePDF places each JPEG on its own page.
func multiImagePDF(t *testing.T, jpegs ...[]byte) []byte {
	t.Helper()
	doc := fpdf.New("P", "pt", "A4", "")
	for i, jpg := range jpegs {
		doc.AddPage()
		name := fmt.Sprintf("img%d", i)
		opts := fpdf.ImageOptions{ImageType: "JPG"}
		doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(jpg))
		doc.ImageOptions(name, 36, 36, 200, 150, false, opts, 0, "")
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func TestExtractPicksLargestImage(t *testing.T) {
	small := testutil.JPEG(testutil.Noise(20, 20, 2), 50)
	large := testutil.JPEG(testutil.Noise(120, 90, 3), 90)

	got, err := Extract(multiImagePDF(t, small, large, small))
	require.NoError(t, err)
	assert.Equal(t, large, got)
}

func TestExtractWithoutImage(t *testing.T) {
	doc := fpdf.New("P", "pt", "A4", "")
	doc.AddPage()
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))

	_, err := Extract(buf.Bytes())
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = Unwrap(domain.NewCandidate(testutil.PNG(testutil.Noise(4, 4, 1)), domain.FormatPNG))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestExtractRejectsUnparsableDocument(t *testing.T) {
	_, err := Extract([]byte("%PDF-1.4\nnot a document\n"))
	assert.ErrorIs(t, err, domain.ErrCorruptInput)
}

func TestAssembleMeetsMaxSize(t *testing.T) {
	a := newAssembler()
	raster := domain.NewCandidate(testutil.PNG(testutil.Noise(400, 300, 7)), domain.FormatPNG)

	render, layout, err := a.Renderer(raster, PageA4)
	require.NoError(t, err)
	full, err := render(1, 0.85)
	require.NoError(t, err)

	limit := int64(len(full)) / 2
	req := domain.Requirement{AcceptedFormat: domain.FormatPDF, MaxSizeBytes: &limit}
	st := domain.Strategy{Name: "balanced", InitialQuality: 0.85, QualityFloor: 0.5, AllowScale: true, MaxAttempts: 15, MinScale: 0.25}

	res, err := a.Assemble(context.Background(), raster, PageA4, req, st)
	require.NoError(t, err)
	assert.Equal(t, domain.FormatPDF, res.FinalFormat)
	assert.Empty(t, res.Warnings)
	assert.LessOrEqual(t, res.FinalSize, limit)
	assert.NotEmpty(t, res.AttemptsLog)

	jpg, err := Extract(res.FinalBytes)
	require.NoError(t, err)
	img, format, err := image.Decode(bytes.NewReader(jpg))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.LessOrEqual(t, img.Bounds().Dx(), 400)

	// The page keeps the layout of the full-size raster.
	assert.Equal(t, PageA4, layout.Page)
}

func TestAssembleRejectsContainerInput(t *testing.T) {
	a := newAssembler()
	pdf, err := Build(testutil.JPEG(testutil.Noise(10, 10, 1), 80), ComputeLayout(domain.Dimensions{Width: 10, Height: 10}, PageFit, 0))
	require.NoError(t, err)

	_, err = a.Assemble(context.Background(), domain.NewCandidate(pdf, domain.FormatPDF), PageA4, domain.Requirement{AcceptedFormat: domain.FormatPDF}, domain.Strategy{MaxAttempts: 1})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}
