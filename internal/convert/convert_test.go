package convert

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docfit-go/internal/codec"
	"docfit-go/internal/compressor"
	"docfit-go/internal/container"
	"docfit-go/internal/domain"
	"docfit-go/internal/testutil"
)

func newConverter() *Converter {
	log, _ := test.NewNullLogger()
	reg := codec.DefaultRegistry()
	comp := compressor.New(reg, nil, compressor.DefaultOptions(), log)
	return New(reg, container.NewAssembler(comp, reg, container.DefaultMargin, log), 0, 0, log)
}

func TestConvertSameFormatIsNoop(t *testing.T) {
	c := newConverter()
	in := domain.NewCandidate(testutil.JPEG(testutil.Noise(32, 32, 1), 80), domain.FormatJPEG)

	out, err := c.Convert(context.Background(), in, domain.FormatJPEG, container.PageA4)
	require.NoError(t, err)
	assert.Same(t, in, out)
}

func TestConvertRasterToRaster(t *testing.T) {
	c := newConverter()
	assert.Equal(t, DefaultQuality, c.Quality())

	in := domain.NewCandidate(testutil.PNG(testutil.Noise(64, 48, 2)), domain.FormatPNG)
	out, err := c.Convert(context.Background(), in, domain.FormatJPEG, container.PageA4)
	require.NoError(t, err)
	assert.Equal(t, domain.FormatJPEG, out.Format())
	assert.Equal(t, domain.FormatJPEG, domain.DetectFormat(out.Bytes()))

	dims, err := out.Dimensions()
	require.NoError(t, err)
	assert.Equal(t, domain.Dimensions{Width: 64, Height: 48}, dims)
}

func TestConvertRasterToContainer(t *testing.T) {
	c := newConverter()
	jpg := testutil.JPEG(testutil.Noise(120, 80, 3), 85)
	in := domain.NewCandidate(jpg, domain.FormatJPEG)

	out, err := c.Convert(context.Background(), in, domain.FormatPDF, container.PageLetter)
	require.NoError(t, err)
	assert.Equal(t, domain.FormatPDF, out.Format())
	assert.Equal(t, domain.FormatPDF, domain.DetectFormat(out.Bytes()))

	inner, err := container.Unwrap(out)
	require.NoError(t, err)
	dims, err := inner.Dimensions()
	require.NoError(t, err)
	assert.Equal(t, domain.Dimensions{Width: 120, Height: 80}, dims)
}

func TestConvertContainerToRasterUnsupported(t *testing.T) {
	c := newConverter()
	pdf, err := container.Build(testutil.JPEG(testutil.Noise(16, 16, 4), 80),
		container.ComputeLayout(domain.Dimensions{Width: 16, Height: 16}, container.PageFit, 0))
	require.NoError(t, err)

	_, err = c.Convert(context.Background(), domain.NewCandidate(pdf, domain.FormatPDF), domain.FormatPNG, container.PageA4)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestConvertToDecodeOnlyFormat(t *testing.T) {
	c := newConverter()
	in := domain.NewCandidate(testutil.PNG(testutil.Noise(8, 8, 5)), domain.FormatPNG)

	_, err := c.Convert(context.Background(), in, domain.FormatWebP, container.PageA4)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestConvertCorruptInput(t *testing.T) {
	c := newConverter()
	in := domain.NewCandidate([]byte("\x89PNG\r\n\x1a\nnot really"), domain.FormatPNG)

	_, err := c.Convert(context.Background(), in, domain.FormatJPEG, container.PageA4)
	assert.ErrorIs(t, err, domain.ErrCorruptInput)
}
