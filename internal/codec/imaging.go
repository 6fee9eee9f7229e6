package codec

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/png"
	"math"

	"github.com/disintegration/imaging"

	"docfit-go/internal/domain"
)

// imagingCodec is the disintegration/imaging backed implementation of Codec.
type imagingCodec struct {
	format   domain.Format
	encodeFn func(img image.Image, quality float64) ([]byte, error)
}

// NewJPEG returns a JPEG codec. Quality maps to the encoder's 1-100 scale.
func NewJPEG() Codec {
	return &imagingCodec{format: domain.FormatJPEG, encodeFn: encodeJPEG}
}

// NewPNG returns a PNG codec. Quality selects compression effort, and below
// 0.5 the image is dithered to a 256 colour palette.
func NewPNG() Codec {
	return &imagingCodec{format: domain.FormatPNG, encodeFn: encodePNG}
}

// NewGIF returns a GIF codec. Quality selects the palette size.
func NewGIF() Codec {
	return &imagingCodec{format: domain.FormatGIF, encodeFn: encodeGIF}
}

// NewTIFF returns a TIFF codec. TIFF output is lossless and ignores quality.
func NewTIFF() Codec {
	return &imagingCodec{format: domain.FormatTIFF, encodeFn: func(img image.Image, _ float64) ([]byte, error) {
		return encodeWith(img, imaging.TIFF)
	}}
}

// NewBMP returns a BMP codec. BMP output is uncompressed and ignores quality.
func NewBMP() Codec {
	return &imagingCodec{format: domain.FormatBMP, encodeFn: func(img image.Image, _ float64) ([]byte, error) {
		return encodeWith(img, imaging.BMP)
	}}
}

// NewWebP returns a decode-only WebP codec.
func NewWebP() Codec {
	return &imagingCodec{format: domain.FormatWebP}
}

func (c *imagingCodec) Format() domain.Format {
	return c.format
}

func (c *imagingCodec) CanEncode() bool {
	return c.encodeFn != nil
}

func (c *imagingCodec) Decode(data []byte) (image.Image, error) {
	if sniffed := domain.DetectFormat(data); sniffed != c.format {
		return nil, domain.Errorf(domain.KindCorruptInput, "decode "+c.format.String(),
			"content looks like %s", sniffed)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, domain.NewError(domain.KindCorruptInput, "decode "+c.format.String(), err)
	}
	return img, nil
}

func (c *imagingCodec) Encode(img image.Image, quality float64) ([]byte, error) {
	if c.encodeFn == nil {
		return nil, domain.Errorf(domain.KindUnsupportedFormat, "encode "+c.format.String(), "format is decode-only")
	}
	out, err := c.encodeFn(img, clampQuality(quality))
	if err != nil {
		return nil, domain.NewError(domain.KindInternalDecode, "encode "+c.format.String(), err)
	}
	return out, nil
}

func encodeWith(img image.Image, f imaging.Format, opts ...imaging.EncodeOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeJPEG(img image.Image, quality float64) ([]byte, error) {
	return encodeWith(flatten(img), imaging.JPEG, imaging.JPEGQuality(JPEGQuality(quality)))
}

func encodePNG(img image.Image, quality float64) ([]byte, error) {
	level := png.DefaultCompression
	if quality < 0.9 {
		level = png.BestCompression
	}
	if quality < 0.5 {
		b := img.Bounds()
		pal := image.NewPaletted(b, palette.Plan9)
		draw.FloydSteinberg.Draw(pal, b, img, b.Min)
		img = pal
	}
	return encodeWith(img, imaging.PNG, imaging.PNGCompressionLevel(level))
}

func encodeGIF(img image.Image, quality float64) ([]byte, error) {
	colors := 2 + int(math.Round(quality*254))
	return encodeWith(img, imaging.GIF, imaging.GIFNumColors(colors))
}

// JPEGQuality converts a [0, 1] quality to the JPEG encoder's 1-100 scale.
func JPEGQuality(quality float64) int {
	q := int(math.Round(clampQuality(quality) * 100))
	if q < 1 {
		q = 1
	}
	return q
}

func clampQuality(q float64) float64 {
	switch {
	case math.IsNaN(q), q < 0:
		return 0
	case q > 1:
		return 1
	default:
		return q
	}
}

// flatten composites images with transparency over white so that formats
// without alpha do not turn transparent areas black.
func flatten(img image.Image) image.Image {
	if opaque, ok := img.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		return img
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
