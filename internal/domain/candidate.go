package domain

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Candidate is one immutable version of the file moving through the pipeline.
// Each stage builds a new Candidate; the byte slice is never modified.
type Candidate struct {
	data   []byte
	format Format

	dimsOnce sync.Once
	dims     Dimensions
	dimsErr  error
}

// NewCandidate wraps data declared as format. An unknown declared format is
// resolved by sniffing the content.
func NewCandidate(data []byte, format Format) *Candidate {
	if format == FormatUnknown {
		format = DetectFormat(data)
	}
	return &Candidate{data: data, format: format}
}

// Bytes returns the raw content. Callers must not modify it.
func (c *Candidate) Bytes() []byte {
	return c.data
}

// Format returns the declared format.
func (c *Candidate) Format() Format {
	return c.format
}

// Size returns the byte length.
func (c *Candidate) Size() int64 {
	return int64(len(c.data))
}

// Dimensions returns the displayed pixel size of a raster candidate, honouring
// the EXIF orientation tag. It is computed on first use. Containers report
// zero dimensions.
func (c *Candidate) Dimensions() (Dimensions, error) {
	c.dimsOnce.Do(func() {
		if !c.format.IsRaster() {
			return
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(c.data))
		if err != nil {
			c.dimsErr = NewError(KindCorruptInput, "probe dimensions", err)
			return
		}
		c.dims = Dimensions{Width: cfg.Width, Height: cfg.Height}
		if c.format == FormatJPEG && swapsAxes(orientation(c.data)) {
			c.dims = Dimensions{Width: cfg.Height, Height: cfg.Width}
		}
	})
	return c.dims, c.dimsErr
}

// orientation returns the EXIF orientation tag value, or 1 when absent.
func orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return v
}

// Orientations 5-8 rotate the image by 90 degrees.
func swapsAxes(o int) bool {
	return o >= 5 && o <= 8
}
