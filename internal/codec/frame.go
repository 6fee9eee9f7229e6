package codec

import (
	"image"
)

// Frame owns one decoded pixel buffer for the span of a single attempt.
type Frame struct {
	img image.Image
}

// Acquire decodes data with c. The caller must Release the frame.
func Acquire(c Codec, data []byte) (*Frame, error) {
	img, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	return &Frame{img: img}, nil
}

// Image returns the decoded image, or nil once released.
func (f *Frame) Image() image.Image {
	return f.img
}

// Release drops the reference to the pixel buffer. It is safe to call twice.
func (f *Frame) Release() {
	f.img = nil
}

// Transform rewrites a decoded image before it is encoded.
type Transform func(img image.Image) (image.Image, error)

// Transcode decodes data with src, applies fn and encodes the result with dst
// at quality. Every buffer acquired here is released before it returns.
func Transcode(src, dst Codec, data []byte, quality float64, fn Transform) ([]byte, error) {
	frame, err := Acquire(src, data)
	if err != nil {
		return nil, err
	}
	defer frame.Release()

	img := frame.Image()
	if fn != nil {
		img, err = fn(img)
		if err != nil {
			return nil, err
		}
	}
	return dst.Encode(img, quality)
}
