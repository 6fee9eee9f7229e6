// Package codec decodes and encodes raster images. It is the only package that
// holds decoded pixel buffers.
package codec

import (
	"image"

	"docfit-go/internal/domain"
)

// Codec decodes and encodes one raster format.
type Codec interface {
	// Format returns the raster format handled by the codec.
	Format() domain.Format
	// Decode parses data as the codec's format.
	// It fails with CorruptInput when the bytes are not of that format.
	Decode(data []byte) (image.Image, error)
	// Encode serialises img. Quality is in [0, 1]; lossless formats map it to
	// compression effort or palette size.
	Encode(img image.Image, quality float64) ([]byte, error)
	// CanEncode reports whether Encode is implemented.
	CanEncode() bool
}

// Registry maps formats to codecs. It is read-only after construction and
// safe for concurrent use.
type Registry struct {
	codecs map[domain.Format]Codec
}

// NewRegistry returns a registry holding the given codecs. Later codecs
// replace earlier ones for the same format.
func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{codecs: make(map[domain.Format]Codec, len(codecs))}
	for _, c := range codecs {
		r.codecs[c.Format()] = c
	}
	return r
}

// DefaultRegistry returns the imaging-backed codecs for every raster format.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewJPEG(),
		NewPNG(),
		NewGIF(),
		NewTIFF(),
		NewBMP(),
		NewWebP(),
	)
}

// Lookup returns the codec for f.
func (r *Registry) Lookup(f domain.Format) (Codec, error) {
	c, ok := r.codecs[f]
	if !ok {
		return nil, domain.Errorf(domain.KindUnsupportedFormat, "lookup codec", "no codec for %s", f)
	}
	return c, nil
}

// Supports reports whether a codec is registered for f.
func (r *Registry) Supports(f domain.Format) bool {
	_, ok := r.codecs[f]
	return ok
}

// CanEncode reports whether a registered codec can write f.
func (r *Registry) CanEncode(f domain.Format) bool {
	c, ok := r.codecs[f]
	return ok && c.CanEncode()
}
