// Package testutil builds deterministic images for tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
)

// Noise returns a w x h gradient overlaid with seeded noise. Its encoded size
// responds strongly to encoder quality.
func Noise(w, h int, seed int64) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := uint8(rng.Intn(96))
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x*255/max(w, 1))/2 + n,
				G: uint8(y*255/max(h, 1))/2 + n,
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}

// JPEG encodes img at the given 1-100 quality.
func JPEG(img image.Image, quality int) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// PNG encodes img losslessly.
func PNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
