package container

import (
	"bytes"
	"io"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"docfit-go/internal/domain"
)

var disableConfigDir sync.Once

// readerConfig returns a pdfcpu configuration for read-only extraction. The
// on-disk pdfcpu config directory is never created.
func readerConfig() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Extract returns the largest JPEG image embedded in a PDF. Image XObjects
// are resolved through the cross-reference table, so indirect lengths and
// filter chains ending in DCTDecode are handled. Documents that cannot be
// parsed are CorruptInput; documents without a JPEG image are
// UnsupportedFormat.
func Extract(pdf []byte) ([]byte, error) {
	pages, err := api.ExtractImagesRaw(bytes.NewReader(pdf), nil, readerConfig())
	if err != nil {
		return nil, domain.NewError(domain.KindCorruptInput, "extract", err)
	}

	var best []byte
	for _, images := range pages {
		for _, img := range images {
			if img.FileType != "jpg" || img.Reader == nil {
				continue
			}
			data, err := io.ReadAll(img)
			if err != nil {
				return nil, domain.NewError(domain.KindCorruptInput, "extract", err)
			}
			if bytes.HasPrefix(data, jpegMagic) && len(data) > len(best) {
				best = data
			}
		}
	}

	if best == nil {
		return nil, domain.Errorf(domain.KindUnsupportedFormat, "extract", "pdf has no embedded JPEG image")
	}
	return best, nil
}

var jpegMagic = []byte{0xFF, 0xD8}
