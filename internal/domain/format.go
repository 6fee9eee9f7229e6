package domain

import (
	"bytes"
	"strings"
)

// Format identifies a file encoding the engine can read or produce.
type Format int

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatPNG
	FormatGIF
	FormatTIFF
	FormatBMP
	FormatWebP
	FormatPDF
)

// String returns the canonical lower-case name of the format.
func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	case FormatGIF:
		return "gif"
	case FormatTIFF:
		return "tiff"
	case FormatBMP:
		return "bmp"
	case FormatWebP:
		return "webp"
	case FormatPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// MIME returns the media type of the format.
func (f Format) MIME() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatGIF:
		return "image/gif"
	case FormatTIFF:
		return "image/tiff"
	case FormatBMP:
		return "image/bmp"
	case FormatWebP:
		return "image/webp"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the preferred file extension including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatUnknown:
		return ".bin"
	default:
		return "." + f.String()
	}
}

// IsRaster reports whether the format is a pixel image.
func (f Format) IsRaster() bool {
	switch f {
	case FormatJPEG, FormatPNG, FormatGIF, FormatTIFF, FormatBMP, FormatWebP:
		return true
	default:
		return false
	}
}

// IsContainer reports whether the format is a page-layout document wrapper.
func (f Format) IsContainer() bool {
	return f == FormatPDF
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	parsed := ParseFormat(string(text))
	if parsed == FormatUnknown {
		return &Error{Kind: KindUnsupportedFormat, Op: "parse format", Detail: string(text)}
	}
	*f = parsed
	return nil
}

// ParseFormat normalises an extension, a MIME type or a format name.
// Unrecognised input yields FormatUnknown.
func ParseFormat(s string) Format {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, ".")
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	switch s {
	case "jpg", "jpeg", "jpe", "jfif", "image/jpeg", "image/jpg", "image/pjpeg":
		return FormatJPEG
	case "png", "image/png":
		return FormatPNG
	case "gif", "image/gif":
		return FormatGIF
	case "tif", "tiff", "image/tiff":
		return FormatTIFF
	case "bmp", "image/bmp", "image/x-ms-bmp":
		return FormatBMP
	case "webp", "image/webp":
		return FormatWebP
	case "pdf", "application/pdf", "application/x-pdf":
		return FormatPDF
	default:
		return FormatUnknown
	}
}

// DetectFormat sniffs the leading magic bytes of data.
func DetectFormat(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return FormatJPEG
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return FormatPNG
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return FormatGIF
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return FormatTIFF
	case bytes.HasPrefix(data, []byte("BM")):
		return FormatBMP
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return FormatWebP
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return FormatPDF
	default:
		return FormatUnknown
	}
}
