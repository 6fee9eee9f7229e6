// Package extractor reads descriptive metadata for the inspect command.
package extractor

import (
	"time"

	"docfit-go/internal/domain"
)

// MetadataExtractor is the interface for reading metadata from files.
type MetadataExtractor interface {
	// Extract fills the fields it knows about into md.
	Extract(filePath string, md *Metadata) error
	SupportsFormat(f domain.Format) bool
	GetPriority() int
}

// CachedMetadataExtractor extends MetadataExtractor with caching capabilities.
type CachedMetadataExtractor interface {
	MetadataExtractor
	ClearCache()
	GetCacheStats() CacheStats
}

// Metadata describes one file.
type Metadata struct {
	Path        string            `json:"path"`
	Format      domain.Format     `json:"format"`
	Size        int64             `json:"size"`
	Dimensions  domain.Dimensions `json:"dimensions"`
	Embedded    domain.Format     `json:"embedded_format,omitempty"`
	Orientation int               `json:"orientation,omitempty"`
	Date        *ExtractedDate    `json:"date,omitempty"`
	Camera      string            `json:"camera,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
	Sources     []string          `json:"sources"`
}

// CacheStats contains statistics about cache performance.
type CacheStats struct {
	Hits         int64
	Misses       int64
	Size         int
	HitRate      float64
	TotalQueries int64
}

// DateSource represents the source of the extracted date.
type DateSource int

const (
	DateSourceUnknown DateSource = iota
	DateSourceEXIFDateTime
	DateSourceEXIFDateTimeOriginal
	DateSourceExiftool
	DateSourceFileModTime
)

// ExtractedDate contains the extracted date and its source.
type ExtractedDate struct {
	Date   time.Time  `json:"date"`
	Source DateSource `json:"source"`
}

// String returns a human-readable description of the date source.
func (ds DateSource) String() string {
	switch ds {
	case DateSourceEXIFDateTime:
		return "EXIF DateTime"
	case DateSourceEXIFDateTimeOriginal:
		return "EXIF DateTimeOriginal"
	case DateSourceExiftool:
		return "exiftool"
	case DateSourceFileModTime:
		return "File Modification Time"
	default:
		return "Unknown"
	}
}

// MarshalText renders the source by name.
func (ds DateSource) MarshalText() ([]byte, error) {
	return []byte(ds.String()), nil
}
