package extractor

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/sirupsen/logrus"

	"docfit-go/internal/domain"
	logpkg "docfit-go/internal/logger"
)

// EXIFExtractor reads orientation, capture date and camera from EXIF blocks.
type EXIFExtractor struct {
	logger logrus.FieldLogger
	cache  *sync.Map
	stats  CacheStats
	mutex  sync.RWMutex
}

// NewEXIFExtractor returns a new EXIFExtractor.
func NewEXIFExtractor(logger logrus.FieldLogger) *EXIFExtractor {
	return &EXIFExtractor{
		logger: logpkg.OrDiscard(logger),
		cache:  &sync.Map{},
	}
}

// exifInfo is the cached subset of an EXIF block.
type exifInfo struct {
	orientation int
	date        *ExtractedDate
	camera      string
}

// Extract decodes the EXIF block of filePath into md.
func (e *EXIFExtractor) Extract(filePath string, md *Metadata) error {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	key := e.getCacheKey(filePath, fileInfo)
	if value, ok := e.cache.Load(key); ok {
		e.incrementCacheHits()
		e.apply(value.(exifInfo), md)
		return nil
	}
	e.incrementCacheMisses()

	info, err := e.decode(filePath)
	if err != nil {
		return err
	}
	e.cache.Store(key, info)
	e.apply(info, md)
	return nil
}

// SupportsFormat reports whether the format can carry EXIF.
func (e *EXIFExtractor) SupportsFormat(f domain.Format) bool {
	return f == domain.FormatJPEG || f == domain.FormatTIFF
}

// GetPriority returns the priority of this extractor.
func (e *EXIFExtractor) GetPriority() int {
	return 100
}

// ClearCache removes all entries from the internal cache and resets statistics.
func (e *EXIFExtractor) ClearCache() {
	e.cache = &sync.Map{}
	e.mutex.Lock()
	e.stats = CacheStats{}
	e.mutex.Unlock()
}

// GetCacheStats returns cache statistics for this extractor.
func (e *EXIFExtractor) GetCacheStats() CacheStats {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	stats := e.stats
	if stats.TotalQueries > 0 {
		stats.HitRate = float64(stats.Hits) / float64(stats.TotalQueries)
	}
	e.cache.Range(func(_, _ any) bool {
		stats.Size++
		return true
	})
	return stats
}

func (e *EXIFExtractor) apply(info exifInfo, md *Metadata) {
	if info.orientation > 0 {
		md.Orientation = info.orientation
	}
	if info.date != nil && md.Date == nil {
		md.Date = info.date
	}
	if info.camera != "" {
		md.Camera = info.camera
	}
	md.Sources = append(md.Sources, "exif")
}

func (e *EXIFExtractor) decode(filePath string) (exifInfo, error) {
	var info exifInfo

	file, err := os.Open(filePath)
	if err != nil {
		return info, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	x, err := exif.Decode(file)
	if err != nil {
		return info, fmt.Errorf("failed to decode EXIF: %w", err)
	}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			info.orientation = v
		}
	}

	if tm, err := x.DateTime(); err == nil {
		e.logger.Debugf("Extracted DateTime from EXIF: %v for file %s", tm, filePath)
		info.date = &ExtractedDate{Date: tm, Source: DateSourceEXIFDateTime}
	} else if field, err := x.Get(exif.DateTimeOriginal); err == nil {
		if dateStr, err := field.StringVal(); err == nil {
			if date := parseEXIFDateTime(dateStr); date != nil {
				info.date = &ExtractedDate{Date: *date, Source: DateSourceEXIFDateTimeOriginal}
			}
		}
	}

	var camera []string
	for _, name := range []exif.FieldName{exif.Make, exif.Model} {
		if field, err := x.Get(name); err == nil {
			if s, err := field.StringVal(); err == nil && strings.TrimSpace(s) != "" {
				camera = append(camera, strings.TrimSpace(s))
			}
		}
	}
	info.camera = strings.Join(camera, " ")
	return info, nil
}

// parseEXIFDateTime parses an EXIF date time string. Returns nil if parsing fails.
func parseEXIFDateTime(dateStr string) *time.Time {
	if dateStr == "" {
		return nil
	}

	formats := []string{
		"2006:01:02 15:04:05",
		"2006-01-02 15:04:05",
		"2006:01:02",
		time.RFC3339,
	}

	for _, format := range formats {
		if date, err := time.Parse(format, dateStr); err == nil {
			return &date
		}
	}
	return nil
}

// getCacheKey returns a cache key for the given file path and file info.
func (e *EXIFExtractor) getCacheKey(filePath string, fileInfo os.FileInfo) string {
	return fmt.Sprintf("%s:%d:%d", filePath, fileInfo.Size(), fileInfo.ModTime().Unix())
}

func (e *EXIFExtractor) incrementCacheHits() {
	e.mutex.Lock()
	e.stats.Hits++
	e.stats.TotalQueries++
	e.mutex.Unlock()
}

func (e *EXIFExtractor) incrementCacheMisses() {
	e.mutex.Lock()
	e.stats.Misses++
	e.stats.TotalQueries++
	e.mutex.Unlock()
}
