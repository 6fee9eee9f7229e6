package extractor

import (
	"fmt"
	"sort"
	"time"

	"github.com/barasher/go-exiftool"
	"github.com/sirupsen/logrus"

	"docfit-go/internal/domain"
)

// exiftoolFields are copied into Metadata.Fields when present.
var exiftoolFields = []string{
	"MIMEType", "ImageSize", "XResolution", "YResolution", "ColorSpaceData",
	"ColorComponents", "BitsPerSample", "Producer", "Creator", "PDFVersion", "PageCount",
}

// ExiftoolExtractor shells out to a long-running exiftool process. It is
// optional: NewExiftoolExtractor fails when the binary is not installed.
type ExiftoolExtractor struct {
	et     *exiftool.Exiftool
	logger logrus.FieldLogger
}

// NewExiftoolExtractor starts exiftool. Call Close when done.
func NewExiftoolExtractor(logger logrus.FieldLogger) (*ExiftoolExtractor, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("failed to start exiftool: %w", err)
	}
	return &ExiftoolExtractor{et: et, logger: logger}, nil
}

// Extract reads the exiftool fields of filePath into md.
func (x *ExiftoolExtractor) Extract(filePath string, md *Metadata) error {
	results := x.et.ExtractMetadata(filePath)
	if len(results) == 0 {
		return fmt.Errorf("exiftool returned no metadata for %s", filePath)
	}
	fm := results[0]
	if fm.Err != nil {
		return fmt.Errorf("exiftool failed: %w", fm.Err)
	}

	if md.Fields == nil {
		md.Fields = make(map[string]string)
	}
	for _, key := range exiftoolFields {
		if v, ok := fm.Fields[key]; ok {
			md.Fields[key] = fmt.Sprint(v)
		}
	}

	if md.Date == nil {
		for _, key := range []string{"DateTimeOriginal", "CreateDate"} {
			s, err := fm.GetString(key)
			if err != nil {
				continue
			}
			if date := parseExiftoolDate(s); date != nil {
				md.Date = &ExtractedDate{Date: *date, Source: DateSourceExiftool}
				break
			}
		}
	}
	if md.Orientation == 0 {
		if v, err := fm.GetInt("Orientation"); err == nil {
			md.Orientation = int(v)
		}
	}

	x.logger.WithFields(logrus.Fields{
		"file":   filePath,
		"fields": len(md.Fields),
	}).Debug("Extracted metadata with exiftool")
	md.Sources = append(md.Sources, "exiftool")
	return nil
}

// SupportsFormat reports true for every known format.
func (x *ExiftoolExtractor) SupportsFormat(f domain.Format) bool {
	return f != domain.FormatUnknown
}

// GetPriority returns the priority of this extractor.
func (x *ExiftoolExtractor) GetPriority() int {
	return 50
}

// Close stops the exiftool process.
func (x *ExiftoolExtractor) Close() error {
	return x.et.Close()
}

func parseExiftoolDate(s string) *time.Time {
	for _, layout := range []string{"2006:01:02 15:04:05-07:00", "2006:01:02 15:04:05", "2006:01:02 15:04:05Z07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return parseEXIFDateTime(s)
}

// byPriority orders extractors from highest to lowest priority.
func byPriority(extractors []MetadataExtractor) {
	sort.SliceStable(extractors, func(i, j int) bool {
		return extractors[i].GetPriority() > extractors[j].GetPriority()
	})
}
