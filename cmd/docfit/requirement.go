package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"docfit-go/internal/domain"
)

// requirementFlags collects a Requirement from the command line.
type requirementFlags struct {
	file       string
	format     string
	category   string
	minSize    string
	maxSize    string
	dimensions string
	fit        string
	priority   string
}

func (f *requirementFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.file, "requirement", "", "JSON file holding the requirement; flags override its fields")
	fs.StringVarP(&f.format, "format", "f", "", "accepted output format (jpeg, png, gif, tiff, bmp, pdf)")
	fs.StringVar(&f.category, "category", "", "document category (photo, signature, thumb_impression, identity_document, other)")
	fs.StringVar(&f.minSize, "min-size", "", "minimum output size, e.g. 10KB or 20KiB")
	fs.StringVar(&f.maxSize, "max-size", "", "maximum output size, e.g. 200KB or 1MiB")
	fs.StringVar(&f.dimensions, "dimensions", "", "target pixel size WIDTHxHEIGHT")
	fs.StringVar(&f.fit, "fit", "", "dimension mode: max (bounding box) or exact (pad to size)")
	fs.StringVar(&f.priority, "priority", "", "quality priority: quality, balanced or size")
}

// build resolves the flags into a validated Requirement.
func (f *requirementFlags) build() (domain.Requirement, error) {
	var req domain.Requirement
	if f.file != "" {
		data, err := os.ReadFile(f.file)
		if err != nil {
			return req, fmt.Errorf("read requirement: %w", err)
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return req, fmt.Errorf("parse requirement: %w", err)
		}
	}

	if f.format != "" {
		req.AcceptedFormat = domain.ParseFormat(f.format)
		if req.AcceptedFormat == domain.FormatUnknown {
			return req, fmt.Errorf("unknown format %q", f.format)
		}
	}
	if f.category != "" {
		req.Category = domain.Category(strings.ToLower(f.category))
	}
	if f.fit != "" {
		req.Fit = domain.FitMode(strings.ToLower(f.fit))
	}
	if f.priority != "" {
		req.QualityPriority = domain.Priority(strings.ToLower(f.priority))
	}

	var err error
	if req.MinSizeBytes, err = parseSize(f.minSize, req.MinSizeBytes); err != nil {
		return req, fmt.Errorf("--min-size: %w", err)
	}
	if req.MaxSizeBytes, err = parseSize(f.maxSize, req.MaxSizeBytes); err != nil {
		return req, fmt.Errorf("--max-size: %w", err)
	}
	if f.dimensions != "" {
		dims, err := parseDimensions(f.dimensions)
		if err != nil {
			return req, fmt.Errorf("--dimensions: %w", err)
		}
		req.TargetDimensions = &dims
	}

	return req, req.Validate()
}

// parseSize accepts humanized sizes ("200KB", "1.5MiB") or plain byte counts.
// An empty string keeps current.
func parseSize(s string, current *int64) (*int64, error) {
	if s == "" {
		return current, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return nil, err
	}
	return domain.Bytes(int64(n)), nil
}

func parseDimensions(s string) (domain.Dimensions, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return domain.Dimensions{}, fmt.Errorf("want WIDTHxHEIGHT, got %q", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return domain.Dimensions{}, fmt.Errorf("width: %w", err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return domain.Dimensions{}, fmt.Errorf("height: %w", err)
	}
	return domain.Dimensions{Width: width, Height: height}, nil
}
