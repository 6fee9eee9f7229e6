package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"

	"docfit-go/internal/domain"
)

// report is the printable outcome of one transform.
type report struct {
	Input      string             `json:"input"`
	Output     string             `json:"output,omitempty"`
	InputSize  int64              `json:"input_size"`
	Format     domain.Format      `json:"final_format,omitempty"`
	Size       int64              `json:"final_size,omitempty"`
	Dimensions *domain.Dimensions `json:"dimensions,omitempty"`
	Strategy   string             `json:"strategy,omitempty"`
	Attempts   []domain.Attempt   `json:"attempts"`
	Warnings   []string           `json:"warnings,omitempty"`
	Error      string             `json:"error,omitempty"`
	ErrorKind  string             `json:"error_kind,omitempty"`
	Constraint string             `json:"constraint,omitempty"`
}

func newReport(input, output string, inputSize int64, res *domain.Result, err error) report {
	r := report{Input: input, Output: output, InputSize: inputSize, Attempts: []domain.Attempt{}}
	if res != nil {
		r.Format = res.FinalFormat
		r.Size = res.FinalSize
		r.Strategy = res.StrategyUsed
		r.Attempts = res.AttemptsLog
		r.Warnings = res.Warnings
		if !res.Dimensions.IsZero() {
			dims := res.Dimensions
			r.Dimensions = &dims
		}
	}
	if err != nil {
		r.Error = err.Error()
		r.ErrorKind = domain.KindOf(err).String()
		if attempts := domain.AttemptsOf(err); attempts != nil {
			r.Attempts = attempts
		}
		var e *domain.Error
		if errors.As(err, &e) {
			r.Constraint = string(e.Constraint)
		}
	}
	return r
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// writeText prints a one-block human summary of r.
func writeText(w io.Writer, r report) {
	if r.Error != "" {
		fmt.Fprintf(w, "%s: FAILED (%s) after %d attempts\n  %s\n", r.Input, r.ErrorKind, len(r.Attempts), r.Error)
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s -> %s\n", r.Input, r.Output)
	fmt.Fprintf(&b, "  %s %s -> %s", r.Format, humanize.IBytes(uint64(r.InputSize)), humanize.IBytes(uint64(r.Size)))
	if r.Dimensions != nil {
		fmt.Fprintf(&b, ", %s", r.Dimensions)
	}
	fmt.Fprintf(&b, ", strategy %s, %d attempts\n", r.Strategy, len(r.Attempts))
	for _, warning := range r.Warnings {
		fmt.Fprintf(&b, "  warning: %s\n", warning)
	}
	fmt.Fprint(w, b.String())
}
