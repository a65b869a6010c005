// Package reporter renders scan and delete results for the CLI:
// a colored table for humans, JSON and CSV for pipelines.
package reporter

import (
	"fmt"
	"io"
)

// Format selects an output renderer.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, FormatJSON, FormatCSV:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown output format %q (want table, json or csv)", s)
}

// Reporter renders reports in one format to one destination.
type Reporter struct {
	w      io.Writer
	format Format
}

// New builds a reporter.
func New(w io.Writer, format Format) *Reporter {
	return &Reporter{w: w, format: format}
}
