// Package parsers provides parsers for importing manual evidence from various formats.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// RawEvidence represents a manual evidence entry parsed from an external source before validation.
type RawEvidence struct {
	Type     string            `json:"type"`
	Status   string            `json:"status,omitempty"`
	Issues   []string          `json:"issues,omitempty"`
	Score    *int              `json:"score,omitempty"` // Pointer to distinguish 0 from unset
	Control  string            `json:"control,omitempty"`
	Notes    string            `json:"notes,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	LineNum  int               `json:"-"` // Line number in source file (set by parser)
}

// Parser defines the interface for parsing evidence from various formats.
type Parser interface {
	Parse(r io.Reader) ([]RawEvidence, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	return ForFormat(strings.TrimPrefix(ext, "."))
}
