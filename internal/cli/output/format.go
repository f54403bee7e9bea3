// Package output provides output formatting utilities for CLI commands.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Format represents the output format type.
type Format string

const (
	// FormatTable outputs data in a formatted table.
	FormatTable Format = "table"
	// FormatJSON outputs data as JSON.
	FormatJSON Format = "json"
	// FormatYAML outputs data as YAML.
	FormatYAML Format = "yaml"
)

// ParseFormat parses a string into a Format, returning an error if invalid.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %q (valid: table, json, yaml)", s)
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// Printer handles formatted output to a writer.
type Printer struct {
	out    io.Writer
	format Format
	color  bool
}

// NewPrinter creates a new Printer with the given options.
func NewPrinter(out io.Writer, format Format, color bool) *Printer {
	return &Printer{out: out, format: format, color: color}
}

// DefaultPrinter creates a Printer that writes to stdout with table format.
func DefaultPrinter() *Printer {
	return NewPrinter(os.Stdout, FormatTable, true)
}

// Print outputs data in the configured format. For table format, data
// should implement TableRenderer; otherwise it falls back to JSON.
func (p *Printer) Print(data any) error {
	switch p.format {
	case FormatTable:
		if renderer, ok := data.(TableRenderer); ok {
			return PrintTable(p.out, renderer)
		}
		return PrintJSON(p.out, data)
	case FormatJSON:
		return PrintJSON(p.out, data)
	case FormatYAML:
		return PrintYAML(p.out, data)
	default:
		return fmt.Errorf("unknown format: %s", p.format)
	}
}

// Success prints a success message, green when color is enabled.
func (p *Printer) Success(msg string) {
	if p.color {
		_, _ = fmt.Fprintf(p.out, "\033[32m%s\033[0m\n", msg)
	} else {
		_, _ = fmt.Fprintln(p.out, msg)
	}
}
