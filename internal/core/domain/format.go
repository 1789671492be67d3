package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies one of the external document formats the engine
// converts to and from. It is a closed set; dispatch on Format is
// exhaustive and an unrecognised tag never reaches an adapter.
type Format int

const (
	// FormatDOCX is the word-processor format (paragraph/run/table model).
	FormatDOCX Format = iota

	// FormatXLSX is the spreadsheet format (sheet/row/cell grid model).
	FormatXLSX

	// FormatPPTX is the presentation format (slide/placeholder model).
	FormatPPTX

	// FormatPDF is the fixed-layout page format (export-oriented;
	// import extracts text and approximate structure).
	FormatPDF
)

// String returns the format tag used on the external surface.
func (f Format) String() string {
	switch f {
	case FormatDOCX:
		return "docx"
	case FormatXLSX:
		return "xlsx"
	case FormatPPTX:
		return "pptx"
	case FormatPDF:
		return "pdf"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	return "." + f.String()
}

// ParseFormat maps a format tag to a Format. This is the single place a
// string tag is interpreted; everything past it dispatches on the enum.
func ParseFormat(tag string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "docx":
		return FormatDOCX, nil
	case "xlsx":
		return FormatXLSX, nil
	case "pptx":
		return FormatPPTX, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, tag)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return 0, fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// Formats returns all supported formats in a stable order.
func Formats() []Format {
	return []Format{FormatDOCX, FormatXLSX, FormatPPTX, FormatPDF}
}

// Direction distinguishes the two conversion operations.
type Direction int

const (
	// DirectionImport converts external bytes to Markdown text.
	DirectionImport Direction = iota

	// DirectionExport converts Markdown text to an external file.
	DirectionExport
)

// String returns the lowercase direction name.
func (d Direction) String() string {
	if d == DirectionImport {
		return "import"
	}
	return "export"
}
