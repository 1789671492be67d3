// Package docx converts between Office Open XML word-processing documents
// and the IR. The container is a ZIP archive; content lives in
// word/document.xml with styles, numbering and relationships in sibling
// parts, all parsed with encoding/xml.
package docx

import (
	"archive/zip"
	"context"
	"fmt"
	"os"

	"github.com/markbear/markbear/internal/core/domain"
	"github.com/markbear/markbear/internal/core/ports/driven"
)

// Ensure Converter implements the interface.
var _ driven.Converter = (*Converter)(nil)

// Converter handles the word-processor format.
type Converter struct{}

// New creates a new DOCX converter.
func New() *Converter {
	return &Converter{}
}

// Format returns the format this converter handles.
func (c *Converter) Format() domain.Format {
	return domain.FormatDOCX
}

// Import maps the word-processing structure onto the IR: heading styles to
// Heading levels, runs to emphasis spans, numbered paragraphs to nested
// lists, and native tables to Table blocks. Unknown styles are repaired to
// plain paragraphs with a warning.
func (c *Converter) Import(_ context.Context, path string) (*domain.Document, []domain.Warning, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if os.IsNotExist(err) || os.IsPermission(err) {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)
		}
		return nil, nil, fmt.Errorf("%w: not a word-processing package: %v", domain.ErrSourceUnreadable, err)
	}
	defer zr.Close()

	r, err := newReader(&zr.Reader)
	if err != nil {
		return nil, nil, err
	}
	return r.document()
}

// Export writes a minimal OOXML package for the IR, applying the default
// heading styles and table borders from styles.
func (c *Converter) Export(_ context.Context, doc *domain.Document, styles *domain.StyleContext, path string) ([]domain.Warning, error) {
	w := newWriter(styles)
	warnings := w.build(doc)
	if err := w.writePackage(path); err != nil {
		return warnings, fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	return warnings, nil
}
