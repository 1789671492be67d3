// Package pdf converts between fixed-layout PDF files and the IR. Export
// renders through gofpdf; import recovers structure from text fragments
// with font-size heuristics, since PDF stores layout, not structure.
package pdf

import (
	"context"
	"fmt"

	"github.com/markbear/markbear/internal/core/domain"
	"github.com/markbear/markbear/internal/core/ports/driven"
)

// DefaultHeadingRatio is the font-size multiple over body text above which
// an imported line is read as a heading. It is a tunable heuristic, not a
// correctness contract.
const DefaultHeadingRatio = 1.3

// Ensure Converter implements the interface.
var _ driven.Converter = (*Converter)(nil)

// Converter handles the fixed-layout format.
type Converter struct {
	// HeadingRatio overrides DefaultHeadingRatio for import heuristics.
	HeadingRatio float64
}

// New creates a new PDF converter with default heuristics.
func New() *Converter {
	return &Converter{HeadingRatio: DefaultHeadingRatio}
}

// Format returns the format this converter handles.
func (c *Converter) Format() domain.Format {
	return domain.FormatPDF
}

// Import extracts text fragments, groups them into lines and paragraphs by
// position, and promotes lines whose font size stands out to headings.
// Odd layouts degrade to plain paragraphs; only an unreadable file fails.
func (c *Converter) Import(_ context.Context, path string) (doc *domain.Document, warnings []domain.Warning, err error) {
	ratio := c.HeadingRatio
	if ratio <= 1 {
		ratio = DefaultHeadingRatio
	}
	return importFile(path, ratio)
}

// Export renders blocks top to bottom with automatic page breaks, sized
// from the style context.
func (c *Converter) Export(_ context.Context, doc *domain.Document, styles *domain.StyleContext, path string) ([]domain.Warning, error) {
	w := newWriter(styles)
	warnings := w.build(doc)
	if err := w.writeFile(path); err != nil {
		return warnings, fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	return warnings, nil
}
