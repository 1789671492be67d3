// Package xlsx converts between Office Open XML workbooks and the IR.
// Every sheet maps to one table; the first grid row is the header. The
// container is parsed with archive/zip and encoding/xml.
package xlsx

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

// Converter handles the spreadsheet format.
type Converter struct{}

// New creates a new XLSX converter.
func New() *Converter {
	return &Converter{}
}

// Format returns the format this converter handles.
func (c *Converter) Format() domain.Format {
	return domain.FormatXLSX
}

// Import reads each worksheet into a table, squaring ragged rows with
// warnings. A sheet-name heading precedes each table only when the workbook
// has more than one sheet. Formulas flatten to their cached value.
func (c *Converter) Import(_ context.Context, path string) (*domain.Document, []domain.Warning, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if os.IsNotExist(err) || os.IsPermission(err) {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)
		}
		return nil, nil, fmt.Errorf("%w: not a spreadsheet package: %v", domain.ErrSourceUnreadable, err)
	}
	defer zr.Close()

	r, err := newReader(&zr.Reader)
	if err != nil {
		return nil, nil, err
	}
	return r.document()
}

// Export writes one sheet per table. The nearest preceding heading names
// the sheet; other block kinds are dropped with a warning. A document with
// no tables yields a single sheet with one block's text per row.
func (c *Converter) Export(_ context.Context, doc *domain.Document, _ *domain.StyleContext, path string) ([]domain.Warning, error) {
	w := newWriter()
	warnings := w.build(doc)
	if err := w.writePackage(path); err != nil {
		return warnings, fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	return warnings, nil
}
