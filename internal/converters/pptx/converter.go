// Package pptx converts between Office Open XML presentations and the IR.
// Slides map to heading-delimited sections: the title placeholder carries
// the section heading, body placeholders carry paragraphs and lists. The
// container is parsed with archive/zip and encoding/xml.
package pptx

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

// Converter handles the presentation format.
type Converter struct{}

// New creates a new PPTX converter.
func New() *Converter {
	return &Converter{}
}

// Format returns the format this converter handles.
func (c *Converter) Format() domain.Format {
	return domain.FormatPPTX
}

// Import walks slides in presentation order: the title placeholder becomes
// a level-1 heading, bulleted and auto-numbered body paragraphs become
// lists, plain ones become paragraphs. Speaker notes are dropped with a
// warning.
func (c *Converter) Import(_ context.Context, path string) (*domain.Document, []domain.Warning, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if os.IsNotExist(err) || os.IsPermission(err) {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)
		}
		return nil, nil, fmt.Errorf("%w: not a presentation package: %v", domain.ErrSourceUnreadable, err)
	}
	defer zr.Close()

	r, err := newReader(&zr.Reader)
	if err != nil {
		return nil, nil, err
	}
	return r.document()
}

// Export splits the document into slides at headings of the first-seen
// level or shallower. Deeper headings become bold body lines; tables
// flatten to text lines with a warning.
func (c *Converter) Export(_ context.Context, doc *domain.Document, styles *domain.StyleContext, path string) ([]domain.Warning, error) {
	w := newWriter(styles)
	warnings := w.build(doc)
	if err := w.writePackage(path); err != nil {
		return warnings, fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	return warnings, nil
}
