package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markbear/markbear/internal/core/domain"
	"github.com/markbear/markbear/internal/core/ports/driven"
)

// fakeConverter is a scriptable adapter for service tests.
type fakeConverter struct {
	format     domain.Format
	importDoc  *domain.Document
	importWarn []domain.Warning
	importErr  error
	exportWarn []domain.Warning
	exportErr  error

	gotDoc    *domain.Document
	gotStyles *domain.StyleContext
	gotPath   string
}

var _ driven.Converter = (*fakeConverter)(nil)

func (f *fakeConverter) Format() domain.Format { return f.format }

func (f *fakeConverter) Import(_ context.Context, path string) (*domain.Document, []domain.Warning, error) {
	f.gotPath = path
	return f.importDoc, f.importWarn, f.importErr
}

func (f *fakeConverter) Export(_ context.Context, doc *domain.Document, styles *domain.StyleContext, path string) ([]domain.Warning, error) {
	f.gotDoc = doc
	f.gotStyles = styles
	f.gotPath = path
	return f.exportWarn, f.exportErr
}

func TestConversion_Import(t *testing.T) {
	fake := &fakeConverter{
		format: domain.FormatDOCX,
		importDoc: &domain.Document{Blocks: []domain.Block{
			&domain.Heading{Level: 1, Content: []domain.Span{&domain.Text{Text: "Title"}}},
			&domain.Paragraph{Content: []domain.Span{&domain.Text{Text: "body"}}},
		}},
		importWarn: []domain.Warning{domain.Warningf("something was repaired")},
	}
	svc := NewConversion(fake)

	text, warnings, err := svc.Import(context.Background(), domain.FormatDOCX, "in.docx")
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nbody\n", text)
	assert.Len(t, warnings, 1)
	assert.Equal(t, "in.docx", fake.gotPath)
}

func TestConversion_ImportUnsupportedFormat(t *testing.T) {
	svc := NewConversion()

	_, _, err := svc.Import(context.Background(), domain.FormatDOCX, "in.docx")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	var ce *domain.ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, domain.DirectionImport, ce.Direction)
	assert.Equal(t, "in.docx", ce.Path)
}

func TestConversion_ImportAdapterErrorWrapped(t *testing.T) {
	fake := &fakeConverter{format: domain.FormatPDF, importErr: domain.ErrSourceUnreadable}
	svc := NewConversion(fake)

	_, _, err := svc.Import(context.Background(), domain.FormatPDF, "broken.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnreadable)

	var ce *domain.ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, domain.FormatPDF, ce.Format)
}

func TestConversion_Export(t *testing.T) {
	fake := &fakeConverter{format: domain.FormatXLSX}
	svc := NewConversion(fake)

	warnings, err := svc.Export(context.Background(), domain.FormatXLSX, "| a | b |\n| --- | --- |\n| 1 | 2 |\n", "out.xlsx")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "out.xlsx", fake.gotPath)
	require.NotNil(t, fake.gotDoc)
	assert.IsType(t, &domain.Table{}, fake.gotDoc.Blocks[0])
	require.NotNil(t, fake.gotStyles)
	assert.False(t, fake.gotStyles.TableBorders)
}

func TestConversion_ExportMergesWarnings(t *testing.T) {
	fake := &fakeConverter{
		format:     domain.FormatPPTX,
		exportWarn: []domain.Warning{domain.Warningf("table flattened")},
	}
	svc := NewConversion(fake)

	// Raw HTML in the markdown produces a parse warning too.
	warnings, err := svc.Export(context.Background(), domain.FormatPPTX, "<div>x</div>\n", "out.pptx")
	require.NoError(t, err)
	assert.Len(t, warnings, 2)
}

func TestConversion_ExportAdapterErrorWrapped(t *testing.T) {
	fake := &fakeConverter{format: domain.FormatDOCX, exportErr: domain.ErrWriteFailed}
	svc := NewConversion(fake)

	_, err := svc.Export(context.Background(), domain.FormatDOCX, "text\n", "out.docx")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWriteFailed)

	var ce *domain.ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, domain.DirectionExport, ce.Direction)
}

func TestConversion_ErrorWrappedOnlyOnce(t *testing.T) {
	inner := &domain.ConversionError{
		Format:    domain.FormatDOCX,
		Direction: domain.DirectionImport,
		Path:      "inner.docx",
		Err:       errors.New("boom"),
	}
	fake := &fakeConverter{format: domain.FormatDOCX, importErr: inner}
	svc := NewConversion(fake)

	_, _, err := svc.Import(context.Background(), domain.FormatDOCX, "outer.docx")
	var ce *domain.ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "inner.docx", ce.Path)
}
