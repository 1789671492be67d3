package xlsx

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markbear/markbear/internal/core/domain"
)

// writeTestXLSX writes a minimal workbook package to a temp file and
// returns its path.
func writeTestXLSX(t *testing.T, parts map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.xlsx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range parts {
		part, err := w.Create(name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func workbookParts(sheetNames []string, sheetXMLs []string, shared string) map[string]string {
	parts := map[string]string{}

	workbook := `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets>`
	rels := `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`
	for i, name := range sheetNames {
		workbook += `<sheet name="` + name + `" sheetId="` + string(rune('1'+i)) + `" r:id="rId` + string(rune('1'+i)) + `"/>`
		rels += `<Relationship Id="rId` + string(rune('1'+i)) + `" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet` + string(rune('1'+i)) + `.xml"/>`
		parts["xl/worksheets/sheet"+string(rune('1'+i))+".xml"] = sheetXMLs[i]
	}
	parts["xl/workbook.xml"] = workbook + `</sheets></workbook>`
	parts["xl/_rels/workbook.xml.rels"] = rels + `</Relationships>`
	if shared != "" {
		parts["xl/sharedStrings.xml"] = shared
	}
	return parts
}

func gridSheet(rows string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>` + rows + `</sheetData></worksheet>`
}

func TestNew(t *testing.T) {
	converter := New()
	require.NotNil(t, converter)
	assert.Equal(t, domain.FormatXLSX, converter.Format())
}

func TestImport_SingleSheetNoHeading(t *testing.T) {
	converter := New()
	shared := `<?xml version="1.0" encoding="UTF-8"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><si><t>Name</t></si><si><t>Age</t></si><si><t>Alice</t></si><si><t>Bob</t></si></sst>`
	rows := `<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>
<row r="2"><c r="A2" t="s"><v>2</v></c><c r="B2"><v>30</v></c></row>
<row r="3"><c r="A3" t="s"><v>3</v></c><c r="B3"><v>25</v></c></row>`
	path := writeTestXLSX(t, workbookParts([]string{"People"}, []string{gridSheet(rows)}, shared))

	doc, warnings, err := converter.Import(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	// A single-sheet workbook yields just the table, no sheet heading.
	require.Len(t, doc.Blocks, 1)
	table, ok := doc.Blocks[0].(*domain.Table)
	require.True(t, ok)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, domain.Cell{&domain.Text{Text: "Name"}}, table.Rows[0][0])
	assert.Equal(t, domain.Cell{&domain.Text{Text: "30"}}, table.Rows[1][1])
	assert.Equal(t, domain.Cell{&domain.Text{Text: "Bob"}}, table.Rows[2][0])
}

func TestImport_MultiSheetHeadings(t *testing.T) {
	converter := New()
	sheet := gridSheet(`<row r="1"><c r="A1" t="inlineStr"><is><t>x</t></is></c></row>`)
	path := writeTestXLSX(t, workbookParts([]string{"First", "Second"}, []string{sheet, sheet}, ""))

	doc, _, err := converter.Import(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, doc.Blocks, 4)
	assert.Equal(t, &domain.Heading{Level: 2, Content: []domain.Span{&domain.Text{Text: "First"}}}, doc.Blocks[0])
	assert.IsType(t, &domain.Table{}, doc.Blocks[1])
	assert.Equal(t, &domain.Heading{Level: 2, Content: []domain.Span{&domain.Text{Text: "Second"}}}, doc.Blocks[2])
}

func TestImport_FormulaUsesCachedValue(t *testing.T) {
	converter := New()
	rows := `<row r="1"><c r="A1"><f>1+1</f><v>2</v></c></row>`
	path := writeTestXLSX(t, workbookParts([]string{"Calc"}, []string{gridSheet(rows)}, ""))

	doc, _, err := converter.Import(context.Background(), path)
	require.NoError(t, err)

	table := doc.Blocks[0].(*domain.Table)
	assert.Equal(t, domain.Cell{&domain.Text{Text: "2"}}, table.Rows[0][0])
}

func TestImport_SparseRowKeepsColumnGaps(t *testing.T) {
	converter := New()
	rows := `<row r="1"><c r="A1" t="inlineStr"><is><t>a</t></is></c><c r="C1" t="inlineStr"><is><t>c</t></is></c></row>`
	path := writeTestXLSX(t, workbookParts([]string{"Gaps"}, []string{gridSheet(rows)}, ""))

	doc, _, err := converter.Import(context.Background(), path)
	require.NoError(t, err)

	table := doc.Blocks[0].(*domain.Table)
	require.Len(t, table.Rows[0], 3)
	assert.Equal(t, domain.Cell(nil), table.Rows[0][1])
	assert.Equal(t, domain.Cell{&domain.Text{Text: "c"}}, table.Rows[0][2])
}

func TestImport_RaggedRowsSquared(t *testing.T) {
	converter := New()
	rows := `<row r="1"><c r="A1" t="inlineStr"><is><t>h1</t></is></c><c r="B1" t="inlineStr"><is><t>h2</t></is></c></row>
<row r="2"><c r="A2" t="inlineStr"><is><t>only</t></is></c></row>`
	path := writeTestXLSX(t, workbookParts([]string{"Ragged"}, []string{gridSheet(rows)}, ""))

	doc, warnings, err := converter.Import(context.Background(), path)
	require.NoError(t, err)
	assert.NotEmpty(t, warnings)

	table := doc.Blocks[0].(*domain.Table)
	require.Len(t, table.Rows[1], 2)
}

func TestImport_EmptySheetSkippedWithWarning(t *testing.T) {
	converter := New()
	path := writeTestXLSX(t, workbookParts([]string{"Empty"}, []string{gridSheet("")}, ""))

	doc, warnings, err := converter.Import(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, doc.Blocks)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0].Message, "Empty")
}

func TestImport_MissingWorkbookPart(t *testing.T) {
	converter := New()
	path := writeTestXLSX(t, map[string]string{"xl/styles.xml": "<x/>"})

	_, _, err := converter.Import(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrUnsupportedVariant)
}

func TestImport_NotAZip(t *testing.T) {
	converter := New()
	path := filepath.Join(t.TempDir(), "junk.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0o644))

	_, _, err := converter.Import(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrSourceUnreadable)
}

func TestExport_RoundTripSingleTable(t *testing.T) {
	converter := New()
	original := &domain.Document{Blocks: []domain.Block{
		&domain.Table{
			Rows: [][]domain.Cell{
				{{&domain.Text{Text: "Name"}}, {&domain.Text{Text: "Age"}}},
				{{&domain.Text{Text: "Alice"}}, {&domain.Text{Text: "30"}}},
				{{&domain.Text{Text: "Bob"}}, {&domain.Text{Text: "25"}}},
			},
			Alignments: []domain.Alignment{domain.AlignNone, domain.AlignNone},
		},
	}}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	warnings, err := converter.Export(context.Background(), original, nil, path)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	got, warnings, err := converter.Import(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, original, got)
}

func TestExport_HeadingNamesSheet(t *testing.T) {
	converter := New()
	doc := &domain.Document{Blocks: []domain.Block{
		&domain.Heading{Level: 2, Content: []domain.Span{&domain.Text{Text: "People"}}},
		&domain.Table{Rows: [][]domain.Cell{{{&domain.Text{Text: "x"}}}}, Alignments: []domain.Alignment{domain.AlignNone}},
		&domain.Heading{Level: 2, Content: []domain.Span{&domain.Text{Text: "Places"}}},
		&domain.Table{Rows: [][]domain.Cell{{{&domain.Text{Text: "y"}}}}, Alignments: []domain.Alignment{domain.AlignNone}},
	}}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	_, err := converter.Export(context.Background(), doc, nil, path)
	require.NoError(t, err)

	got, _, err := converter.Import(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestExport_NonTableBlocksDroppedWithWarning(t *testing.T) {
	converter := New()
	doc := &domain.Document{Blocks: []domain.Block{
		&domain.Paragraph{Content: []domain.Span{&domain.Text{Text: "intro"}}},
		&domain.Table{Rows: [][]domain.Cell{{{&domain.Text{Text: "x"}}}}, Alignments: []domain.Alignment{domain.AlignNone}},
	}}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	warnings, err := converter.Export(context.Background(), doc, nil, path)
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0].Message, "dropped")
}

func TestExport_NoTablesFallsBackToTextRows(t *testing.T) {
	converter := New()
	doc := &domain.Document{Blocks: []domain.Block{
		&domain.Heading{Level: 1, Content: []domain.Span{&domain.Text{Text: "Title"}}},
		&domain.Paragraph{Content: []domain.Span{&domain.Text{Text: "first"}}},
		&domain.Paragraph{Content: []domain.Span{&domain.Text{Text: "second"}}},
	}}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	warnings, err := converter.Export(context.Background(), doc, nil, path)
	require.NoError(t, err)
	require.NotEmpty(t, warnings)

	got, _, err := converter.Import(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, got.Blocks, 1)
	table := got.Blocks[0].(*domain.Table)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, domain.Cell{&domain.Text{Text: "Title"}}, table.Rows[0][0])
	assert.Equal(t, domain.Cell{&domain.Text{Text: "second"}}, table.Rows[2][0])
}

func TestSheetNameSanitized(t *testing.T) {
	w := newWriter()
	w.sheets = append(w.sheets, sheet{name: "Data"})

	assert.Equal(t, "a b c", w.sheetName("a[b]c"))
	assert.Equal(t, "Sheet2", w.sheetName(""))
	assert.Len(t, w.sheetName("this heading is far far far too long for a worksheet name"), maxSheetName)
}

func TestSheetNameTruncatesByCharacters(t *testing.T) {
	w := newWriter()

	name := w.sheetName("Ежеквартальный отчёт по продажам и расходам")
	assert.Equal(t, maxSheetName, len([]rune(name)))
	assert.True(t, utf8.ValidString(name))
}

func TestExport_PackageHasRequiredParts(t *testing.T) {
	converter := New()
	doc := &domain.Document{Blocks: []domain.Block{
		&domain.Table{Rows: [][]domain.Cell{{{&domain.Text{Text: "x"}}}}, Alignments: []domain.Alignment{domain.AlignNone}},
	}}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	_, err := converter.Export(context.Background(), doc, nil, path)
	require.NoError(t, err)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	parts := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		parts[f.Name] = string(data)
	}

	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "xl/workbook.xml", "xl/_rels/workbook.xml.rels", "xl/worksheets/sheet1.xml"} {
		assert.Contains(t, parts, name)
	}
	assert.Contains(t, parts["_rels/.rels"], `Target="xl/workbook.xml"`)
	assert.Contains(t, parts["_rels/.rels"], "relationships/officeDocument")
}
