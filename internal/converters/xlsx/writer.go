package xlsx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/markbear/markbear/internal/core/domain"
	"github.com/markbear/markbear/internal/safeio"
)

// Worksheet names are capped by the format.
const maxSheetName = 31

// writer collects sheets from the IR and assembles the package.
type writer struct {
	sheets   []sheet
	warnings []domain.Warning
}

type sheet struct {
	name string
	rows [][]string
}

func newWriter() *writer {
	return &writer{}
}

func (w *writer) warnf(format string, args ...any) {
	w.warnings = append(w.warnings, domain.Warningf(format, args...))
}

// build turns each table into a sheet named after the nearest preceding
// heading. Other blocks are dropped with a warning; if the document holds
// no tables at all, its blocks flatten to one text row each on a single
// sheet.
func (w *writer) build(doc *domain.Document) []domain.Warning {
	pendingName := ""
	for _, blk := range doc.Blocks {
		switch v := blk.(type) {
		case *domain.Heading:
			pendingName = domain.PlainText(v.Content)
		case *domain.Table:
			rows, warns := domain.SquareTable(v.Rows)
			w.warnings = append(w.warnings, warns...)
			var grid [][]string
			for _, row := range rows {
				line := make([]string, len(row))
				for i, cell := range row {
					line[i] = domain.PlainText(cell)
				}
				grid = append(grid, line)
			}
			w.sheets = append(w.sheets, sheet{name: w.sheetName(pendingName), rows: grid})
			pendingName = ""
		default:
			w.warnf("%T has no spreadsheet representation and was dropped", blk)
		}
	}

	if len(w.sheets) == 0 {
		w.warnings = nil
		w.warnf("document has no tables; block text written one row per block")
		var grid [][]string
		for _, blk := range doc.Blocks {
			if text := blockText(blk); text != "" {
				grid = append(grid, []string{text})
			}
		}
		w.sheets = append(w.sheets, sheet{name: "Sheet1", rows: grid})
	}
	return w.warnings
}

// blockText flattens a block to a single line for the no-table fallback.
func blockText(blk domain.Block) string {
	switch v := blk.(type) {
	case *domain.Heading:
		return domain.PlainText(v.Content)
	case *domain.Paragraph:
		return domain.PlainText(v.Content)
	case *domain.CodeBlock:
		return strings.ReplaceAll(strings.TrimRight(v.Text, "\n"), "\n", " ")
	case *domain.Blockquote:
		var parts []string
		for _, child := range v.Blocks {
			if t := blockText(child); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, " ")
	case *domain.BulletList:
		return listText(v.Items)
	case *domain.OrderedList:
		return listText(v.Items)
	case *domain.Image:
		return v.Alt
	default:
		return ""
	}
}

func listText(items []domain.ListItem) string {
	var parts []string
	for _, item := range items {
		for _, blk := range item.Blocks {
			if t := blockText(blk); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, "; ")
}

// sheetName sanitizes a heading into a unique valid worksheet name.
func (w *writer) sheetName(heading string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return ' '
		}
		return r
	}, heading)
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Sheet%d", len(w.sheets)+1)
	}
	name = truncateRunes(name, maxSheetName)
	for w.nameTaken(name) {
		suffix := fmt.Sprintf(" %d", len(w.sheets)+1)
		if utf8.RuneCountInString(name)+len(suffix) > maxSheetName {
			name = truncateRunes(name, maxSheetName-len(suffix))
		}
		name += suffix
	}
	return name
}

// truncateRunes caps s at n characters without splitting a rune. The sheet
// name limit counts characters, not bytes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func (w *writer) nameTaken(name string) bool {
	for _, s := range w.sheets {
		if s.name == name {
			return true
		}
	}
	return false
}

func esc(s string) string {
	var sb strings.Builder
	xml.EscapeText(&sb, []byte(s))
	return sb.String()
}

// writePackage assembles the ZIP container atomically.
func (w *writer) writePackage(path string) error {
	return safeio.WriteFile(path, func(out io.Writer) error {
		zw := zip.NewWriter(out)
		parts := []struct {
			name    string
			content string
		}{
			{"[Content_Types].xml", w.contentTypes()},
			{"_rels/.rels", packageRels},
			{"xl/workbook.xml", w.workbookXML()},
			{"xl/_rels/workbook.xml.rels", w.workbookRels()},
		}
		for i, s := range w.sheets {
			parts = append(parts, struct{ name, content string }{
				fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1),
				sheetXML(s.rows),
			})
		}
		for _, p := range parts {
			f, err := zw.Create(p.name)
			if err != nil {
				return err
			}
			if _, err := f.Write([]byte(p.content)); err != nil {
				return err
			}
		}
		return zw.Close()
	})
}

func (w *writer) contentTypes() string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	sb.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	sb.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	sb.WriteString(`<Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>`)
	for i := range w.sheets {
		fmt.Fprintf(&sb, `<Override PartName="/xl/worksheets/sheet%d.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/>`, i+1)
	}
	sb.WriteString(`</Types>`)
	return sb.String()
}

const packageRels = xml.Header +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="xl/workbook.xml"/>` +
	`</Relationships>`

func (w *writer) workbookXML() string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(`<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets>`)
	for i, s := range w.sheets {
		fmt.Fprintf(&sb, `<sheet name="%s" sheetId="%d" r:id="rId%d"/>`, esc(s.name), i+1, i+1)
	}
	sb.WriteString(`</sheets></workbook>`)
	return sb.String()
}

func (w *writer) workbookRels() string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for i := range w.sheets {
		fmt.Fprintf(&sb,
			`<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet%d.xml"/>`,
			i+1, i+1)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

// sheetXML renders one worksheet grid. Numeric-looking cells are written
// as numbers, everything else as inline strings.
func sheetXML(rows [][]string) string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(`<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>`)
	for ri, row := range rows {
		fmt.Fprintf(&sb, `<row r="%d">`, ri+1)
		for ci, value := range row {
			if value == "" {
				continue
			}
			ref := colName(ci) + strconv.Itoa(ri+1)
			if _, err := strconv.ParseFloat(value, 64); err == nil {
				fmt.Fprintf(&sb, `<c r="%s"><v>%s</v></c>`, ref, esc(value))
			} else {
				fmt.Fprintf(&sb, `<c r="%s" t="inlineStr"><is><t xml:space="preserve">%s</t></is></c>`, ref, esc(value))
			}
		}
		sb.WriteString(`</row>`)
	}
	sb.WriteString(`</sheetData></worksheet>`)
	return sb.String()
}

// colName encodes a zero-based column index as spreadsheet letters.
func colName(i int) string {
	name := ""
	for i >= 0 {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
	}
	return name
}
