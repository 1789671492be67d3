package xlsx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/markbear/markbear/internal/core/domain"
)

// reader resolves a workbook package and maps its sheets onto the IR.
type reader struct {
	zr       *zip.Reader
	workbook workbookXML
	shared   []string
	rels     map[string]string // relationship id -> target under xl/
	warnings []domain.Warning
}

func newReader(zr *zip.Reader) (*reader, error) {
	r := &reader{zr: zr, rels: map[string]string{}}

	raw, err := readPart(zr, "xl/workbook.xml")
	if err != nil {
		return nil, fmt.Errorf("%w: missing xl/workbook.xml", domain.ErrUnsupportedVariant)
	}
	if err := xml.Unmarshal(raw, &r.workbook); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)
	}

	if raw, err := readPart(zr, "xl/_rels/workbook.xml.rels"); err == nil {
		var rels relationshipsXML
		if err := xml.Unmarshal(raw, &rels); err == nil {
			for _, rel := range rels.Rels {
				r.rels[rel.ID] = rel.Target
			}
		}
	}
	if raw, err := readPart(zr, "xl/sharedStrings.xml"); err == nil {
		var sst sstXML
		if err := xml.Unmarshal(raw, &sst); err != nil {
			r.warnf("shared strings part unreadable: %v", err)
		} else {
			for i := range sst.Items {
				r.shared = append(r.shared, sst.Items[i].value())
			}
		}
	}
	return r, nil
}

func readPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("part %s not found", name)
}

func (r *reader) warnf(format string, args ...any) {
	r.warnings = append(r.warnings, domain.Warningf(format, args...))
}

// document reads every sheet in workbook order. Multi-sheet workbooks get
// a level-2 heading carrying the sheet name before each table.
func (r *reader) document() (*domain.Document, []domain.Warning, error) {
	multi := len(r.workbook.Sheets) > 1

	var blocks []domain.Block
	for i, sheet := range r.workbook.Sheets {
		rows, err := r.sheetRows(sheet, i)
		if err != nil {
			return nil, nil, err
		}
		if len(rows) == 0 {
			r.warnf("sheet %q is empty and produced no table", sheet.Name)
			continue
		}
		rows, warns := domain.SquareTable(rows)
		r.warnings = append(r.warnings, warns...)

		if multi {
			blocks = append(blocks, &domain.Heading{
				Level:   2,
				Content: []domain.Span{&domain.Text{Text: sheet.Name}},
			})
		}
		blocks = append(blocks, &domain.Table{
			Rows:       rows,
			Alignments: make([]domain.Alignment, len(rows[0])),
		})
	}
	return &domain.Document{Blocks: blocks}, r.warnings, nil
}

// sheetRows loads one worksheet grid. Column positions come from the A1
// cell references so sparse rows keep their gaps.
func (r *reader) sheetRows(sheet sheetRefXML, index int) ([][]domain.Cell, error) {
	target, ok := r.rels[sheet.RelID]
	if !ok {
		// Packages without workbook rels still usually follow the
		// conventional worksheet naming.
		target = fmt.Sprintf("worksheets/sheet%d.xml", index+1)
	}
	raw, err := readPart(r.zr, path.Join("xl", target))
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q has no worksheet part", domain.ErrUnsupportedVariant, sheet.Name)
	}
	var ws worksheetXML
	if err := xml.Unmarshal(raw, &ws); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)
	}

	var rows [][]domain.Cell
	for _, row := range ws.Rows {
		var cells []domain.Cell
		next := 0
		for _, c := range row.Cells {
			col := next
			if idx, ok := colIndex(c.Ref); ok {
				col = idx
			}
			for len(cells) < col {
				cells = append(cells, domain.Cell(nil))
			}
			cells = append(cells, cellSpans(r.cellValue(&c)))
			next = col + 1
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func cellSpans(value string) domain.Cell {
	if value == "" {
		return domain.Cell(nil)
	}
	return domain.Cell{&domain.Text{Text: value}}
}

// cellValue resolves a cell to its display text. Formulas are not
// evaluated; the cached result is used.
func (r *reader) cellValue(c *cellXML) string {
	switch c.Type {
	case "s":
		idx, err := strconv.Atoi(strings.TrimSpace(c.Value))
		if err != nil || idx < 0 || idx >= len(r.shared) {
			r.warnf("shared string index %q out of range", c.Value)
			return ""
		}
		return r.shared[idx]
	case "inlineStr":
		return c.Inline.value()
	case "b":
		if c.Value == "1" {
			return "TRUE"
		}
		return "FALSE"
	default:
		// "n" (or untyped numbers), "str" cached formula strings and
		// "e" error literals all carry their text in v.
		return c.Value
	}
}

// colIndex decodes the column letters of an A1 reference to a zero-based
// index.
func colIndex(ref string) (int, bool) {
	n := 0
	found := false
	for _, ch := range ref {
		if ch < 'A' || ch > 'Z' {
			break
		}
		n = n*26 + int(ch-'A') + 1
		found = true
	}
	if !found {
		return 0, false
	}
	return n - 1, true
}
