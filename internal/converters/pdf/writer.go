package pdf

import (
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/markbear/markbear/internal/core/domain"
	"github.com/markbear/markbear/internal/safeio"
)

const (
	pageMargin = 56.7 // 2cm in points
	listStep   = 18
)

// writer renders the IR into a PDF document.
type writer struct {
	styles   *domain.StyleContext
	pdf      *gofpdf.Fpdf
	warnings []domain.Warning
}

func newWriter(styles *domain.StyleContext) *writer {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AddPage()
	return &writer{styles: styles, pdf: pdf}
}

func (w *writer) warnf(format string, args ...any) {
	w.warnings = append(w.warnings, domain.Warningf(format, args...))
}

func (w *writer) lineHeight(size float64) float64 {
	return size * 1.45
}

func (w *writer) contentWidth() float64 {
	pageW, _ := w.pdf.GetPageSize()
	return pageW - 2*pageMargin
}

func (w *writer) build(doc *domain.Document) []domain.Warning {
	for _, blk := range doc.Blocks {
		w.block(blk, 0)
		w.pdf.Ln(w.lineHeight(w.styles.BaseSize) * 0.6)
	}
	return w.warnings
}

func (w *writer) block(blk domain.Block, indent float64) {
	w.pdf.SetLeftMargin(pageMargin + indent)
	w.pdf.SetX(pageMargin + indent)

	switch v := blk.(type) {
	case *domain.Heading:
		size := w.styles.HeadingSize(v.Level)
		w.pdf.SetFont(w.styles.BaseFont, "B", size)
		w.writeSpans(v.Content, spanStyle{bold: true, size: size})
		w.pdf.Ln(w.lineHeight(size))

	case *domain.Paragraph:
		w.pdf.SetFont(w.styles.BaseFont, "", w.styles.BaseSize)
		w.writeSpans(v.Content, spanStyle{size: w.styles.BaseSize})
		w.pdf.Ln(w.lineHeight(w.styles.BaseSize))

	case *domain.BulletList:
		w.list(v.Items, indent, func(int) string { return "• " })

	case *domain.OrderedList:
		w.list(v.Items, indent, func(i int) string { return strconv.Itoa(i+1) + ". " })

	case *domain.Blockquote:
		// Indented italic body, the conventional print rendering.
		for _, child := range v.Blocks {
			if p, ok := child.(*domain.Paragraph); ok {
				w.pdf.SetLeftMargin(pageMargin + indent + listStep)
				w.pdf.SetX(pageMargin + indent + listStep)
				w.pdf.SetFont(w.styles.BaseFont, "I", w.styles.BaseSize)
				w.writeSpans(p.Content, spanStyle{italic: true, size: w.styles.BaseSize})
				w.pdf.Ln(w.lineHeight(w.styles.BaseSize))
				continue
			}
			w.block(child, indent+listStep)
		}

	case *domain.CodeBlock:
		w.pdf.SetFont(w.styles.MonoFont, "", w.styles.BaseSize)
		for _, line := range strings.Split(strings.TrimRight(v.Text, "\n"), "\n") {
			w.pdf.MultiCell(w.contentWidth()-indent, w.lineHeight(w.styles.BaseSize), line, "", "L", false)
		}

	case *domain.Table:
		w.table(v, indent)

	case *domain.Rule:
		y := w.pdf.GetY() + w.lineHeight(w.styles.BaseSize)/2
		w.pdf.SetDrawColor(120, 120, 120)
		w.pdf.Line(pageMargin+indent, y, pageMargin+w.contentWidth(), y)
		w.pdf.SetDrawColor(0, 0, 0)
		w.pdf.Ln(w.lineHeight(w.styles.BaseSize))

	case *domain.Image:
		w.image(v, indent)
	}

	w.pdf.SetLeftMargin(pageMargin)
}

func (w *writer) list(items []domain.ListItem, indent float64, marker func(int) string) {
	for i, item := range items {
		first := true
		for _, blk := range item.Blocks {
			if p, ok := blk.(*domain.Paragraph); ok && first {
				w.pdf.SetLeftMargin(pageMargin + indent + listStep)
				w.pdf.SetX(pageMargin + indent + listStep)
				w.pdf.SetFont(w.styles.BaseFont, "", w.styles.BaseSize)
				w.pdf.Write(w.lineHeight(w.styles.BaseSize), marker(i))
				w.writeSpans(p.Content, spanStyle{size: w.styles.BaseSize})
				w.pdf.Ln(w.lineHeight(w.styles.BaseSize))
				first = false
				continue
			}
			w.block(blk, indent+listStep)
			first = false
		}
	}
}

// spanStyle is the emphasis state inherited while descending a span tree.
type spanStyle struct {
	bold, italic, mono bool
	size               float64
}

func (s spanStyle) fontStyle() string {
	style := ""
	if s.bold {
		style += "B"
	}
	if s.italic {
		style += "I"
	}
	return style
}

func (w *writer) writeSpans(spans []domain.Span, style spanStyle) {
	lh := w.lineHeight(style.size)
	for _, sp := range spans {
		switch v := sp.(type) {
		case *domain.Text:
			w.setFont(style)
			w.pdf.Write(lh, v.Text)
		case *domain.Emphasis:
			st := style
			st.italic = true
			w.writeSpans(v.Children, st)
		case *domain.Strong:
			st := style
			st.bold = true
			w.writeSpans(v.Children, st)
		case *domain.Strikethrough:
			// No strike decoration in the core fonts; text is kept.
			w.writeSpans(v.Children, style)
		case *domain.Code:
			st := style
			st.mono = true
			w.setFont(st)
			w.pdf.Write(lh, v.Text)
		case *domain.Link:
			w.setFont(style)
			w.pdf.SetTextColor(0, 0, 200)
			w.pdf.WriteLinkString(lh, domain.PlainText(v.Children), v.Target)
			w.pdf.SetTextColor(0, 0, 0)
		case *domain.LineBreak:
			w.pdf.Ln(lh)
		}
	}
}

func (w *writer) setFont(style spanStyle) {
	family := w.styles.BaseFont
	if style.mono {
		family = w.styles.MonoFont
	}
	w.pdf.SetFont(family, style.fontStyle(), style.size)
}

func (w *writer) table(t *domain.Table, indent float64) {
	rows, warns := domain.SquareTable(t.Rows)
	w.warnings = append(w.warnings, warns...)
	if len(rows) == 0 {
		return
	}

	border := ""
	if w.styles.TableBorders {
		border = "1"
	}
	colW := (w.contentWidth() - indent) / float64(len(rows[0]))
	lh := w.lineHeight(w.styles.BaseSize)

	for i, row := range rows {
		fontStyle := ""
		if i == 0 {
			fontStyle = "B"
		}
		w.pdf.SetFont(w.styles.BaseFont, fontStyle, w.styles.BaseSize)
		for _, cell := range row {
			w.pdf.CellFormat(colW, lh, domain.PlainText(cell), border, 0, "L", false, 0, "")
		}
		w.pdf.Ln(lh)
	}
}

// image places a decodable local file inline; anything else degrades to
// its alt text with a warning.
func (w *writer) image(img *domain.Image, indent float64) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(img.Source)), ".")
	supported := ext == "png" || ext == "jpg" || ext == "jpeg" || ext == "gif"

	if supported {
		opts := gofpdf.ImageOptions{ImageType: "", ReadDpi: true}
		w.pdf.ImageOptions(img.Source, pageMargin+indent, -1, w.contentWidth()-indent, 0, true, opts, 0, "")
		if w.pdf.Err() {
			w.pdf.ClearError()
		} else {
			return
		}
	}

	alt := img.Alt
	if alt == "" {
		alt = img.Source
	}
	w.warnf("image %q not embedded; alt text written instead", img.Source)
	w.pdf.SetFont(w.styles.BaseFont, "I", w.styles.BaseSize)
	w.pdf.Write(w.lineHeight(w.styles.BaseSize), alt)
	w.pdf.Ln(w.lineHeight(w.styles.BaseSize))
}

func (w *writer) writeFile(path string) error {
	return safeio.WriteFile(path, func(out io.Writer) error {
		return w.pdf.Output(out)
	})
}
