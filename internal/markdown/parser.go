package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/markbear/markbear/internal/core/domain"
)

// Codec converts between Markdown text and the document IR. It is
// stateless after construction and safe for concurrent use.
type Codec struct {
	md goldmark.Markdown
}

// NewCodec builds a codec with the GFM constructs the IR models:
// pipe tables and strikethrough.
func NewCodec() *Codec {
	return &Codec{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.Table,
				extension.Strikethrough,
			),
		),
	}
}

// Parse converts Markdown text into a Document. It never fails on
// malformed constructs; oddities are repaired and reported as warnings.
func (c *Codec) Parse(source string) (*domain.Document, []domain.Warning, error) {
	src := []byte(source)
	root := c.md.Parser().Parse(text.NewReader(src))

	b := &irBuilder{source: src}
	blocks := b.blocks(root)
	return &domain.Document{Blocks: blocks}, b.warnings, nil
}

// irBuilder walks the goldmark AST and accumulates repair warnings.
type irBuilder struct {
	source   []byte
	warnings []domain.Warning
}

func (b *irBuilder) warnf(format string, args ...any) {
	b.warnings = append(b.warnings, domain.Warningf(format, args...))
}

func (b *irBuilder) blocks(parent ast.Node) []domain.Block {
	var out []domain.Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if blk := b.block(n); blk != nil {
			out = append(out, blk)
		}
	}
	return out
}

func (b *irBuilder) block(n ast.Node) domain.Block {
	switch v := n.(type) {
	case *ast.Heading:
		return &domain.Heading{Level: v.Level, Content: b.spans(v)}

	case *ast.Paragraph:
		return b.paragraph(v)
	case *ast.TextBlock:
		// Tight list items wrap their text in a TextBlock; the IR does
		// not distinguish tightness.
		return b.paragraph(v)

	case *ast.List:
		return b.list(v)

	case *ast.Blockquote:
		return &domain.Blockquote{Blocks: b.blocks(v)}

	case *ast.FencedCodeBlock:
		lang := ""
		if l := v.Language(b.source); l != nil {
			lang = string(l)
		}
		return &domain.CodeBlock{Lang: lang, Text: b.rawLines(v)}
	case *ast.CodeBlock:
		return &domain.CodeBlock{Text: b.rawLines(v)}

	case *ast.ThematicBreak:
		return &domain.Rule{}

	case *extast.Table:
		return b.table(v)

	case *ast.HTMLBlock:
		// The IR has no raw-HTML node; keep the text so nothing silently
		// disappears.
		b.warnf("raw HTML block flattened to text")
		raw := strings.TrimRight(b.rawLines(v), "\n")
		if raw == "" {
			return nil
		}
		return &domain.Paragraph{Content: []domain.Span{&domain.Text{Text: raw}}}

	default:
		b.warnf("unhandled markdown block %s dropped", n.Kind())
		return nil
	}
}

// paragraph converts a paragraph-like node. A paragraph consisting of a
// single image is promoted to a block-level Image.
func (b *irBuilder) paragraph(n ast.Node) domain.Block {
	if n.ChildCount() == 1 {
		if img, ok := n.FirstChild().(*ast.Image); ok {
			return &domain.Image{
				Source: string(img.Destination),
				Alt:    string(img.Text(b.source)),
			}
		}
	}
	spans := b.spans(n)
	if len(spans) == 0 {
		return nil
	}
	return &domain.Paragraph{Content: spans}
}

func (b *irBuilder) list(n *ast.List) domain.Block {
	var items []domain.ListItem
	for li := n.FirstChild(); li != nil; li = li.NextSibling() {
		items = append(items, domain.ListItem{Blocks: b.blocks(li)})
	}
	if n.IsOrdered() {
		return &domain.OrderedList{Items: items}
	}
	return &domain.BulletList{Items: items}
}

func (b *irBuilder) table(n *extast.Table) domain.Block {
	var rows [][]domain.Cell
	var widths []int
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []domain.Cell
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, domain.Cell(b.spans(cell)))
		}
		rows = append(rows, cells)
		widths = append(widths, b.sourceRowWidth(row))
	}

	// The table extension squares rows against the header before this
	// package sees them, so raggedness is recovered from the raw lines.
	if len(rows) > 0 {
		width := len(rows[0])
		for i := 1; i < len(rows); i++ {
			switch w := widths[i]; {
			case w > 0 && w < width:
				b.warnf("table row %d padded from %d to %d cells", i+1, w, width)
			case w > width:
				b.warnf("table row %d truncated from %d to %d cells", i+1, w, width)
			}
		}
	}

	rows, warns := domain.SquareTable(rows)
	b.warnings = append(b.warnings, warns...)

	aligns := make([]domain.Alignment, 0, len(n.Alignments))
	for _, a := range n.Alignments {
		switch a {
		case extast.AlignLeft:
			aligns = append(aligns, domain.AlignLeft)
		case extast.AlignCenter:
			aligns = append(aligns, domain.AlignCenter)
		case extast.AlignRight:
			aligns = append(aligns, domain.AlignRight)
		default:
			aligns = append(aligns, domain.AlignNone)
		}
	}
	if len(rows) > 0 {
		for len(aligns) < len(rows[0]) {
			aligns = append(aligns, domain.AlignNone)
		}
		aligns = aligns[:len(rows[0])]
	}
	return &domain.Table{Rows: rows, Alignments: aligns}
}

// sourceRowWidth counts the cells a table row had in the source line,
// located through the first cell that kept a segment.
func (b *irBuilder) sourceRowWidth(row ast.Node) int {
	pos := -1
	for cell := row.FirstChild(); cell != nil && pos < 0; cell = cell.NextSibling() {
		if lines := cell.Lines(); lines.Len() > 0 {
			pos = lines.At(0).Start
		}
	}
	if pos < 0 || pos > len(b.source) {
		return -1
	}
	start, end := pos, pos
	for start > 0 && b.source[start-1] != '\n' {
		start--
	}
	for end < len(b.source) && b.source[end] != '\n' {
		end++
	}
	return pipeCells(strings.TrimSpace(string(b.source[start:end])))
}

// pipeCells counts the cells delimited by unescaped pipes in one table
// row line. Leading and trailing pipes do not open cells of their own.
func pipeCells(line string) int {
	if line == "" || line == "|" {
		return 0
	}
	seps := 0
	lastSep := -1
	escaped := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			escaped = !escaped
		case '|':
			if !escaped {
				seps++
				lastSep = i
			}
			escaped = false
		default:
			escaped = false
		}
	}
	cells := seps + 1
	if strings.HasPrefix(line, "|") {
		cells--
	}
	if lastSep == len(line)-1 {
		cells--
	}
	if cells < 1 {
		return 0
	}
	return cells
}

// rawLines reconstructs the literal text of a block's line segments.
func (b *irBuilder) rawLines(n ast.Node) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(b.source))
	}
	return sb.String()
}

func (b *irBuilder) spans(parent ast.Node) []domain.Span {
	var out []domain.Span
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, b.span(n)...)
	}
	return mergeText(out)
}

func (b *irBuilder) span(n ast.Node) []domain.Span {
	switch v := n.(type) {
	case *ast.Text:
		var out []domain.Span
		if t := unescapeText(v.Segment.Value(b.source)); t != "" {
			out = append(out, &domain.Text{Text: t})
		}
		switch {
		case v.HardLineBreak():
			out = append(out, &domain.LineBreak{})
		case v.SoftLineBreak():
			// Soft breaks join lines of the same paragraph.
			out = append(out, &domain.Text{Text: " "})
		}
		return out

	case *ast.String:
		if len(v.Value) == 0 {
			return nil
		}
		return []domain.Span{&domain.Text{Text: string(v.Value)}}

	case *ast.Emphasis:
		children := b.spans(v)
		if v.Level >= 2 {
			return []domain.Span{&domain.Strong{Children: children}}
		}
		return []domain.Span{&domain.Emphasis{Children: children}}

	case *extast.Strikethrough:
		return []domain.Span{&domain.Strikethrough{Children: b.spans(v)}}

	case *ast.CodeSpan:
		return []domain.Span{&domain.Code{Text: string(v.Text(b.source))}}

	case *ast.Link:
		return []domain.Span{&domain.Link{
			Children: b.spans(v),
			Target:   string(v.Destination),
		}}

	case *ast.AutoLink:
		url := string(v.URL(b.source))
		return []domain.Span{&domain.Link{
			Children: []domain.Span{&domain.Text{Text: string(v.Label(b.source))}},
			Target:   url,
		}}

	case *ast.Image:
		// Block-level images are handled in paragraph; an image mixed into
		// other inline content degrades to its alt text.
		b.warnf("inline image %q flattened to alt text", string(v.Destination))
		alt := string(v.Text(b.source))
		if alt == "" {
			return nil
		}
		return []domain.Span{&domain.Text{Text: alt}}

	case *ast.RawHTML:
		var sb strings.Builder
		for i := 0; i < v.Segments.Len(); i++ {
			seg := v.Segments.At(i)
			sb.Write(seg.Value(b.source))
		}
		if sb.Len() == 0 {
			return nil
		}
		return []domain.Span{&domain.Text{Text: sb.String()}}

	default:
		b.warnf("unhandled inline node %s dropped", n.Kind())
		return nil
	}
}

// unescapeText resolves backslash escapes in a literal text segment. A
// backslash before ASCII punctuation escapes it; any other backslash is
// literal.
func unescapeText(raw []byte) string {
	if !bytes.ContainsRune(raw, '\\') {
		return string(raw)
	}
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) && util.IsPunct(raw[i+1]) {
			i++
		}
		out = append(out, raw[i])
	}
	return string(out)
}

// mergeText canonicalises an inline sequence by folding adjacent literal
// text spans into one, so structural equality is stable across parse and
// serialise.
func mergeText(spans []domain.Span) []domain.Span {
	var out []domain.Span
	for _, s := range spans {
		t, ok := s.(*domain.Text)
		if !ok {
			out = append(out, s)
			continue
		}
		if len(out) > 0 {
			if prev, ok := out[len(out)-1].(*domain.Text); ok {
				prev.Text += t.Text
				continue
			}
		}
		out = append(out, t)
	}
	return out
}
