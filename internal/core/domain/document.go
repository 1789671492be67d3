package domain

// Document is the intermediate representation all converters read and write.
// It is an ordered sequence of blocks, built fresh for a single conversion
// call and discarded after serialisation. It is never persisted or shared
// between calls.
type Document struct {
	Blocks []Block
}

// Block is a structural unit of a document: heading, paragraph, list,
// blockquote, code block, table, horizontal rule, or image.
type Block interface {
	block()
}

// Span is an inline content unit inside a block: plain text, emphasis,
// strong, strikethrough, inline code, link, or a hard line break.
type Span interface {
	span()
}

// Heading is a section heading with level 1-6.
type Heading struct {
	Level   int
	Content []Span
}

// Paragraph is a run of inline content.
type Paragraph struct {
	Content []Span
}

// BulletList is an unordered list.
type BulletList struct {
	Items []ListItem
}

// OrderedList is a numbered list. Numbering restarts at 1 on serialisation.
type OrderedList struct {
	Items []ListItem
}

// ListItem is one entry of a list. Items hold blocks, so lists nest to
// arbitrary depth.
type ListItem struct {
	Blocks []Block
}

// Blockquote wraps a sequence of blocks.
type Blockquote struct {
	Blocks []Block
}

// CodeBlock is raw preformatted text with an optional language tag.
type CodeBlock struct {
	Lang string
	Text string
}

// Cell is the inline content of one table cell.
type Cell []Span

// Table is a rectangular grid of cells. Rows[0] is the header row; every
// other row has the same cell count (see SquareTable). Alignments has one
// entry per column and defaults to AlignNone.
type Table struct {
	Rows       [][]Cell
	Alignments []Alignment
}

// Alignment is a per-column table alignment.
type Alignment int

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Rule is a horizontal rule.
type Rule struct{}

// Image is a block-level image reference with alternative text.
type Image struct {
	Source string
	Alt    string
}

func (*Heading) block()     {}
func (*Paragraph) block()   {}
func (*BulletList) block()  {}
func (*OrderedList) block() {}
func (*Blockquote) block()  {}
func (*CodeBlock) block()   {}
func (*Table) block()       {}
func (*Rule) block()        {}
func (*Image) block()       {}

// Text is a literal text span.
type Text struct {
	Text string
}

// Emphasis is italic inline content.
type Emphasis struct {
	Children []Span
}

// Strong is bold inline content.
type Strong struct {
	Children []Span
}

// Strikethrough is struck-through inline content.
type Strikethrough struct {
	Children []Span
}

// Code is literal inline code.
type Code struct {
	Text string
}

// Link is inline content pointing at a target.
type Link struct {
	Children []Span
	Target   string
}

// LineBreak is a hard line break inside a block.
type LineBreak struct{}

func (*Text) span()          {}
func (*Emphasis) span()      {}
func (*Strong) span()        {}
func (*Strikethrough) span() {}
func (*Code) span()          {}
func (*Link) span()          {}
func (*LineBreak) span()     {}

// PlainText flattens spans to their literal text, dropping all styling.
// Used by adapters that can only represent unformatted text.
func PlainText(spans []Span) string {
	var out []byte
	for _, s := range spans {
		switch v := s.(type) {
		case *Text:
			out = append(out, v.Text...)
		case *Emphasis:
			out = append(out, PlainText(v.Children)...)
		case *Strong:
			out = append(out, PlainText(v.Children)...)
		case *Strikethrough:
			out = append(out, PlainText(v.Children)...)
		case *Code:
			out = append(out, v.Text...)
		case *Link:
			out = append(out, PlainText(v.Children)...)
		case *LineBreak:
			out = append(out, '\n')
		}
	}
	return string(out)
}
