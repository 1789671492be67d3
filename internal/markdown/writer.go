package markdown

import (
	"fmt"
	"strings"

	"github.com/markbear/markbear/internal/core/domain"
)

// listIndent is the canonical indentation per list nesting level.
const listIndent = 4

// Serialize emits canonical Markdown for a document: ATX headings, dash
// bullets, four-space indents per list level, fenced code blocks, and
// single-space table cell padding. Blocks are separated by one blank line.
func (c *Codec) Serialize(doc *domain.Document) (string, error) {
	var rendered []string
	for _, blk := range doc.Blocks {
		s, err := renderBlock(blk)
		if err != nil {
			return "", err
		}
		if s != "" {
			rendered = append(rendered, s)
		}
	}
	if len(rendered) == 0 {
		return "", nil
	}
	return strings.Join(rendered, "\n\n") + "\n", nil
}

// prefixLines prepends prefix to non-empty lines and emptyPrefix to empty
// ones, so blockquote blank lines render as a bare ">".
func prefixLines(s, prefix, emptyPrefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = emptyPrefix
		} else {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

func renderBlocks(blocks []domain.Block) (string, error) {
	var rendered []string
	for _, blk := range blocks {
		s, err := renderBlock(blk)
		if err != nil {
			return "", err
		}
		if s != "" {
			rendered = append(rendered, s)
		}
	}
	return strings.Join(rendered, "\n\n"), nil
}

func renderBlock(blk domain.Block) (string, error) {
	switch v := blk.(type) {
	case *domain.Heading:
		level := v.Level
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		return strings.Repeat("#", level) + " " + renderSpans(v.Content), nil

	case *domain.Paragraph:
		return renderSpans(v.Content), nil

	case *domain.BulletList:
		return renderList(v.Items, func(int) string { return "- " })

	case *domain.OrderedList:
		return renderList(v.Items, func(i int) string { return fmt.Sprintf("%d. ", i+1) })

	case *domain.Blockquote:
		inner, err := renderBlocks(v.Blocks)
		if err != nil {
			return "", err
		}
		return prefixLines(inner, "> ", ">"), nil

	case *domain.CodeBlock:
		return renderCode(v), nil

	case *domain.Table:
		return renderTable(v), nil

	case *domain.Rule:
		return "---", nil

	case *domain.Image:
		return fmt.Sprintf("![%s](%s)", v.Alt, v.Source), nil

	default:
		return "", fmt.Errorf("cannot serialize block of type %T", blk)
	}
}

func renderList(items []domain.ListItem, marker func(i int) string) (string, error) {
	var lines []string
	indent := strings.Repeat(" ", listIndent)
	for i, item := range items {
		body, err := renderBlocks(item.Blocks)
		if err != nil {
			return "", err
		}
		m := marker(i)
		itemLines := strings.Split(body, "\n")
		for j, line := range itemLines {
			switch {
			case j == 0:
				lines = append(lines, m+line)
			case line == "":
				lines = append(lines, "")
			default:
				lines = append(lines, indent+line)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

func renderCode(v *domain.CodeBlock) string {
	fence := "```"
	for strings.Contains(v.Text, fence) || strings.Contains(v.Lang, fence) {
		fence += "`"
	}
	text := v.Text
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return fence + v.Lang + "\n" + text + fence
}

func renderTable(v *domain.Table) string {
	if len(v.Rows) == 0 {
		return ""
	}
	rows, _ := domain.SquareTable(v.Rows)
	width := len(rows[0])

	var sb strings.Builder
	writeRow := func(cells []domain.Cell) {
		sb.WriteString("|")
		for _, cell := range cells {
			text := strings.ReplaceAll(renderSpans(cell), "\n", " ")
			text = strings.ReplaceAll(text, "|", "\\|")
			sb.WriteString(" " + text + " |")
		}
		sb.WriteString("\n")
	}

	writeRow(rows[0])
	sb.WriteString("|")
	for col := 0; col < width; col++ {
		var a domain.Alignment
		if col < len(v.Alignments) {
			a = v.Alignments[col]
		}
		switch a {
		case domain.AlignLeft:
			sb.WriteString(" :-- |")
		case domain.AlignCenter:
			sb.WriteString(" :-: |")
		case domain.AlignRight:
			sb.WriteString(" --: |")
		default:
			sb.WriteString(" --- |")
		}
	}
	sb.WriteString("\n")
	for _, row := range rows[1:] {
		writeRow(row)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderSpans(spans []domain.Span) string {
	var sb strings.Builder
	for _, s := range spans {
		switch v := s.(type) {
		case *domain.Text:
			sb.WriteString(v.Text)
		case *domain.Emphasis:
			sb.WriteString("*" + renderSpans(v.Children) + "*")
		case *domain.Strong:
			sb.WriteString("**" + renderSpans(v.Children) + "**")
		case *domain.Strikethrough:
			sb.WriteString("~~" + renderSpans(v.Children) + "~~")
		case *domain.Code:
			sb.WriteString(renderInlineCode(v.Text))
		case *domain.Link:
			sb.WriteString("[" + renderSpans(v.Children) + "](" + v.Target + ")")
		case *domain.LineBreak:
			sb.WriteString("  \n")
		}
	}
	return sb.String()
}

func renderInlineCode(text string) string {
	if !strings.Contains(text, "`") {
		return "`" + text + "`"
	}
	delim := "``"
	for strings.Contains(text, delim) {
		delim += "`"
	}
	return delim + " " + text + " " + delim
}
