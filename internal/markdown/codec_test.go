package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markbear/markbear/internal/core/domain"
)

func parseDoc(t *testing.T, source string) *domain.Document {
	t.Helper()
	doc, warnings, err := NewCodec().Parse(source)
	require.NoError(t, err)
	require.Empty(t, warnings)
	return doc
}

func TestParse_HeadingAndParagraph(t *testing.T) {
	doc := parseDoc(t, "# Title\n\nSome body text.\n")

	require.Len(t, doc.Blocks, 2)
	h, ok := doc.Blocks[0].(*domain.Heading)
	require.True(t, ok)
	assert.Equal(t, 1, h.Level)
	assert.Equal(t, []domain.Span{&domain.Text{Text: "Title"}}, h.Content)

	p, ok := doc.Blocks[1].(*domain.Paragraph)
	require.True(t, ok)
	assert.Equal(t, []domain.Span{&domain.Text{Text: "Some body text."}}, p.Content)
}

func TestParse_InlineStyles(t *testing.T) {
	doc := parseDoc(t, "plain *em* **strong** ~~gone~~ `code` [here](https://x.test)\n")

	p, ok := doc.Blocks[0].(*domain.Paragraph)
	require.True(t, ok)
	assert.Equal(t, []domain.Span{
		&domain.Text{Text: "plain "},
		&domain.Emphasis{Children: []domain.Span{&domain.Text{Text: "em"}}},
		&domain.Text{Text: " "},
		&domain.Strong{Children: []domain.Span{&domain.Text{Text: "strong"}}},
		&domain.Text{Text: " "},
		&domain.Strikethrough{Children: []domain.Span{&domain.Text{Text: "gone"}}},
		&domain.Text{Text: " "},
		&domain.Code{Text: "code"},
		&domain.Text{Text: " "},
		&domain.Link{
			Children: []domain.Span{&domain.Text{Text: "here"}},
			Target:   "https://x.test",
		},
	}, p.Content)
}

func TestParse_SoftBreakJoinsHardBreakSurvives(t *testing.T) {
	doc := parseDoc(t, "one\ntwo\n\nthree  \nfour\n")

	p1 := doc.Blocks[0].(*domain.Paragraph)
	assert.Equal(t, []domain.Span{&domain.Text{Text: "one two"}}, p1.Content)

	p2 := doc.Blocks[1].(*domain.Paragraph)
	assert.Equal(t, []domain.Span{
		&domain.Text{Text: "three"},
		&domain.LineBreak{},
		&domain.Text{Text: "four"},
	}, p2.Content)
}

func TestParse_NestedLists(t *testing.T) {
	source := "- a\n    - b\n        1. c\n"
	doc := parseDoc(t, source)

	outer, ok := doc.Blocks[0].(*domain.BulletList)
	require.True(t, ok)
	require.Len(t, outer.Items, 1)
	require.Len(t, outer.Items[0].Blocks, 2)

	mid, ok := outer.Items[0].Blocks[1].(*domain.BulletList)
	require.True(t, ok)
	inner, ok := mid.Items[0].Blocks[1].(*domain.OrderedList)
	require.True(t, ok)
	p := inner.Items[0].Blocks[0].(*domain.Paragraph)
	assert.Equal(t, []domain.Span{&domain.Text{Text: "c"}}, p.Content)
}

func TestParse_FencedCode(t *testing.T) {
	doc := parseDoc(t, "```go\nx := 1\n\ny := 2\n```\n")

	cb, ok := doc.Blocks[0].(*domain.CodeBlock)
	require.True(t, ok)
	assert.Equal(t, "go", cb.Lang)
	assert.Equal(t, "x := 1\n\ny := 2\n", cb.Text)
}

func TestParse_Table(t *testing.T) {
	source := "| Name | Age |\n| :-- | --: |\n| Ada | 36 |\n"
	doc := parseDoc(t, source)

	tbl, ok := doc.Blocks[0].(*domain.Table)
	require.True(t, ok)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, domain.Cell{&domain.Text{Text: "Name"}}, tbl.Rows[0][0])
	assert.Equal(t, domain.Cell{&domain.Text{Text: "36"}}, tbl.Rows[1][1])
	assert.Equal(t, []domain.Alignment{domain.AlignLeft, domain.AlignRight}, tbl.Alignments)
}

func TestParse_RaggedTableSquaredWithWarning(t *testing.T) {
	source := "| a | b |\n| --- | --- |\n| only |\n"
	doc, warnings, err := NewCodec().Parse(source)
	require.NoError(t, err)

	tbl := doc.Blocks[0].(*domain.Table)
	require.Len(t, tbl.Rows[1], 2)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "padded from 1 to 2")
}

func TestParse_OverlongTableRowWarns(t *testing.T) {
	source := "| a | b |\n| --- | --- |\n| 1 | 2 | 3 |\n"
	doc, warnings, err := NewCodec().Parse(source)
	require.NoError(t, err)

	tbl := doc.Blocks[0].(*domain.Table)
	require.Len(t, tbl.Rows[1], 2)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "truncated from 3 to 2")
}

func TestPipeCells(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{"| a | b |", 2},
		{"| only |", 1},
		{"a | b", 2},
		{"| 1 | 2 | 3 |", 3},
		{`| pipe \| kept | b |`, 2},
		{"|", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, pipeCells(tt.line))
		})
	}
}

func TestParse_SoleImageBecomesBlock(t *testing.T) {
	doc := parseDoc(t, "![diagram](fig.png)\n")

	img, ok := doc.Blocks[0].(*domain.Image)
	require.True(t, ok)
	assert.Equal(t, "fig.png", img.Source)
	assert.Equal(t, "diagram", img.Alt)
}

func TestParse_InlineImageFlattensWithWarning(t *testing.T) {
	doc, warnings, err := NewCodec().Parse("see ![pic](a.png) here\n")
	require.NoError(t, err)

	p := doc.Blocks[0].(*domain.Paragraph)
	assert.Equal(t, []domain.Span{&domain.Text{Text: "see pic here"}}, p.Content)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "flattened to alt text")
}

func TestParse_BackslashEscapesResolve(t *testing.T) {
	doc := parseDoc(t, "about 100\\% done, \\*not emphasis\\*\n")

	p, ok := doc.Blocks[0].(*domain.Paragraph)
	require.True(t, ok)
	assert.Equal(t, []domain.Span{&domain.Text{Text: "about 100% done, *not emphasis*"}}, p.Content)
}

func TestParse_CodeSpanKeepsBackslashes(t *testing.T) {
	doc := parseDoc(t, "`a\\%b`\n")

	p := doc.Blocks[0].(*domain.Paragraph)
	assert.Equal(t, []domain.Span{&domain.Code{Text: `a\%b`}}, p.Content)
}

func TestParse_InlineRawHTMLKeptAsText(t *testing.T) {
	doc := parseDoc(t, "before <b>mid</b> after\n")

	p, ok := doc.Blocks[0].(*domain.Paragraph)
	require.True(t, ok)
	assert.Equal(t, []domain.Span{&domain.Text{Text: "before <b>mid</b> after"}}, p.Content)
}

func TestParse_HTMLBlockKeptAsTextWithWarning(t *testing.T) {
	doc, warnings, err := NewCodec().Parse("<div>x</div>\n")
	require.NoError(t, err)

	p, ok := doc.Blocks[0].(*domain.Paragraph)
	require.True(t, ok)
	assert.Equal(t, []domain.Span{&domain.Text{Text: "<div>x</div>"}}, p.Content)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "raw HTML")
}

func TestParse_Blockquote(t *testing.T) {
	doc := parseDoc(t, "> quoted line\n>\n> second paragraph\n")

	bq, ok := doc.Blocks[0].(*domain.Blockquote)
	require.True(t, ok)
	require.Len(t, bq.Blocks, 2)
}

func TestSerialize_Canonical(t *testing.T) {
	doc := &domain.Document{Blocks: []domain.Block{
		&domain.Heading{Level: 2, Content: []domain.Span{&domain.Text{Text: "Notes"}}},
		&domain.Paragraph{Content: []domain.Span{
			&domain.Text{Text: "mix "},
			&domain.Strong{Children: []domain.Span{&domain.Text{Text: "bold"}}},
		}},
		&domain.Rule{},
	}}

	out, err := NewCodec().Serialize(doc)
	require.NoError(t, err)
	assert.Equal(t, "## Notes\n\nmix **bold**\n\n---\n", out)
}

func TestSerialize_NestedListIndentation(t *testing.T) {
	doc := &domain.Document{Blocks: []domain.Block{
		&domain.BulletList{Items: []domain.ListItem{{Blocks: []domain.Block{
			&domain.Paragraph{Content: []domain.Span{&domain.Text{Text: "a"}}},
			&domain.OrderedList{Items: []domain.ListItem{
				{Blocks: []domain.Block{&domain.Paragraph{Content: []domain.Span{&domain.Text{Text: "b"}}}}},
				{Blocks: []domain.Block{&domain.Paragraph{Content: []domain.Span{&domain.Text{Text: "c"}}}}},
			}},
		}}}},
	}}

	out, err := NewCodec().Serialize(doc)
	require.NoError(t, err)
	assert.Equal(t, "- a\n\n    1. b\n    2. c\n", out)
}

func TestSerialize_TablePadding(t *testing.T) {
	doc := &domain.Document{Blocks: []domain.Block{
		&domain.Table{
			Rows: [][]domain.Cell{
				{{&domain.Text{Text: "a"}}, {&domain.Text{Text: "b"}}},
				{{&domain.Text{Text: "1"}}, {&domain.Text{Text: "pipe | in cell"}}},
			},
			Alignments: []domain.Alignment{domain.AlignNone, domain.AlignCenter},
		},
	}}

	out, err := NewCodec().Serialize(doc)
	require.NoError(t, err)
	assert.Equal(t, "| a | b |\n| --- | :-: |\n| 1 | pipe \\| in cell |\n", out)
}

func TestSerialize_FenceGrowsPastBackticksInCode(t *testing.T) {
	doc := &domain.Document{Blocks: []domain.Block{
		&domain.CodeBlock{Text: "```\nnested fence\n```\n"},
	}}

	out, err := NewCodec().Serialize(doc)
	require.NoError(t, err)
	assert.Equal(t, "````\n```\nnested fence\n```\n````\n", out)
}

func TestSerialize_InlineCodeWithBacktick(t *testing.T) {
	doc := &domain.Document{Blocks: []domain.Block{
		&domain.Paragraph{Content: []domain.Span{&domain.Code{Text: "a`b"}}},
	}}

	out, err := NewCodec().Serialize(doc)
	require.NoError(t, err)
	assert.Equal(t, "`` a`b ``\n", out)
}

func TestRoundTrip_StructuralEquality(t *testing.T) {
	source := `# Report

Intro with *emphasis*, **strong**, ` + "`code`" + ` and a [link](https://example.test).

- first
- second

    1. nested
    2. deeper

> a quote
>
> with two paragraphs

` + "```go\nfmt.Println(\"hi\")\n```" + `

| h1 | h2 |
| --- | --- |
| a | b |

---
`
	codec := NewCodec()
	doc, warnings, err := codec.Parse(source)
	require.NoError(t, err)
	require.Empty(t, warnings)

	out, err := codec.Serialize(doc)
	require.NoError(t, err)

	doc2, warnings, err := codec.Parse(out)
	require.NoError(t, err)
	require.Empty(t, warnings)
	assert.Equal(t, doc, doc2)
}

func TestRoundTrip_CanonicalFormIsStable(t *testing.T) {
	// Non-canonical input normalises once, then reproduces itself exactly.
	source := "* star bullet\n* another\n"
	codec := NewCodec()

	doc, _, err := codec.Parse(source)
	require.NoError(t, err)
	first, err := codec.Serialize(doc)
	require.NoError(t, err)
	assert.Equal(t, "- star bullet\n- another\n", first)

	doc2, _, err := codec.Parse(first)
	require.NoError(t, err)
	second, err := codec.Serialize(doc2)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSerialize_EmptyDocument(t *testing.T) {
	out, err := NewCodec().Serialize(&domain.Document{})
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestMergeText_FoldsAdjacentRuns(t *testing.T) {
	spans := mergeText([]domain.Span{
		&domain.Text{Text: "a"},
		&domain.Text{Text: "b"},
		&domain.Code{Text: "c"},
		&domain.Text{Text: "d"},
	})
	assert.Equal(t, []domain.Span{
		&domain.Text{Text: "ab"},
		&domain.Code{Text: "c"},
		&domain.Text{Text: "d"},
	}, spans)
}
