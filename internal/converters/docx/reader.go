package docx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/markbear/markbear/internal/core/domain"
)

// reader resolves the parts of a word-processing package and maps them
// onto the IR.
type reader struct {
	body     *bodyXML
	headings map[string]int  // style id -> heading level
	quotes   map[string]bool // style ids rendered as blockquotes
	codes    map[string]bool // style ids rendered as code blocks
	numFmts  map[string]map[int]string
	numAbs   map[string]string // numId -> abstractNumId
	rels     map[string]string // relationship id -> target
	warnings []domain.Warning
}

var headingStyleRe = regexp.MustCompile(`(?i)^heading\s*([1-6])$`)

func newReader(zr *zip.Reader) (*reader, error) {
	r := &reader{
		headings: map[string]int{},
		quotes:   map[string]bool{},
		codes:    map[string]bool{},
		numFmts:  map[string]map[int]string{},
		numAbs:   map[string]string{},
		rels:     map[string]string{},
	}

	raw, err := readPart(zr, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("%w: missing word/document.xml", domain.ErrUnsupportedVariant)
	}
	var doc documentXML
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)
	}
	r.body = &doc.Body

	// Supporting parts are optional; a package missing them still imports.
	if raw, err := readPart(zr, "word/styles.xml"); err == nil {
		r.loadStyles(raw)
	}
	if raw, err := readPart(zr, "word/numbering.xml"); err == nil {
		r.loadNumbering(raw)
	}
	if raw, err := readPart(zr, "word/_rels/document.xml.rels"); err == nil {
		r.loadRels(raw)
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

func (r *reader) loadStyles(raw []byte) {
	var styles stylesXML
	if err := xml.Unmarshal(raw, &styles); err != nil {
		r.warnf("styles part unreadable, using defaults: %v", err)
		return
	}
	for _, s := range styles.Styles {
		for _, candidate := range []string{s.ID, s.Name.Val} {
			if m := headingStyleRe.FindStringSubmatch(candidate); m != nil {
				level, _ := strconv.Atoi(m[1])
				r.headings[s.ID] = level
				break
			}
		}
		switch s.ID {
		case "Quote", "IntenseQuote", "BlockQuote":
			r.quotes[s.ID] = true
		case "Code", "CodeBlock", "HTMLPreformatted", "SourceCode":
			r.codes[s.ID] = true
		}
	}
}

func (r *reader) loadNumbering(raw []byte) {
	var numbering numberingXML
	if err := xml.Unmarshal(raw, &numbering); err != nil {
		r.warnf("numbering part unreadable, lists default to bullets: %v", err)
		return
	}
	for _, abs := range numbering.AbstractNums {
		fmts := map[int]string{}
		for _, lvl := range abs.Levels {
			ilvl, _ := strconv.Atoi(lvl.Ilvl)
			fmts[ilvl] = lvl.NumFmt.Val
		}
		r.numFmts[abs.ID] = fmts
	}
	for _, num := range numbering.Nums {
		r.numAbs[num.ID] = num.AbstractID.Val
	}
}

func (r *reader) loadRels(raw []byte) {
	var rels relationshipsXML
	if err := xml.Unmarshal(raw, &rels); err != nil {
		r.warnf("relationships part unreadable: %v", err)
		return
	}
	for _, rel := range rels.Rels {
		r.rels[rel.ID] = rel.Target
	}
}

// ordered reports whether the numbering definition for numId/ilvl is a
// numbered (rather than bulleted) list level.
func (r *reader) ordered(numID string, ilvl int) bool {
	fmts, ok := r.numFmts[r.numAbs[numID]]
	if !ok {
		return false
	}
	switch fmts[ilvl] {
	case "", "bullet", "none":
		return false
	default:
		return true
	}
}

// listEntry is one numbered paragraph awaiting list assembly.
type listEntry struct {
	level   int
	ordered bool
	blocks  []domain.Block
}

// document maps the package body onto the IR.
func (r *reader) document() (*domain.Document, []domain.Warning, error) {
	var blocks []domain.Block
	var pendingList []listEntry
	var pendingCode []string
	var pendingQuote []domain.Block

	flushList := func() {
		if len(pendingList) > 0 {
			blocks = append(blocks, buildList(pendingList))
			pendingList = nil
		}
	}
	flushCode := func() {
		if len(pendingCode) > 0 {
			blocks = append(blocks, &domain.CodeBlock{Text: strings.Join(pendingCode, "\n") + "\n"})
			pendingCode = nil
		}
	}
	flushQuote := func() {
		if len(pendingQuote) > 0 {
			blocks = append(blocks, &domain.Blockquote{Blocks: pendingQuote})
			pendingQuote = nil
		}
	}

	for _, el := range r.body.Elements {
		switch {
		case el.Table != nil:
			flushList()
			flushCode()
			flushQuote()
			blocks = append(blocks, r.table(el.Table))

		case el.Paragraph != nil:
			p := el.Paragraph
			if style := p.styleID(); r.codes[style] {
				flushList()
				flushQuote()
				pendingCode = append(pendingCode, domain.PlainText(r.spans(p)))
				continue
			}
			flushCode()
			if style := p.styleID(); r.quotes[style] {
				flushList()
				if spans := r.spans(p); len(spans) > 0 {
					pendingQuote = append(pendingQuote, &domain.Paragraph{Content: spans})
				}
				continue
			}
			flushQuote()
			if numID, ilvl, ok := p.numbering(); ok {
				spans := r.spans(p)
				pendingList = append(pendingList, listEntry{
					level:   ilvl,
					ordered: r.ordered(numID, ilvl),
					blocks:  []domain.Block{&domain.Paragraph{Content: spans}},
				})
				continue
			}
			flushList()
			if blk := r.paragraph(p); blk != nil {
				blocks = append(blocks, blk)
			}
		}
	}
	flushList()
	flushCode()
	flushQuote()

	return &domain.Document{Blocks: blocks}, r.warnings, nil
}

// paragraph maps a non-list paragraph to a block, repairing unknown styles
// to a plain paragraph.
func (r *reader) paragraph(p *paragraphXML) domain.Block {
	if img := p.soleDrawing(); img != nil {
		return r.image(img)
	}

	spans := r.spans(p)
	style := p.styleID()

	switch {
	case p.hasBorder() && len(spans) == 0:
		return &domain.Rule{}
	case len(spans) == 0:
		return nil
	}

	if level, ok := r.headings[style]; ok {
		return &domain.Heading{Level: level, Content: spans}
	}
	if style != "" && !r.known(style) {
		r.warnf("unknown paragraph style %q treated as body text", style)
	}
	return &domain.Paragraph{Content: spans}
}

func (r *reader) known(style string) bool {
	if _, ok := r.headings[style]; ok {
		return true
	}
	return r.quotes[style] || r.codes[style] || style == "Normal"
}

func (r *reader) image(d *inlineXML) domain.Block {
	alt := d.DocPr.Descr
	if alt == "" {
		alt = d.DocPr.Name
	}
	source := ""
	if d.Blip != nil {
		if target, ok := r.rels[d.Blip.Embed]; ok {
			source = path.Join("word", target)
		}
	}
	if source == "" {
		r.warnf("image %q has no resolvable media target", alt)
	}
	return &domain.Image{Source: source, Alt: alt}
}

func (r *reader) table(t *tableXML) domain.Block {
	var rows [][]domain.Cell
	for _, tr := range t.Rows {
		var cells []domain.Cell
		for _, tc := range tr.Cells {
			var spans []domain.Span
			for i := range tc.Paragraphs {
				ps := r.spans(&tc.Paragraphs[i])
				if len(ps) == 0 {
					continue
				}
				if len(spans) > 0 {
					spans = append(spans, &domain.Text{Text: " "})
				}
				spans = append(spans, ps...)
			}
			cells = append(cells, domain.Cell(spans))
		}
		rows = append(rows, cells)
	}
	rows, warns := domain.SquareTable(rows)
	r.warnings = append(r.warnings, warns...)

	var aligns []domain.Alignment
	if len(rows) > 0 {
		aligns = make([]domain.Alignment, len(rows[0]))
	}
	return &domain.Table{Rows: rows, Alignments: aligns}
}

// spans flattens a paragraph's runs and hyperlinks to inline content.
func (r *reader) spans(p *paragraphXML) []domain.Span {
	var out []domain.Span
	for _, item := range p.Content {
		switch {
		case item.Run != nil:
			out = append(out, r.runSpans(item.Run, true)...)
		case item.Hyperlink != nil:
			var children []domain.Span
			for i := range item.Hyperlink.Runs {
				children = append(children, r.runSpans(&item.Hyperlink.Runs[i], false)...)
			}
			target := r.rels[item.Hyperlink.ID]
			if target == "" && item.Hyperlink.Anchor != "" {
				target = "#" + item.Hyperlink.Anchor
			}
			out = append(out, &domain.Link{Children: children, Target: target})
		}
	}
	return mergeText(out)
}

// runSpans converts one run: its text wrapped by the run properties.
// Drawings inside mixed content degrade to alt text.
func (r *reader) runSpans(run *runXML, allowImages bool) []domain.Span {
	var out []domain.Span
	text := strings.Join(run.Texts, "")
	if text != "" {
		var s domain.Span
		if run.Props.mono() {
			s = &domain.Code{Text: text}
		} else {
			s = &domain.Text{Text: text}
		}
		if run.Props.italic() {
			s = &domain.Emphasis{Children: []domain.Span{s}}
		}
		if run.Props.bold() {
			s = &domain.Strong{Children: []domain.Span{s}}
		}
		if run.Props.strike() {
			s = &domain.Strikethrough{Children: []domain.Span{s}}
		}
		out = append(out, s)
	}
	for range run.Breaks {
		out = append(out, &domain.LineBreak{})
	}
	if d := run.Drawing.inline(); d != nil {
		alt := d.DocPr.Descr
		if alt == "" {
			alt = d.DocPr.Name
		}
		r.warnf("inline image %q flattened to alt text", alt)
		if alt != "" {
			out = append(out, &domain.Text{Text: alt})
		}
	}
	return out
}

func buildList(entries []listEntry) domain.Block {
	base := entries[0].level
	var items []domain.ListItem
	i := 0
	for i < len(entries) {
		if entries[i].level <= base {
			items = append(items, domain.ListItem{Blocks: entries[i].blocks})
			i++
			continue
		}
		j := i
		for j < len(entries) && entries[j].level > base {
			j++
		}
		sub := buildList(entries[i:j])
		if len(items) == 0 {
			items = append(items, domain.ListItem{})
		}
		items[len(items)-1].Blocks = append(items[len(items)-1].Blocks, sub)
		i = j
	}
	if entries[0].ordered {
		return &domain.OrderedList{Items: items}
	}
	return &domain.BulletList{Items: items}
}

// mergeText folds adjacent literal text spans into one.
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
