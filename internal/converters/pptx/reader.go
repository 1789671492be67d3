package pptx

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

// reader resolves a presentation package and maps its slides onto the IR.
type reader struct {
	zr           *zip.Reader
	presentation presentationXML
	rels         map[string]string // presentation rels: id -> target under ppt/
	warnings     []domain.Warning
}

func newReader(zr *zip.Reader) (*reader, error) {
	r := &reader{zr: zr, rels: map[string]string{}}

	raw, err := readPart(zr, "ppt/presentation.xml")
	if err != nil {
		return nil, fmt.Errorf("%w: missing ppt/presentation.xml", domain.ErrUnsupportedVariant)
	}
	if err := xml.Unmarshal(raw, &r.presentation); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)
	}

	if raw, err := readPart(zr, "ppt/_rels/presentation.xml.rels"); err == nil {
		var rels relationshipsXML
		if err := xml.Unmarshal(raw, &rels); err == nil {
			for _, rel := range rels.Rels {
				r.rels[rel.ID] = rel.Target
			}
		}
	}

	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/notesSlides/") && strings.HasSuffix(f.Name, ".xml") {
			r.warnf("speaker notes are not converted and were dropped")
			break
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

func (r *reader) document() (*domain.Document, []domain.Warning, error) {
	var blocks []domain.Block
	for i, id := range r.presentation.SlideIDs {
		slideBlocks, err := r.slide(id.RelID, i)
		if err != nil {
			return nil, nil, err
		}
		blocks = append(blocks, slideBlocks...)
	}
	return &domain.Document{Blocks: blocks}, r.warnings, nil
}

func (r *reader) slide(relID string, index int) ([]domain.Block, error) {
	target, ok := r.rels[relID]
	if !ok {
		target = fmt.Sprintf("slides/slide%d.xml", index+1)
	}
	partName := path.Join("ppt", target)

	raw, err := readPart(r.zr, partName)
	if err != nil {
		return nil, fmt.Errorf("%w: slide %d has no part", domain.ErrUnsupportedVariant, index+1)
	}
	var slide slideXML
	if err := xml.Unmarshal(raw, &slide); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)
	}

	slideRels := r.loadSlideRels(partName)

	var blocks []domain.Block
	for i := range slide.Shapes {
		sp := &slide.Shapes[i]
		if sp.isTitle() {
			for j := range sp.Paragraphs {
				spans := r.paraSpans(&sp.Paragraphs[j], slideRels)
				if len(spans) == 0 {
					continue
				}
				if j == 0 {
					blocks = append(blocks, &domain.Heading{Level: 1, Content: spans})
				} else {
					blocks = append(blocks, &domain.Paragraph{Content: spans})
				}
			}
			continue
		}
		blocks = append(blocks, r.bodyBlocks(sp, slideRels)...)
	}
	return blocks, nil
}

func (r *reader) loadSlideRels(partName string) map[string]string {
	rels := map[string]string{}
	relsPart := path.Join(path.Dir(partName), "_rels", path.Base(partName)+".rels")
	if raw, err := readPart(r.zr, relsPart); err == nil {
		var parsed relationshipsXML
		if err := xml.Unmarshal(raw, &parsed); err == nil {
			for _, rel := range parsed.Rels {
				rels[rel.ID] = rel.Target
			}
		}
	}
	return rels
}

// listEntry is one bulleted paragraph awaiting list assembly.
type listEntry struct {
	level   int
	ordered bool
	blocks  []domain.Block
}

// bodyBlocks maps a body placeholder: explicit bullet or auto-number
// properties make list items, everything else is a paragraph.
func (r *reader) bodyBlocks(sp *shapeXML, slideRels map[string]string) []domain.Block {
	var blocks []domain.Block
	var pending []listEntry

	flush := func() {
		if len(pending) > 0 {
			blocks = append(blocks, buildList(pending))
			pending = nil
		}
	}

	for i := range sp.Paragraphs {
		p := &sp.Paragraphs[i]
		spans := r.paraSpans(p, slideRels)
		if len(spans) == 0 {
			flush()
			continue
		}
		if p.Props != nil && (p.Props.BuChar != nil || p.Props.BuAutoNum != nil) {
			level := 0
			if p.Props.Level != "" {
				level, _ = strconv.Atoi(p.Props.Level)
			}
			pending = append(pending, listEntry{
				level:   level,
				ordered: p.Props.BuAutoNum != nil,
				blocks:  []domain.Block{&domain.Paragraph{Content: spans}},
			})
			continue
		}
		flush()
		blocks = append(blocks, &domain.Paragraph{Content: spans})
	}
	flush()
	return blocks
}

// paraSpans flattens a paragraph's runs, merging consecutive runs that
// share a hyperlink target into one link.
func (r *reader) paraSpans(p *paraXML, slideRels map[string]string) []domain.Span {
	var out []domain.Span
	for i := range p.Runs {
		run := &p.Runs[i]
		if run.Text == "" {
			continue
		}
		s := runSpan(run)
		if run.Props != nil && run.Props.Hlink != nil {
			target := slideRels[run.Props.Hlink.RelID]
			if len(out) > 0 {
				if link, ok := out[len(out)-1].(*domain.Link); ok && link.Target == target {
					link.Children = mergeText(append(link.Children, s))
					continue
				}
			}
			out = append(out, &domain.Link{Children: []domain.Span{s}, Target: target})
			continue
		}
		out = append(out, s)
	}
	return mergeText(out)
}

func runSpan(run *runXML) domain.Span {
	var s domain.Span
	if run.Props.mono() {
		s = &domain.Code{Text: run.Text}
	} else {
		s = &domain.Text{Text: run.Text}
	}
	if run.Props.italic() {
		s = &domain.Emphasis{Children: []domain.Span{s}}
	}
	if run.Props.bold() {
		s = &domain.Strong{Children: []domain.Span{s}}
	}
	if run.Props.struck() {
		s = &domain.Strikethrough{Children: []domain.Span{s}}
	}
	return s
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
