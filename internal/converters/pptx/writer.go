package pptx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/markbear/markbear/internal/core/domain"
	"github.com/markbear/markbear/internal/safeio"
)

// bullet kinds for body paragraphs.
const (
	buNone = iota
	buBullet
	buNumber
)

// bodyPara is one rendered body line awaiting slide assembly.
type bodyPara struct {
	bullet int
	level  int
	xml    string // rendered a:r / a:br sequence
}

type slide struct {
	title string // rendered run sequence, empty for an untitled slide
	body  []bodyPara
	rels  []relXML // hyperlinks
}

// writer splits the document into slides and assembles the package.
type writer struct {
	styles   *domain.StyleContext
	slides   []slide
	current  *slide
	splitLvl int
	warnings []domain.Warning
}

func newWriter(styles *domain.StyleContext) *writer {
	return &writer{styles: styles, splitLvl: -1}
}

func (w *writer) warnf(format string, args ...any) {
	w.warnings = append(w.warnings, domain.Warningf(format, args...))
}

func esc(s string) string {
	var sb strings.Builder
	xml.EscapeText(&sb, []byte(s))
	return sb.String()
}

// build walks the document. The first heading's level fixes the slide
// boundary: headings at that level or shallower start a new slide, deeper
// ones become bold body lines.
func (w *writer) build(doc *domain.Document) []domain.Warning {
	for _, blk := range doc.Blocks {
		if h, ok := blk.(*domain.Heading); ok {
			if w.splitLvl < 0 {
				w.splitLvl = h.Level
			}
			if h.Level <= w.splitLvl {
				w.slides = append(w.slides, slide{})
				w.current = &w.slides[len(w.slides)-1]
				w.current.title = w.spans(h.Content, runProps{})
				continue
			}
			w.para(buNone, 0, w.spans(h.Content, runProps{bold: true}))
			continue
		}
		w.block(blk)
	}
	if len(w.slides) == 0 {
		w.slides = append(w.slides, slide{})
	}
	return w.warnings
}

// ensure returns the slide under construction, creating an untitled one
// for content preceding the first heading.
func (w *writer) ensure() *slide {
	if w.current == nil {
		w.slides = append(w.slides, slide{})
		w.current = &w.slides[len(w.slides)-1]
	}
	return w.current
}

func (w *writer) para(bullet, level int, runs string) {
	s := w.ensure()
	s.body = append(s.body, bodyPara{bullet: bullet, level: level, xml: runs})
}

func (w *writer) block(blk domain.Block) {
	switch v := blk.(type) {
	case *domain.Paragraph:
		w.para(buNone, 0, w.spans(v.Content, runProps{}))
	case *domain.BulletList:
		w.list(v.Items, buBullet, 0)
	case *domain.OrderedList:
		w.list(v.Items, buNumber, 0)
	case *domain.Blockquote:
		w.warnf("blockquote rendered as plain slide lines")
		for _, child := range v.Blocks {
			w.block(child)
		}
	case *domain.CodeBlock:
		for _, line := range strings.Split(strings.TrimRight(v.Text, "\n"), "\n") {
			w.para(buNone, 0, w.spans([]domain.Span{&domain.Code{Text: line}}, runProps{}))
		}
	case *domain.Table:
		w.warnf("table flattened to one slide line per row")
		rows, warns := domain.SquareTable(v.Rows)
		w.warnings = append(w.warnings, warns...)
		for _, row := range rows {
			parts := make([]string, len(row))
			for i, cell := range row {
				parts[i] = domain.PlainText(cell)
			}
			w.para(buNone, 0, w.spans([]domain.Span{&domain.Text{Text: strings.Join(parts, " | ")}}, runProps{}))
		}
	case *domain.Rule:
		w.warnf("horizontal rule has no slide representation and was dropped")
	case *domain.Image:
		alt := v.Alt
		if alt == "" {
			alt = v.Source
		}
		w.warnf("image %q rendered as alt text", v.Source)
		w.para(buNone, 0, w.spans([]domain.Span{
			&domain.Emphasis{Children: []domain.Span{&domain.Text{Text: alt}}},
		}, runProps{}))
	}
}

func (w *writer) list(items []domain.ListItem, bullet, level int) {
	for _, item := range items {
		for _, blk := range item.Blocks {
			switch v := blk.(type) {
			case *domain.Paragraph:
				w.para(bullet, level, w.spans(v.Content, runProps{}))
			case *domain.BulletList:
				w.list(v.Items, buBullet, level+1)
			case *domain.OrderedList:
				w.list(v.Items, buNumber, level+1)
			default:
				w.warnf("%T inside a list item exported without list nesting", blk)
				w.block(blk)
			}
		}
	}
}

// runProps is the emphasis state inherited while descending a span tree.
type runProps struct {
	bold, italic, strike, mono bool
	link                       string
}

// spans renders inline content to a sequence of a:r elements.
func (w *writer) spans(spans []domain.Span, props runProps) string {
	var sb strings.Builder
	for _, s := range spans {
		switch v := s.(type) {
		case *domain.Text:
			sb.WriteString(w.run(v.Text, props))
		case *domain.Emphasis:
			p := props
			p.italic = true
			sb.WriteString(w.spans(v.Children, p))
		case *domain.Strong:
			p := props
			p.bold = true
			sb.WriteString(w.spans(v.Children, p))
		case *domain.Strikethrough:
			p := props
			p.strike = true
			sb.WriteString(w.spans(v.Children, p))
		case *domain.Code:
			p := props
			p.mono = true
			sb.WriteString(w.run(v.Text, p))
		case *domain.Link:
			p := props
			p.link = v.Target
			sb.WriteString(w.spans(v.Children, p))
		case *domain.LineBreak:
			sb.WriteString("<a:br/>")
		}
	}
	return sb.String()
}

func (w *writer) run(text string, props runProps) string {
	var attrs strings.Builder
	if props.bold {
		attrs.WriteString(` b="1"`)
	}
	if props.italic {
		attrs.WriteString(` i="1"`)
	}
	if props.strike {
		attrs.WriteString(` strike="sngStrike"`)
	}
	var children strings.Builder
	if props.mono {
		fmt.Fprintf(&children, `<a:latin typeface="%s"/>`, w.styles.MonoFont)
	}
	if props.link != "" {
		s := w.ensure()
		relID := fmt.Sprintf("rId%d", len(s.rels)+2) // rId1 is the layout
		s.rels = append(s.rels, relXML{
			ID:     relID,
			Type:   "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink",
			Target: props.link,
		})
		fmt.Fprintf(&children, `<a:hlinkClick xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" r:id="%s"/>`, relID)
	}
	return fmt.Sprintf(`<a:r><a:rPr lang="en-US"%s>%s</a:rPr><a:t>%s</a:t></a:r>`,
		attrs.String(), children.String(), esc(text))
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
			{"ppt/presentation.xml", w.presentationXML()},
			{"ppt/_rels/presentation.xml.rels", w.presentationRels()},
			{"ppt/slideMasters/slideMaster1.xml", masterXML},
			{"ppt/slideMasters/_rels/slideMaster1.xml.rels", masterRels},
			{"ppt/slideLayouts/slideLayout1.xml", layoutXML},
			{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", layoutRels},
		}
		for i, s := range w.slides {
			parts = append(parts,
				struct{ name, content string }{fmt.Sprintf("ppt/slides/slide%d.xml", i+1), slidePart(&s)},
				struct{ name, content string }{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), slideRels(&s)},
			)
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
	sb.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`)
	for i := range w.slides {
		fmt.Fprintf(&sb, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i+1)
	}
	sb.WriteString(`</Types>`)
	return sb.String()
}

func (w *writer) presentationXML() string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(`<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">`)
	sb.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	sb.WriteString(`<p:sldIdLst>`)
	for i := range w.slides {
		fmt.Fprintf(&sb, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+2)
	}
	sb.WriteString(`</p:sldIdLst>`)
	sb.WriteString(`<p:sldSz cx="12192000" cy="6858000"/>`)
	sb.WriteString(`</p:presentation>`)
	return sb.String()
}

func (w *writer) presentationRels() string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	sb.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`)
	for i := range w.slides {
		fmt.Fprintf(&sb,
			`<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`,
			i+2, i+1)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

func slidePart(s *slide) string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(`<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"` +
		` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">`)
	sb.WriteString(`<p:cSld><p:spTree>` +
		`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)

	if s.title != "" {
		sb.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title"/><p:cNvSpPr/>` +
			`<p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/>` +
			`<a:p>` + s.title + `</a:p></p:txBody></p:sp>`)
	}
	if len(s.body) > 0 {
		sb.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="3" name="Content"/><p:cNvSpPr/>` +
			`<p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/>`)
		for _, p := range s.body {
			sb.WriteString(`<a:p><a:pPr`)
			if p.level > 0 {
				fmt.Fprintf(&sb, ` lvl="%d"`, p.level)
			}
			sb.WriteString(`>`)
			switch p.bullet {
			case buBullet:
				sb.WriteString(`<a:buChar char="&#8226;"/>`)
			case buNumber:
				sb.WriteString(`<a:buAutoNum type="arabicPeriod"/>`)
			default:
				sb.WriteString(`<a:buNone/>`)
			}
			sb.WriteString(`</a:pPr>` + p.xml + `</a:p>`)
		}
		sb.WriteString(`</p:txBody></p:sp>`)
	}
	sb.WriteString(`</p:spTree></p:cSld></p:sld>`)
	return sb.String()
}

func slideRels(s *slide) string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	sb.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>`)
	for _, rel := range s.rels {
		fmt.Fprintf(&sb, `<Relationship Id="%s" Type="%s" Target="%s" TargetMode="External"/>`,
			rel.ID, rel.Type, esc(rel.Target))
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

const packageRels = xml.Header +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>` +
	`</Relationships>`

const masterXML = xml.Header +
	`<p:sldMaster xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"` +
	` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
	` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">` +
	`<p:cSld><p:spTree>` +
	`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
	`</p:spTree></p:cSld>` +
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2"` +
	` accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
	`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>` +
	`</p:sldMaster>`

const masterRels = xml.Header +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
	`</Relationships>`

const layoutXML = xml.Header +
	`<p:sldLayout xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"` +
	` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" type="titleAndBody">` +
	`<p:cSld><p:spTree>` +
	`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
	`</p:spTree></p:cSld>` +
	`</p:sldLayout>`

const layoutRels = xml.Header +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="../slideMasters/slideMaster1.xml"/>` +
	`</Relationships>`
