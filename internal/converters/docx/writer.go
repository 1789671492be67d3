package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	_ "image/gif"  // register decoders for export image sizing
	_ "image/jpeg" //
	_ "image/png"  //
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/markbear/markbear/internal/core/domain"
	"github.com/markbear/markbear/internal/safeio"
)

// Numbering definitions written by the exporter: one bullet, one decimal,
// each covering all nesting levels.
const (
	bulletNumID  = 1
	decimalNumID = 2
)

const emuPerPixel = 9525

// writer builds the parts of a word-processing package from the IR.
type writer struct {
	styles   *domain.StyleContext
	body     strings.Builder
	rels     []relXML
	media    []mediaFile
	warnings []domain.Warning
}

type mediaFile struct {
	name string
	ext  string
	data []byte
}

func newWriter(styles *domain.StyleContext) *writer {
	return &writer{styles: styles}
}

func (w *writer) warnf(format string, args ...any) {
	w.warnings = append(w.warnings, domain.Warningf(format, args...))
}

func esc(s string) string {
	var sb strings.Builder
	xml.EscapeText(&sb, []byte(s))
	return sb.String()
}

// build renders every block into the document body and returns the
// accumulated warnings.
func (w *writer) build(doc *domain.Document) []domain.Warning {
	for _, blk := range doc.Blocks {
		w.block(blk, "")
	}
	return w.warnings
}

// block writes one block. styleID, when set, overrides the paragraph style
// (used to carry the quote style into blockquote children).
func (w *writer) block(blk domain.Block, styleID string) {
	switch v := blk.(type) {
	case *domain.Heading:
		w.paragraph(w.styles.HeadingStyleID(v.Level), -1, 0, v.Content)
	case *domain.Paragraph:
		w.paragraph(styleID, -1, 0, v.Content)
	case *domain.BulletList:
		w.list(v.Items, bulletNumID, 0)
	case *domain.OrderedList:
		w.list(v.Items, decimalNumID, 0)
	case *domain.Blockquote:
		for _, child := range v.Blocks {
			w.block(child, "Quote")
		}
	case *domain.CodeBlock:
		// One Code-styled paragraph per line; the importer folds
		// consecutive code paragraphs back into a single block.
		for _, line := range strings.Split(strings.TrimRight(v.Text, "\n"), "\n") {
			w.paragraph("Code", -1, 0, []domain.Span{&domain.Text{Text: line}})
		}
	case *domain.Table:
		w.table(v)
	case *domain.Rule:
		w.body.WriteString(`<w:p><w:pPr><w:pBdr><w:bottom w:val="single" w:sz="6" w:space="1" w:color="auto"/></w:pBdr></w:pPr></w:p>`)
	case *domain.Image:
		w.image(v)
	}
}

func (w *writer) list(items []domain.ListItem, numID, ilvl int) {
	for _, item := range items {
		for _, blk := range item.Blocks {
			switch v := blk.(type) {
			case *domain.Paragraph:
				w.paragraph("", numID, ilvl, v.Content)
			case *domain.BulletList:
				w.list(v.Items, bulletNumID, ilvl+1)
			case *domain.OrderedList:
				w.list(v.Items, decimalNumID, ilvl+1)
			default:
				w.warnf("%T inside a list item exported without list nesting", blk)
				w.block(blk, "")
			}
		}
	}
}

// paragraph writes one w:p. numID < 0 means no numbering.
func (w *writer) paragraph(styleID string, numID, ilvl int, spans []domain.Span) {
	w.body.WriteString("<w:p>")
	if styleID != "" || numID >= 0 {
		w.body.WriteString("<w:pPr>")
		if styleID != "" {
			fmt.Fprintf(&w.body, `<w:pStyle w:val="%s"/>`, styleID)
		}
		if numID >= 0 {
			fmt.Fprintf(&w.body, `<w:numPr><w:ilvl w:val="%d"/><w:numId w:val="%d"/></w:numPr>`, ilvl, numID)
		}
		w.body.WriteString("</w:pPr>")
	}
	w.spans(spans, runProps{})
	w.body.WriteString("</w:p>")
}

// runProps is the emphasis state inherited while descending the span tree.
type runProps struct {
	bold, italic, strike, code bool
}

func (w *writer) spans(spans []domain.Span, props runProps) {
	for _, s := range spans {
		switch v := s.(type) {
		case *domain.Text:
			w.run(v.Text, props)
		case *domain.Emphasis:
			p := props
			p.italic = true
			w.spans(v.Children, p)
		case *domain.Strong:
			p := props
			p.bold = true
			w.spans(v.Children, p)
		case *domain.Strikethrough:
			p := props
			p.strike = true
			w.spans(v.Children, p)
		case *domain.Code:
			p := props
			p.code = true
			w.run(v.Text, p)
		case *domain.Link:
			relID := w.addRel("http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink", v.Target)
			fmt.Fprintf(&w.body, `<w:hyperlink r:id="%s">`, relID)
			w.spans(v.Children, props)
			w.body.WriteString("</w:hyperlink>")
		case *domain.LineBreak:
			w.body.WriteString("<w:r><w:br/></w:r>")
		}
	}
}

func (w *writer) run(text string, props runProps) {
	w.body.WriteString("<w:r>")
	if props.bold || props.italic || props.strike || props.code {
		w.body.WriteString("<w:rPr>")
		if props.code {
			fmt.Fprintf(&w.body, `<w:rFonts w:ascii="%s" w:hAnsi="%s"/>`, w.styles.MonoFont, w.styles.MonoFont)
		}
		if props.bold {
			w.body.WriteString("<w:b/>")
		}
		if props.italic {
			w.body.WriteString("<w:i/>")
		}
		if props.strike {
			w.body.WriteString("<w:strike/>")
		}
		w.body.WriteString("</w:rPr>")
	}
	fmt.Fprintf(&w.body, `<w:t xml:space="preserve">%s</w:t>`, esc(text))
	w.body.WriteString("</w:r>")
}

func (w *writer) table(t *domain.Table) {
	rows, warns := domain.SquareTable(t.Rows)
	w.warnings = append(w.warnings, warns...)
	if len(rows) == 0 {
		return
	}

	w.body.WriteString("<w:tbl><w:tblPr>")
	if w.styles.TableBorders {
		w.body.WriteString(`<w:tblBorders>` +
			`<w:top w:val="single" w:sz="4" w:color="auto"/>` +
			`<w:left w:val="single" w:sz="4" w:color="auto"/>` +
			`<w:bottom w:val="single" w:sz="4" w:color="auto"/>` +
			`<w:right w:val="single" w:sz="4" w:color="auto"/>` +
			`<w:insideH w:val="single" w:sz="4" w:color="auto"/>` +
			`<w:insideV w:val="single" w:sz="4" w:color="auto"/>` +
			`</w:tblBorders>`)
	}
	w.body.WriteString("</w:tblPr>")

	for i, row := range rows {
		w.body.WriteString("<w:tr>")
		if i == 0 {
			w.body.WriteString("<w:trPr><w:tblHeader/></w:trPr>")
		}
		for _, cell := range row {
			w.body.WriteString("<w:tc><w:p>")
			w.spans(cell, runProps{})
			w.body.WriteString("</w:p></w:tc>")
		}
		w.body.WriteString("</w:tr>")
	}
	w.body.WriteString("</w:tbl>")
}

// image embeds a readable local image file; anything else degrades to its
// alt text with a warning.
func (w *writer) image(img *domain.Image) {
	data, ext, err := loadImage(img.Source)
	if err != nil {
		w.warnf("image %q not embedded (%v); alt text written instead", img.Source, err)
		alt := img.Alt
		if alt == "" {
			alt = img.Source
		}
		w.paragraph("", -1, 0, []domain.Span{
			&domain.Emphasis{Children: []domain.Span{&domain.Text{Text: alt}}},
		})
		return
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		cfg.Width, cfg.Height = 400, 300
	}
	name := fmt.Sprintf("image%d.%s", len(w.media)+1, ext)
	w.media = append(w.media, mediaFile{name: name, ext: ext, data: data})
	relID := w.addRel("http://schemas.openxmlformats.org/officeDocument/2006/relationships/image", "media/"+name)

	cx, cy := cfg.Width*emuPerPixel, cfg.Height*emuPerPixel
	fmt.Fprintf(&w.body,
		`<w:p><w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">`+
			`<wp:extent cx="%d" cy="%d"/>`+
			`<wp:docPr id="%d" name="%s" descr="%s"/>`+
			`<a:graphic xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">`+
			`<a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
			`<pic:pic xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
			`<pic:nvPicPr><pic:cNvPr id="%d" name="%s"/><pic:cNvPicPr/></pic:nvPicPr>`+
			`<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
			`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
			`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
			`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p>`,
		cx, cy, len(w.media), esc(name), esc(img.Alt), len(w.media), esc(name), relID, cx, cy)
}

func loadImage(source string) ([]byte, string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(source)), ".")
	switch ext {
	case "png", "gif", "jpeg":
	case "jpg":
		ext = "jpeg"
	default:
		return nil, "", fmt.Errorf("unsupported image type %q", ext)
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, "", err
	}
	return data, ext, nil
}

// addRel registers a relationship and returns its id.
func (w *writer) addRel(relType, target string) string {
	id := fmt.Sprintf("rId%d", len(w.rels)+1)
	w.rels = append(w.rels, relXML{ID: id, Type: relType, Target: target})
	return id
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
			{"word/document.xml", w.documentXML()},
			{"word/styles.xml", w.stylesXML()},
			{"word/numbering.xml", numberingPart},
			{"word/_rels/document.xml.rels", w.documentRels()},
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
		for _, m := range w.media {
			f, err := zw.Create("word/media/" + m.name)
			if err != nil {
				return err
			}
			if _, err := f.Write(m.data); err != nil {
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
	for _, ext := range []string{"png", "gif", "jpeg"} {
		if w.hasMedia(ext) {
			fmt.Fprintf(&sb, `<Default Extension="%s" ContentType="image/%s"/>`, ext, ext)
		}
	}
	sb.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`)
	sb.WriteString(`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>`)
	sb.WriteString(`<Override PartName="/word/numbering.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"/>`)
	sb.WriteString(`</Types>`)
	return sb.String()
}

func (w *writer) hasMedia(ext string) bool {
	for _, m := range w.media {
		if m.ext == ext {
			return true
		}
	}
	return false
}

func (w *writer) documentXML() string {
	return xml.Header +
		`<w:document` +
		` xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
		` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing">` +
		`<w:body>` + w.body.String() + `</w:body></w:document>`
}

func (w *writer) documentRels() string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, rel := range w.rels {
		mode := ""
		if rel.Type == "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" {
			mode = ` TargetMode="External"`
		}
		fmt.Fprintf(&sb, `<Relationship Id="%s" Type="%s" Target="%s"%s/>`, rel.ID, rel.Type, esc(rel.Target), mode)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

// stylesXML declares the styles the importer recognises, sized from the
// style context (w:sz is in half-points).
func (w *writer) stylesXML() string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`)
	fmt.Fprintf(&sb,
		`<w:style w:type="paragraph" w:styleId="Normal" w:default="1"><w:name w:val="Normal"/>`+
			`<w:rPr><w:rFonts w:ascii="%s" w:hAnsi="%s"/><w:sz w:val="%d"/></w:rPr></w:style>`,
		w.styles.BaseFont, w.styles.BaseFont, int(w.styles.BaseSize*2))
	for level := 1; level <= 6; level++ {
		fmt.Fprintf(&sb,
			`<w:style w:type="paragraph" w:styleId="%s"><w:name w:val="heading %d"/><w:basedOn w:val="Normal"/>`+
				`<w:rPr><w:b/><w:sz w:val="%d"/></w:rPr></w:style>`,
			w.styles.HeadingStyleID(level), level, int(w.styles.HeadingSize(level)*2))
	}
	fmt.Fprintf(&sb,
		`<w:style w:type="paragraph" w:styleId="Quote"><w:name w:val="Quote"/><w:basedOn w:val="Normal"/>`+
			`<w:pPr><w:ind w:left="720"/></w:pPr><w:rPr><w:i/></w:rPr></w:style>`)
	fmt.Fprintf(&sb,
		`<w:style w:type="paragraph" w:styleId="Code"><w:name w:val="Code"/><w:basedOn w:val="Normal"/>`+
			`<w:rPr><w:rFonts w:ascii="%s" w:hAnsi="%s"/></w:rPr></w:style>`,
		w.styles.MonoFont, w.styles.MonoFont)
	sb.WriteString(`</w:styles>`)
	return sb.String()
}

const packageRels = xml.Header +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

// numberingPart defines one bullet and one decimal numbering, nine levels
// deep, indented 720 twips per level.
var numberingPart = buildNumberingPart()

func buildNumberingPart() string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(`<w:numbering xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`)
	defs := []struct{ fmtName, bulletText string }{
		{"bullet", "•"},
		{"decimal", ""},
	}
	for abs, def := range defs {
		fmt.Fprintf(&sb, `<w:abstractNum w:abstractNumId="%d">`, abs)
		for lvl := 0; lvl < 9; lvl++ {
			text := def.bulletText
			if def.fmtName == "decimal" {
				text = fmt.Sprintf("%%%d.", lvl+1)
			}
			fmt.Fprintf(&sb,
				`<w:lvl w:ilvl="%d"><w:numFmt w:val="%s"/><w:lvlText w:val="%s"/>`+
					`<w:pPr><w:ind w:left="%d" w:hanging="360"/></w:pPr></w:lvl>`,
				lvl, def.fmtName, text, 720*(lvl+1))
		}
		sb.WriteString(`</w:abstractNum>`)
	}
	fmt.Fprintf(&sb, `<w:num w:numId="%d"><w:abstractNumId w:val="0"/></w:num>`, bulletNumID)
	fmt.Fprintf(&sb, `<w:num w:numId="%d"><w:abstractNumId w:val="1"/></w:num>`, decimalNumID)
	sb.WriteString(`</w:numbering>`)
	return sb.String()
}
