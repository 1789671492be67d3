package docx

import (
	"encoding/xml"
	"strconv"
)

// documentXML is the root of word/document.xml.
type documentXML struct {
	Body bodyXML `xml:"body"`
}

// bodyXML preserves the interleaving order of paragraphs and tables, which
// field-based unmarshalling would lose.
type bodyXML struct {
	Elements []bodyElement
}

type bodyElement struct {
	Paragraph *paragraphXML
	Table     *tableXML
}

func (b *bodyXML) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				var p paragraphXML
				if err := d.DecodeElement(&p, &t); err != nil {
					return err
				}
				b.Elements = append(b.Elements, bodyElement{Paragraph: &p})
			case "tbl":
				var tbl tableXML
				if err := d.DecodeElement(&tbl, &t); err != nil {
					return err
				}
				b.Elements = append(b.Elements, bodyElement{Table: &tbl})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// paragraphXML preserves the order of runs and hyperlinks.
type paragraphXML struct {
	Props   *pPrXML
	Content []paragraphItem
}

type paragraphItem struct {
	Run       *runXML
	Hyperlink *hyperlinkXML
}

func (p *paragraphXML) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				var props pPrXML
				if err := d.DecodeElement(&props, &t); err != nil {
					return err
				}
				p.Props = &props
			case "r":
				var run runXML
				if err := d.DecodeElement(&run, &t); err != nil {
					return err
				}
				p.Content = append(p.Content, paragraphItem{Run: &run})
			case "hyperlink":
				var link hyperlinkXML
				if err := d.DecodeElement(&link, &t); err != nil {
					return err
				}
				p.Content = append(p.Content, paragraphItem{Hyperlink: &link})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (p *paragraphXML) styleID() string {
	if p.Props == nil || p.Props.Style == nil {
		return ""
	}
	return p.Props.Style.Val
}

func (p *paragraphXML) numbering() (numID string, ilvl int, ok bool) {
	if p.Props == nil || p.Props.NumPr == nil || p.Props.NumPr.NumID == nil {
		return "", 0, false
	}
	if p.Props.NumPr.Ilvl != nil {
		ilvl, _ = strconv.Atoi(p.Props.NumPr.Ilvl.Val)
	}
	return p.Props.NumPr.NumID.Val, ilvl, true
}

func (p *paragraphXML) hasBorder() bool {
	return p.Props != nil && p.Props.Border != nil
}

// soleDrawing returns the drawing when the paragraph contains exactly one
// run holding only a drawing, i.e. a block-level image.
func (p *paragraphXML) soleDrawing() *inlineXML {
	if len(p.Content) != 1 || p.Content[0].Run == nil {
		return nil
	}
	run := p.Content[0].Run
	if len(run.Texts) > 0 || run.Drawing == nil {
		return nil
	}
	return run.Drawing.inline()
}

type pPrXML struct {
	Style  *valAttr  `xml:"pStyle"`
	NumPr  *numPrXML `xml:"numPr"`
	Border *struct{} `xml:"pBdr"`
}

type numPrXML struct {
	Ilvl  *valAttr `xml:"ilvl"`
	NumID *valAttr `xml:"numId"`
}

type valAttr struct {
	Val string `xml:"val,attr"`
}

type runXML struct {
	Props   *rPrXML     `xml:"rPr"`
	Texts   []string    `xml:"t"`
	Breaks  []struct{}  `xml:"br"`
	Drawing *drawingXML `xml:"drawing"`
}

type rPrXML struct {
	Bold   *valAttr   `xml:"b"`
	Italic *valAttr   `xml:"i"`
	Strike *valAttr   `xml:"strike"`
	Fonts  *rFontsXML `xml:"rFonts"`
}

type rFontsXML struct {
	Ascii string `xml:"ascii,attr"`
}

// toggle properties are on unless explicitly disabled.
func toggled(v *valAttr) bool {
	if v == nil {
		return false
	}
	switch v.Val {
	case "0", "false", "none":
		return false
	default:
		return true
	}
}

func (p *rPrXML) bold() bool   { return p != nil && toggled(p.Bold) }
func (p *rPrXML) italic() bool { return p != nil && toggled(p.Italic) }
func (p *rPrXML) strike() bool { return p != nil && toggled(p.Strike) }

// mono reports whether the run overrides the body font with a fixed-width
// face, which the importer reads as inline code.
func (p *rPrXML) mono() bool {
	if p == nil || p.Fonts == nil {
		return false
	}
	switch p.Fonts.Ascii {
	case "Consolas", "Courier", "Courier New", "Menlo", "Monaco":
		return true
	default:
		return false
	}
}

type hyperlinkXML struct {
	ID     string   `xml:"id,attr"`
	Anchor string   `xml:"anchor,attr"`
	Runs   []runXML `xml:"r"`
}

type drawingXML struct {
	Inline *inlineXML `xml:"inline"`
	Anchor *inlineXML `xml:"anchor"`
}

func (d *drawingXML) inline() *inlineXML {
	if d == nil {
		return nil
	}
	if d.Inline != nil {
		return d.Inline
	}
	return d.Anchor
}

type inlineXML struct {
	DocPr docPrXML `xml:"docPr"`
	Blip  *blipXML `xml:"graphic>graphicData>pic>blipFill>blip"`
}

type docPrXML struct {
	Name  string `xml:"name,attr"`
	Descr string `xml:"descr,attr"`
}

type blipXML struct {
	Embed string `xml:"embed,attr"`
}

type tableXML struct {
	Rows []tableRowXML `xml:"tr"`
}

type tableRowXML struct {
	Cells []tableCellXML `xml:"tc"`
}

type tableCellXML struct {
	Paragraphs []paragraphXML `xml:"p"`
}

// stylesXML is the subset of word/styles.xml the importer needs.
type stylesXML struct {
	Styles []styleXML `xml:"style"`
}

type styleXML struct {
	ID   string  `xml:"styleId,attr"`
	Name valAttr `xml:"name"`
}

// numberingXML maps numbering ids to their level formats.
type numberingXML struct {
	AbstractNums []abstractNumXML `xml:"abstractNum"`
	Nums         []numXML         `xml:"num"`
}

type abstractNumXML struct {
	ID     string   `xml:"abstractNumId,attr"`
	Levels []lvlXML `xml:"lvl"`
}

type lvlXML struct {
	Ilvl   string  `xml:"ilvl,attr"`
	NumFmt valAttr `xml:"numFmt"`
}

type numXML struct {
	ID         string  `xml:"numId,attr"`
	AbstractID valAttr `xml:"abstractNumId"`
}

// relationshipsXML is a part's .rels file.
type relationshipsXML struct {
	Rels []relXML `xml:"Relationship"`
}

type relXML struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}
