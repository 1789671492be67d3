package pptx

// presentationXML is the subset of ppt/presentation.xml the importer
// needs. Slide id order here is presentation order.
type presentationXML struct {
	SlideIDs []slideIDXML `xml:"sldIdLst>sldId"`
}

type slideIDXML struct {
	RelID string `xml:"id,attr"`
}

// slideXML is one ppt/slides/slideN.xml.
type slideXML struct {
	Shapes []shapeXML `xml:"cSld>spTree>sp"`
}

type shapeXML struct {
	Placeholder *placeholderXML `xml:"nvSpPr>nvPr>ph"`
	Paragraphs  []paraXML       `xml:"txBody>p"`
}

func (s *shapeXML) isTitle() bool {
	if s.Placeholder == nil {
		return false
	}
	switch s.Placeholder.Type {
	case "title", "ctrTitle":
		return true
	default:
		return false
	}
}

type placeholderXML struct {
	Type string `xml:"type,attr"`
}

type paraXML struct {
	Props *paraPrXML `xml:"pPr"`
	Runs  []runXML   `xml:"r"`
}

type paraPrXML struct {
	Level     string    `xml:"lvl,attr"`
	BuChar    *struct{} `xml:"buChar"`
	BuAutoNum *struct{} `xml:"buAutoNum"`
	BuNone    *struct{} `xml:"buNone"`
}

type runXML struct {
	Props *runPrXML `xml:"rPr"`
	Text  string    `xml:"t"`
}

type runPrXML struct {
	Bold   string    `xml:"b,attr"`
	Italic string    `xml:"i,attr"`
	Strike string    `xml:"strike,attr"`
	Latin  *latinXML `xml:"latin"`
	Hlink  *hlinkXML `xml:"hlinkClick"`
}

type latinXML struct {
	Typeface string `xml:"typeface,attr"`
}

type hlinkXML struct {
	RelID string `xml:"id,attr"`
}

func flag(v string) bool {
	return v == "1" || v == "true"
}

func (p *runPrXML) bold() bool   { return p != nil && flag(p.Bold) }
func (p *runPrXML) italic() bool { return p != nil && flag(p.Italic) }

func (p *runPrXML) struck() bool {
	return p != nil && p.Strike != "" && p.Strike != "noStrike"
}

// mono reports whether the run overrides the latin typeface with a
// fixed-width face, read back as inline code.
func (p *runPrXML) mono() bool {
	if p == nil || p.Latin == nil {
		return false
	}
	switch p.Latin.Typeface {
	case "Consolas", "Courier", "Courier New", "Menlo", "Monaco":
		return true
	default:
		return false
	}
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
