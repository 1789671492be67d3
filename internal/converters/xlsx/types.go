package xlsx

import "strings"

// workbookXML is the subset of xl/workbook.xml the importer needs. Sheet
// order here is presentation order.
type workbookXML struct {
	Sheets []sheetRefXML `xml:"sheets>sheet"`
}

type sheetRefXML struct {
	Name  string `xml:"name,attr"`
	RelID string `xml:"id,attr"`
}

// sstXML is xl/sharedStrings.xml. Rich-text runs inside an item are
// concatenated; formatting is not carried.
type sstXML struct {
	Items []ssiXML `xml:"si"`
}

type ssiXML struct {
	Text string   `xml:"t"`
	Runs []string `xml:"r>t"`
}

func (s *ssiXML) value() string {
	if len(s.Runs) > 0 {
		return strings.Join(s.Runs, "")
	}
	return s.Text
}

type worksheetXML struct {
	Rows []rowXML `xml:"sheetData>row"`
}

type rowXML struct {
	Cells []cellXML `xml:"c"`
}

type cellXML struct {
	Ref     string     `xml:"r,attr"`
	Type    string     `xml:"t,attr"`
	Value   string     `xml:"v"`
	Formula string     `xml:"f"`
	Inline  *inlineStr `xml:"is"`
}

type inlineStr struct {
	Text string   `xml:"t"`
	Runs []string `xml:"r>t"`
}

func (i *inlineStr) value() string {
	if i == nil {
		return ""
	}
	if len(i.Runs) > 0 {
		return strings.Join(i.Runs, "")
	}
	return i.Text
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
