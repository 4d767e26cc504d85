package docx

import (
	"encoding/xml"
	"strings"
)

type xmlDocument struct {
	Body xmlBody `xml:"body"`
}

// xmlBody keeps body-level paragraphs and tables. Content nested in other
// containers (sdt, text boxes) is ignored.
type xmlBody struct {
	Paragraphs []xmlParagraph
	Tables     []xmlTable
}

func (b *xmlBody) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "p":
				var p xmlParagraph
				if err := d.DecodeElement(&p, &el); err != nil {
					return err
				}
				b.Paragraphs = append(b.Paragraphs, p)
			case "tbl":
				var t xmlTable
				if err := d.DecodeElement(&t, &el); err != nil {
					return err
				}
				b.Tables = append(b.Tables, t)
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

type xmlParagraph struct {
	StyleID string
	Runs    []xmlRun
}

func (p *xmlParagraph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "pPr":
				var props xmlParagraphProps
				if err := d.DecodeElement(&props, &el); err != nil {
					return err
				}
				p.StyleID = props.Style.Val
			case "r":
				var r xmlRun
				if err := d.DecodeElement(&r, &el); err != nil {
					return err
				}
				p.Runs = append(p.Runs, r)
			case "hyperlink", "smartTag", "ins":
				var inner xmlParagraph
				if err := d.DecodeElement(&inner, &el); err != nil {
					return err
				}
				p.Runs = append(p.Runs, inner.Runs...)
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

type xmlParagraphProps struct {
	Style xmlVal `xml:"pStyle"`
}

type xmlVal struct {
	Val string `xml:"val,attr"`
}

type xmlRun struct {
	Bold      bool
	Italic    bool
	Underline bool
	Text      string
}

func (r *xmlRun) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "rPr":
				if err := r.decodeProps(d); err != nil {
					return err
				}
			case "t":
				var text string
				if err := d.DecodeElement(&text, &el); err != nil {
					return err
				}
				r.Text += text
			case "tab":
				r.Text += "\t"
				if err := d.Skip(); err != nil {
					return err
				}
			case "br", "cr":
				r.Text += "\n"
				if err := d.Skip(); err != nil {
					return err
				}
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

func (r *xmlRun) decodeProps(d *xml.Decoder) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			val, _ := attr(el, "val")
			switch el.Name.Local {
			case "b":
				r.Bold = toggleOn(val)
			case "i":
				r.Italic = toggleOn(val)
			case "u":
				r.Underline = val != "none" && toggleOn(val)
			}
			if err := d.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

type xmlTable struct {
	Rows []xmlRow `xml:"tr"`
}

type xmlRow struct {
	Cells []xmlCell `xml:"tc"`
}

type xmlCell struct {
	Paragraphs []xmlParagraph `xml:"p"`
}

func (c xmlCell) text() string {
	lines := make([]string, 0, len(c.Paragraphs))
	for _, p := range c.Paragraphs {
		lines = append(lines, p.text())
	}
	return strings.Join(lines, "\n")
}

func (p xmlParagraph) text() string {
	var b strings.Builder
	for i := range p.Runs {
		b.WriteString(p.Runs[i].Text)
	}
	return b.String()
}

type xmlStyles struct {
	Styles []xmlStyle `xml:"style"`
}

type xmlStyle struct {
	Type    string `xml:"type,attr"`
	ID      string `xml:"styleId,attr"`
	Default string `xml:"default,attr"`
	Name    xmlVal `xml:"name"`
}

// toggleOn interprets an OOXML on/off attribute; an absent value means on.
func toggleOn(val string) bool {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "false", "0", "off":
		return false
	default:
		return true
	}
}

func attr(el xml.StartElement, local string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}
