// Package docx reads the body of a WordprocessingML package into the small
// paragraph/run/table model the converter consumes.
package docx

import "strings"

// Document is the ordered body content of a .docx file.
type Document struct {
	Paragraphs []Paragraph
	Tables     []Table
}

// Paragraph is a body paragraph with its resolved style name.
type Paragraph struct {
	Style string
	Runs  []Run
}

// Text concatenates the run texts.
func (p Paragraph) Text() string {
	if len(p.Runs) == 1 {
		return p.Runs[0].Text
	}
	var b strings.Builder
	for _, run := range p.Runs {
		b.WriteString(run.Text)
	}
	return b.String()
}

// Run is a span of text sharing one set of formatting flags.
type Run struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
}

// Table is a grid of plain cell text, row major.
type Table struct {
	Rows [][]string
}
