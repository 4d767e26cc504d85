// Package convert renders parsed DOCX content into wiki storage markup.
package convert

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-wikisync/internal/docx"
	"github.com/goliatone/go-wikisync/internal/logging"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

const (
	headingPrefix = "Heading "
	errorPrefix   = "Error converting DOCX: "
)

// Converter turns .docx files into page bodies. Failures never escape: they
// become a placeholder body.
type Converter struct {
	logger interfaces.Logger
	open   func(path string) (*docx.Document, error)
}

// Option customises a Converter.
type Option func(*Converter)

// WithLogger sets the logger used to report conversion failures.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithOpener replaces the document reader, mostly for tests.
func WithOpener(open func(path string) (*docx.Document, error)) Option {
	return func(c *Converter) {
		if open != nil {
			c.open = open
		}
	}
}

func New(opts ...Option) *Converter {
	c := &Converter{
		logger: logging.NoOp(),
		open:   docx.Open,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConvertFile reads path and renders its body. The returned bool is false
// when the placeholder was produced instead.
func (c *Converter) ConvertFile(path string) (string, bool) {
	doc, err := c.open(path)
	if err != nil {
		c.logger.Warn("convert.failed", "path", path, "error", err)
		return Placeholder(err), false
	}
	return Render(doc), true
}

// Render emits headings and paragraphs in order, then tables in order, one
// block per line.
func Render(doc *docx.Document) string {
	if doc == nil {
		return ""
	}
	blocks := make([]string, 0, len(doc.Paragraphs)+len(doc.Tables))
	for _, p := range doc.Paragraphs {
		if block, ok := renderParagraph(p); ok {
			blocks = append(blocks, block)
		}
	}
	for _, t := range doc.Tables {
		blocks = append(blocks, renderTable(t))
	}
	return strings.Join(blocks, "\n")
}

// Placeholder is the body stored for a document that failed to convert.
func Placeholder(err error) string {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return "<p>" + Escape(errorPrefix+msg) + "</p>"
}

// Escape replaces &, < and >, in that order.
func Escape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, ">", "&gt;")
}

// HeadingLevel parses "Heading N" style names. N must be a plain integer.
func HeadingLevel(style string) (int, bool) {
	rest, ok := strings.CutPrefix(style, headingPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	level, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return level, true
}

func renderParagraph(p docx.Paragraph) (string, bool) {
	text := p.Text()
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	if level, ok := HeadingLevel(p.Style); ok {
		tag := "h" + strconv.Itoa(clampLevel(level))
		return "<" + tag + ">" + text + "</" + tag + ">", true
	}

	var b strings.Builder
	b.WriteString("<p>")
	for _, run := range p.Runs {
		b.WriteString(renderRun(run))
	}
	b.WriteString("</p>")
	return b.String(), true
}

func renderRun(run docx.Run) string {
	out := Escape(run.Text)
	if run.Underline {
		out = "<u>" + out + "</u>"
	}
	if run.Italic {
		out = "<em>" + out + "</em>"
	}
	if run.Bold {
		out = "<strong>" + out + "</strong>"
	}
	return out
}

func renderTable(t docx.Table) string {
	var b strings.Builder
	b.WriteString("<table><tbody>")
	for _, row := range t.Rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>")
			b.WriteString(cell)
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

func clampLevel(level int) int {
	switch {
	case level < 1:
		return 1
	case level > 6:
		return 6
	default:
		return level
	}
}
