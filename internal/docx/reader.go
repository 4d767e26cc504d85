package docx

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	documentPart = "word/document.xml"
	stylesPart   = "word/styles.xml"

	// DefaultStyle is the style name reported for paragraphs without an
	// explicit style when the package declares no default.
	DefaultStyle = "Normal"
)

var (
	// ErrMissingDocumentPart indicates the archive has no main document part.
	ErrMissingDocumentPart = errors.New("docx: word/document.xml not found")
)

// Open reads the .docx file at path.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("docx: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("docx: stat %s: %w", path, err)
	}
	return Read(f, info.Size())
}

// Read parses a .docx package from r.
func Read(r io.ReaderAt, size int64) (*Document, error) {
	archive, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("docx: read archive: %w", err)
	}

	var documentFile, stylesFile *zip.File
	for _, file := range archive.File {
		switch file.Name {
		case documentPart:
			documentFile = file
		case stylesPart:
			stylesFile = file
		}
	}
	if documentFile == nil {
		return nil, ErrMissingDocumentPart
	}

	styles := styleNames{}
	if stylesFile != nil {
		if styles, err = readStyles(stylesFile); err != nil {
			return nil, err
		}
	}

	var raw xmlDocument
	if err := decodePart(documentFile, &raw); err != nil {
		return nil, err
	}
	return build(raw, styles), nil
}

func decodePart(file *zip.File, v any) error {
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("docx: open %s: %w", file.Name, err)
	}
	defer rc.Close()

	if err := xml.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("docx: decode %s: %w", file.Name, err)
	}
	return nil
}

// styleNames maps paragraph style ids to display names.
type styleNames struct {
	byID         map[string]string
	defaultStyle string
}

func readStyles(file *zip.File) (styleNames, error) {
	var raw xmlStyles
	if err := decodePart(file, &raw); err != nil {
		return styleNames{}, err
	}
	names := styleNames{byID: make(map[string]string, len(raw.Styles))}
	for _, style := range raw.Styles {
		if style.Type != "" && style.Type != "paragraph" {
			continue
		}
		name := canonicalStyleName(style.Name.Val)
		if name == "" {
			name = style.ID
		}
		names.byID[style.ID] = name
		if toggleOn(style.Default) && style.Default != "" {
			names.defaultStyle = name
		}
	}
	return names, nil
}

func (s styleNames) resolve(id string) string {
	if id == "" {
		if s.defaultStyle != "" {
			return s.defaultStyle
		}
		return DefaultStyle
	}
	if name, ok := s.byID[id]; ok {
		return name
	}
	return id
}

// canonicalStyleName capitalises the lower-case built-in names Word stores
// ("heading 1", "normal") to the form shown in the UI.
func canonicalStyleName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	lower := strings.ToLower(name)
	if lower == name && (lower == "normal" || lower == "title" || strings.HasPrefix(lower, "heading ")) {
		return strings.ToUpper(name[:1]) + name[1:]
	}
	return name
}

func build(raw xmlDocument, styles styleNames) *Document {
	doc := &Document{
		Paragraphs: make([]Paragraph, 0, len(raw.Body.Paragraphs)),
		Tables:     make([]Table, 0, len(raw.Body.Tables)),
	}
	for _, p := range raw.Body.Paragraphs {
		paragraph := Paragraph{Style: styles.resolve(p.StyleID)}
		for _, r := range p.Runs {
			paragraph.Runs = append(paragraph.Runs, Run{
				Text:      r.Text,
				Bold:      r.Bold,
				Italic:    r.Italic,
				Underline: r.Underline,
			})
		}
		doc.Paragraphs = append(doc.Paragraphs, paragraph)
	}
	for _, t := range raw.Body.Tables {
		table := Table{Rows: make([][]string, 0, len(t.Rows))}
		for _, row := range t.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				cells = append(cells, cell.text())
			}
			table.Rows = append(table.Rows, cells)
		}
		doc.Tables = append(doc.Tables, table)
	}
	return doc
}
