// Package markdown renders folder README files into the introduction shown on
// folder pages.
package markdown

import (
	"errors"
	"fmt"
	"html"
	"io/fs"
	"path"
	"strings"

	"github.com/goliatone/go-wikisync/internal/logging"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

// ReadmeName is matched case-insensitively inside each folder.
const ReadmeName = "README.md"

// IntroLoader finds and renders README files from a filesystem.
type IntroLoader struct {
	fsys   fs.FS
	parser interfaces.MarkdownParser
	logger interfaces.Logger
}

// IntroOption customises an IntroLoader.
type IntroOption func(*IntroLoader)

// WithParser overrides the Markdown parser.
func WithParser(parser interfaces.MarkdownParser) IntroOption {
	return func(l *IntroLoader) {
		if parser != nil {
			l.parser = parser
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger interfaces.Logger) IntroOption {
	return func(l *IntroLoader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewIntroLoader reads READMEs from fsys. The default parser renders XHTML
// with raw HTML disabled, which storage markup accepts.
func NewIntroLoader(fsys fs.FS, opts ...IntroOption) *IntroLoader {
	l := &IntroLoader{
		fsys:   fsys,
		parser: NewGoldmarkParser(interfaces.ParseOptions{SafeMode: true, XHTML: true}),
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the intro for the folder at dir (slash separated, "" for the
// root), or nil when the folder has no README.
func (l *IntroLoader) Load(dir string) (*interfaces.FolderIntro, error) {
	if l == nil || l.fsys == nil {
		return nil, nil
	}
	name, err := l.findReadme(dir)
	if err != nil || name == "" {
		return nil, err
	}

	source, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("markdown: read %s: %w", name, err)
	}
	meta, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, fmt.Errorf("markdown: %s: %w", name, err)
	}
	rendered, err := l.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("markdown: %s: %w", name, err)
	}

	l.logger.Debug("markdown.intro.rendered", "path", name, "bytes", len(rendered))
	return &interfaces.FolderIntro{
		SourcePath:  name,
		FrontMatter: meta,
		HTML:        rendered,
	}, nil
}

func (l *IntroLoader) findReadme(dir string) (string, error) {
	root := dir
	if root == "" {
		root = "."
	}
	entries, err := fs.ReadDir(l.fsys, root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("markdown: list %s: %w", root, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(entry.Name(), ReadmeName) {
			continue
		}
		if dir == "" {
			return entry.Name(), nil
		}
		return path.Join(dir, entry.Name()), nil
	}
	return "", nil
}

// StorageHTML renders the intro as a storage markup fragment: the front
// matter summary as an emphasised paragraph, then the README body.
func StorageHTML(intro *interfaces.FolderIntro) string {
	if intro == nil {
		return ""
	}
	var b strings.Builder
	if summary := strings.TrimSpace(intro.FrontMatter.Summary); summary != "" {
		b.WriteString("<p><em>")
		b.WriteString(html.EscapeString(summary))
		b.WriteString("</em></p>")
	}
	b.WriteString(strings.TrimSpace(string(intro.HTML)))
	return b.String()
}
