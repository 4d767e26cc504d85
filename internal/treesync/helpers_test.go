package treesync

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/goliatone/go-wikisync/internal/confluence"
	"github.com/goliatone/go-wikisync/internal/convert"
	"github.com/goliatone/go-wikisync/internal/docx/docxtest"
	"github.com/goliatone/go-wikisync/internal/filename"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

const rootPageID = "root-page"

func newMemory() *confluence.MemoryDirectory {
	dir := confluence.NewMemoryDirectory("DOCS", confluence.WithMemoryAccount("acc-1"))
	dir.Register(interfaces.Page{ID: rootPageID, Title: "Handbook", Body: "<p>root</p>"})
	return dir
}

func newSynchronizer(dir interfaces.PageDirectory, opts ...Option) *Synchronizer {
	base := []Option{
		WithConverter(convert.New()),
		WithClassifier(filename.NewClassifier("staff")),
	}
	return New(dir, append(base, opts...)...)
}

func writeDoc(t *testing.T, root, rel, text string) {
	t.Helper()
	docxtest.Write(t, root, rel, docxtest.Paragraph("", docxtest.Run(text)))
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func mustLookup(t *testing.T, dir *confluence.MemoryDirectory, title, parentID string) interfaces.Page {
	t.Helper()
	page, ok := dir.Lookup(title, parentID)
	if !ok {
		t.Fatalf("expected page %q under %q", title, parentID)
	}
	return page
}

// linkSections maps each h2 heading of a folder body to the page titles
// linked below it.
func linkSections(t *testing.T, body string) map[string][]string {
	t.Helper()
	sections := map[string][]string{}
	current := ""
	inHeading := false
	z := html.NewTokenizer(strings.NewReader(body))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				t.Fatalf("tokenize: %v", z.Err())
			}
			return sections
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "h2":
				inHeading = true
				current = ""
			case "ri:page":
				for _, attr := range tok.Attr {
					if attr.Key == "ri:content-title" {
						sections[current] = append(sections[current], attr.Val)
					}
				}
			}
		case html.EndTagToken:
			if z.Token().Data == "h2" {
				inHeading = false
			}
		case html.TextToken:
			if inHeading {
				current += string(z.Text())
			}
		}
	}
}

type recorderStub struct {
	nodes    map[string]int
	failures map[string]int
}

func newRecorderStub() *recorderStub {
	return &recorderStub{nodes: map[string]int{}, failures: map[string]int{}}
}

func (r *recorderStub) RecordNode(kind, action string) { r.nodes[kind+"/"+action]++ }
func (r *recorderStub) RecordFailure(stage string)     { r.failures[stage]++ }
