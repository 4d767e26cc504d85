package interfaces

import "time"

// MarkdownParser defines how raw Markdown bytes are converted into HTML.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown parsing behaviour, keeping option names
// readable for configuration unmarshalling.
type ParseOptions struct {
	Extensions []string
	Sanitize   bool
	HardWraps  bool
	SafeMode   bool
	XHTML      bool
}

// FrontMatter models the metadata a folder README may carry. Only the fields
// the folder index uses are typed; everything else lands in Custom.
type FrontMatter struct {
	Title   string         `yaml:"title" json:"title"`
	Summary string         `yaml:"summary" json:"summary"`
	Tags    []string       `yaml:"tags" json:"tags"`
	Date    time.Time      `yaml:"date" json:"date"`
	Custom  map[string]any `yaml:",inline" json:"custom"`
}

// FolderIntro is the rendered README content placed on a folder page.
type FolderIntro struct {
	SourcePath  string
	FrontMatter FrontMatter
	HTML        []byte
}
