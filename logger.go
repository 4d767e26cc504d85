package wikisync

import (
	"io"
	"os"
	"strings"

	"github.com/goliatone/go-wikisync/internal/logging/console"
	"github.com/goliatone/go-wikisync/internal/logging/gologger"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

// NewLoggerProvider builds the provider selected by cfg. Console output goes
// to w (stderr when nil).
func NewLoggerProvider(cfg LoggingConfig, w io.Writer) (interfaces.LoggerProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
		})
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		level, _ := console.ParseLevel(cfg.Level)
		if w == nil {
			w = os.Stderr
		}
		return console.NewProvider(console.Options{
			Writer:   w,
			MinLevel: &level,
		}), nil
	}
}
