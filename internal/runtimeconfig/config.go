package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var (
	ErrConfluenceConfigInvalid = errors.New("wikisync config: confluence settings are invalid")
	ErrDataDirRequired         = errors.New("wikisync config: data directory is required")
	ErrLookupCacheSizeInvalid  = errors.New("wikisync config: lookup cache size must be zero or positive")
	ErrHTTPTimeoutInvalid      = errors.New("wikisync config: http timeout must be zero or positive")
	ErrLoggingProviderRequired = errors.New("wikisync config: logging provider is required")
	ErrLoggingProviderUnknown  = errors.New("wikisync config: logging provider is invalid")
	ErrLoggingLevelInvalid     = errors.New("wikisync config: logging level is invalid")
	ErrLoggingFormatInvalid    = errors.New("wikisync config: logging format is invalid")
)

// Config aggregates everything a sync or purge run needs. Fields use simple
// types so they can be populated from the environment or by host code.
type Config struct {
	Confluence ConfluenceConfig
	Sync       SyncConfig
	Logging    LoggingConfig
	Metrics    MetricsConfig
}

// ConfluenceConfig holds the remote wiki connection settings.
type ConfluenceConfig struct {
	BaseURL  string
	Username string
	APIToken string
	SpaceKey string
	// RootPageID anchors top-level folders. Empty means folders are created at
	// the space root and the root folder index is never rewritten.
	RootPageID string
	// InternalGroup is the group granted access to [INT] pages. Empty turns
	// the internal tier into a no-op.
	InternalGroup string
	// HTTPTimeout bounds each request; zero keeps the transport default.
	HTTPTimeout time.Duration
	// LookupCacheSize bounds the in-run title lookup cache; zero selects the client default.
	LookupCacheSize int
}

// SyncConfig controls the local side of a run.
type SyncConfig struct {
	DataDir     string
	DryRun      bool
	ReadmeIntro bool
}

// LoggingConfig selects the logger provider.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
}

// MetricsConfig controls the optional Prometheus textfile export.
type MetricsConfig struct {
	TextfilePath string
}

// DefaultConfig returns the defaults applied before environment overrides.
func DefaultConfig() Config {
	return Config{
		Confluence: ConfluenceConfig{
			LookupCacheSize: 1024,
		},
		Sync: SyncConfig{
			DataDir:     "data",
			ReadmeIntro: true,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs high-level consistency checks. Remote credentials are only
// required when the run talks to the wiki.
func (cfg Config) Validate() error {
	if err := cfg.ValidateLocal(); err != nil {
		return err
	}
	if !cfg.Sync.DryRun {
		if err := cfg.Confluence.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrConfluenceConfigInvalid, err)
		}
	}
	return nil
}

// ValidateLocal checks everything except the remote credentials. The purge
// utility and dry runs only need this much.
func (cfg Config) ValidateLocal() error {
	if strings.TrimSpace(cfg.Sync.DataDir) == "" {
		return ErrDataDirRequired
	}
	if cfg.Confluence.LookupCacheSize < 0 {
		return ErrLookupCacheSizeInvalid
	}
	if cfg.Confluence.HTTPTimeout < 0 {
		return ErrHTTPTimeoutInvalid
	}
	return cfg.Logging.Validate()
}

// Validate checks the settings required to reach the wiki.
func (c ConfluenceConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.APIToken, validation.Required),
		validation.Field(&c.SpaceKey, validation.Required),
	)
}

// Validate checks the logging provider, level and format.
func (l LoggingConfig) Validate() error {
	provider := normalizeProvider(l.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(l.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(l.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
