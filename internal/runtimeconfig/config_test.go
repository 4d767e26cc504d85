package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-wikisync/internal/runtimeconfig"
)

func validConfig() runtimeconfig.Config {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Confluence.BaseURL = "https://example.atlassian.net"
	cfg.Confluence.Username = "docs-bot@example.com"
	cfg.Confluence.APIToken = "token"
	cfg.Confluence.SpaceKey = "DOCS"
	return cfg
}

func lookupFrom(values map[string]string) runtimeconfig.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestConfigValidate_AcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RequiresConfluenceSettings(t *testing.T) {
	cfg := validConfig()
	cfg.Confluence.APIToken = ""

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrConfluenceConfigInvalid) {
		t.Fatalf("expected ErrConfluenceConfigInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsMalformedBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Confluence.BaseURL = "not a url"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrConfluenceConfigInvalid) {
		t.Fatalf("expected ErrConfluenceConfigInvalid, got %v", err)
	}
}

func TestConfigValidate_DryRunSkipsConfluenceSettings(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Sync.DryRun = true

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected dry run config to validate, got %v", err)
	}
}

func TestConfigValidate_RequiresDataDir(t *testing.T) {
	cfg := validConfig()
	cfg.Sync.DataDir = " "

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrDataDirRequired) {
		t.Fatalf("expected ErrDataDirRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsNegativeCacheSize(t *testing.T) {
	cfg := validConfig()
	cfg.Confluence.LookupCacheSize = -1

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLookupCacheSizeInvalid) {
		t.Fatalf("expected ErrLookupCacheSizeInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownLoggingProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Provider = "syslog"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "xml"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestFromLookup_PrefersNamespacedKeys(t *testing.T) {
	cfg := runtimeconfig.FromLookup(lookupFrom(map[string]string{
		"CONFLUENCE_BASE_URL":       " https://example.atlassian.net ",
		"CONFLUENCE_USERNAME":       "bot@example.com",
		"USERNAME":                  "local-user",
		"API_TOKEN":                 "legacy-token",
		"SPACE_KEY":                 "DOCS",
		"ROOT_PAGE_ID":              "12345",
		"CONFLUENCE_INTERNAL_GROUP": "staff",
		"WIKISYNC_HTTP_TIMEOUT":     "45s",
		"WIKISYNC_DRY_RUN":          "true",
		"WIKISYNC_README_INTRO":     "false",
		"WIKISYNC_LOG_LEVEL":        "debug",
		"WIKISYNC_METRICS_FILE":     "/var/lib/node_exporter/wikisync.prom",
	}))

	if cfg.Confluence.BaseURL != "https://example.atlassian.net" {
		t.Fatalf("expected trimmed base url, got %q", cfg.Confluence.BaseURL)
	}
	if cfg.Confluence.Username != "bot@example.com" {
		t.Fatalf("expected namespaced username to win, got %q", cfg.Confluence.Username)
	}
	if cfg.Confluence.APIToken != "legacy-token" {
		t.Fatalf("expected legacy token fallback, got %q", cfg.Confluence.APIToken)
	}
	if cfg.Confluence.RootPageID != "12345" || cfg.Confluence.InternalGroup != "staff" {
		t.Fatalf("unexpected optional settings: %+v", cfg.Confluence)
	}
	if cfg.Confluence.HTTPTimeout != 45*time.Second {
		t.Fatalf("expected 45s timeout, got %s", cfg.Confluence.HTTPTimeout)
	}
	if !cfg.Sync.DryRun || cfg.Sync.ReadmeIntro {
		t.Fatalf("unexpected sync flags: %+v", cfg.Sync)
	}
	if cfg.Sync.DataDir != "data" {
		t.Fatalf("expected default data dir, got %q", cfg.Sync.DataDir)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Provider != "console" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Metrics.TextfilePath == "" {
		t.Fatal("expected metrics textfile path")
	}
}

func TestFromLookup_InvalidTimeoutFailsValidation(t *testing.T) {
	cfg := runtimeconfig.FromLookup(lookupFrom(map[string]string{
		"CONFLUENCE_BASE_URL":   "https://example.atlassian.net",
		"USERNAME":              "bot",
		"API_TOKEN":             "token",
		"SPACE_KEY":             "DOCS",
		"WIKISYNC_HTTP_TIMEOUT": "soon",
	}))

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrHTTPTimeoutInvalid) {
		t.Fatalf("expected ErrHTTPTimeoutInvalid, got %v", err)
	}
}

func TestLoadEnv_ReadsDotenvAndCategorisesErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wikisync.env")
	if err := os.WriteFile(path, []byte("WIKISYNC_DATA_DIR=docs\nWIKISYNC_DRY_RUN=true\n"), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	t.Setenv("WIKISYNC_DATA_DIR", "")
	t.Setenv("WIKISYNC_DRY_RUN", "")
	os.Unsetenv("WIKISYNC_DATA_DIR")
	os.Unsetenv("WIKISYNC_DRY_RUN")

	cfg, err := runtimeconfig.LoadEnv(path)
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if cfg.Sync.DataDir != "docs" || !cfg.Sync.DryRun {
		t.Fatalf("expected dotenv values, got %+v", cfg.Sync)
	}

	t.Setenv("WIKISYNC_DRY_RUN", "false")
	t.Setenv("CONFLUENCE_BASE_URL", "")
	t.Setenv("CONFLUENCE_SPACE_KEY", "")
	t.Setenv("SPACE_KEY", "")

	_, err = runtimeconfig.LoadEnv(filepath.Join(dir, "missing.env"))
	if err == nil {
		t.Fatal("expected validation error without confluence settings")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
}

func TestConfigValidateLocal_IgnoresConfluenceSettings(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	if err := cfg.ValidateLocal(); err != nil {
		t.Fatalf("expected local validation to pass without credentials, got %v", err)
	}
	cfg.Sync.DataDir = " "
	if err := cfg.ValidateLocal(); !errors.Is(err, runtimeconfig.ErrDataDirRequired) {
		t.Fatalf("expected ErrDataDirRequired, got %v", err)
	}
}

func TestLoad_SkipsValidation(t *testing.T) {
	t.Setenv("CONFLUENCE_BASE_URL", "")
	t.Setenv("WIKISYNC_DRY_RUN", "false")

	cfg, err := runtimeconfig.Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected the loaded config to fail full validation")
	}
	if !goerrors.IsCategory(runtimeconfig.Invalid(cfg.Validate()), goerrors.CategoryValidation) {
		t.Fatal("expected Invalid to tag the validation category")
	}
}
