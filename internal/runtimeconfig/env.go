package runtimeconfig

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

const configInvalidCode = "CONFIG_INVALID"

// LookupFunc resolves an environment variable, mirroring os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadEnv loads the optional dotenv files (".env" when none are given) into
// the process environment, builds the configuration from it and validates
// the result. Missing dotenv files are not an error.
func LoadEnv(files ...string) (Config, error) {
	cfg, err := Load(files...)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, Invalid(err)
	}
	return cfg, nil
}

// Load is LoadEnv without validation, for callers that apply flag overrides
// first.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, goerrors.Wrap(err, goerrors.CategoryValidation, "load dotenv file").
			WithTextCode(configInvalidCode)
	}
	return FromLookup(os.LookupEnv), nil
}

// Invalid tags a validation error with the config category.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "wikisync configuration invalid").
		WithTextCode(configInvalidCode)
}

// FromLookup overlays environment values onto DefaultConfig. It performs no
// validation so callers can adjust the result (CLI flags) before validating.
func FromLookup(lookup LookupFunc) Config {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(keys ...string) string {
		values := make([]string, 0, len(keys))
		for _, key := range keys {
			if value, ok := lookup(key); ok {
				values = append(values, strings.TrimSpace(value))
			}
		}
		return firstNonEmpty(values...)
	}

	cfg := DefaultConfig()

	cfg.Confluence.BaseURL = get("CONFLUENCE_BASE_URL")
	cfg.Confluence.Username = get("CONFLUENCE_USERNAME", "USERNAME")
	cfg.Confluence.APIToken = get("CONFLUENCE_API_TOKEN", "API_TOKEN")
	cfg.Confluence.SpaceKey = get("CONFLUENCE_SPACE_KEY", "SPACE_KEY")
	cfg.Confluence.RootPageID = get("CONFLUENCE_ROOT_PAGE_ID", "ROOT_PAGE_ID")
	cfg.Confluence.InternalGroup = get("CONFLUENCE_INTERNAL_GROUP", "INTERNAL_GROUP")
	if raw := get("WIKISYNC_HTTP_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			cfg.Confluence.HTTPTimeout = d
		} else {
			cfg.Confluence.HTTPTimeout = -1
		}
	}
	if raw := get("WIKISYNC_LOOKUP_CACHE_SIZE"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			cfg.Confluence.LookupCacheSize = n
		} else {
			cfg.Confluence.LookupCacheSize = -1
		}
	}

	if dir := get("WIKISYNC_DATA_DIR"); dir != "" {
		cfg.Sync.DataDir = dir
	}
	cfg.Sync.DryRun = parseBool(get("WIKISYNC_DRY_RUN"), cfg.Sync.DryRun)
	cfg.Sync.ReadmeIntro = parseBool(get("WIKISYNC_README_INTRO"), cfg.Sync.ReadmeIntro)

	if provider := get("WIKISYNC_LOG_PROVIDER"); provider != "" {
		cfg.Logging.Provider = provider
	}
	if level := get("WIKISYNC_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	cfg.Logging.Format = get("WIKISYNC_LOG_FORMAT")
	cfg.Logging.AddSource = parseBool(get("WIKISYNC_LOG_ADD_SOURCE"), false)

	cfg.Metrics.TextfilePath = get("WIKISYNC_METRICS_FILE")

	return cfg
}

func parseBool(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
