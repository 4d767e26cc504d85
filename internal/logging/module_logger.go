package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

const (
	rootModule       = "wikisync"
	syncModule       = "wikisync.sync"
	confluenceModule = "wikisync.confluence"
	purgeModule      = "wikisync.purge"
	markdownModule   = "wikisync.markdown"
)

const (
	fieldSyncPath  = "sync_path"
	fieldSyncStage = "sync_stage"
	fieldSyncTier  = "permission_tier"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// SyncLogger returns the logger namespace reserved for the tree synchronizer.
func SyncLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, syncModule)
}

// ConfluenceLogger returns the logger namespace reserved for the wiki client.
func ConfluenceLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, confluenceModule)
}

// PurgeLogger returns the logger namespace reserved for the purge utility.
func PurgeLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, purgeModule)
}

// MarkdownLogger returns the logger namespace reserved for README rendering.
func MarkdownLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markdownModule)
}

// WithSyncContext enriches the logger with the local path, sync stage and
// permission tier of the unit being processed. Empty values are ignored.
func WithSyncContext(logger interfaces.Logger, path, stage, tier string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldSyncPath] = trimmed
	}
	if trimmed := strings.TrimSpace(stage); trimmed != "" {
		fields[fieldSyncStage] = trimmed
	}
	if trimmed := strings.TrimSpace(tier); trimmed != "" {
		fields[fieldSyncTier] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
