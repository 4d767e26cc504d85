package synccmd

import (
	"context"
	"errors"
	"fmt"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-wikisync/internal/commands"
	"github.com/goliatone/go-wikisync/internal/logging"
	"github.com/goliatone/go-wikisync/internal/treesync"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

const syncOperation = "sync.tree"

var (
	// ErrUnitsFailed is returned by strict runs that recorded at least one failure.
	ErrUnitsFailed = errors.New("sync command: one or more units failed")
	// ErrServiceRequired is returned when the handler is built without a service.
	ErrServiceRequired = errors.New("sync command: service is nil")
)

var _ command.Commander[SyncTreeCommand] = (*SyncTreeHandler)(nil)

// Service runs one mirror pass.
type Service interface {
	SyncTree(ctx context.Context, cmd SyncTreeCommand) (*treesync.Result, error)
}

// ResultSink receives the outcome of every successful run.
type ResultSink func(cmd SyncTreeCommand, result *treesync.Result)

// SyncTreeHandler drives Service through the shared command handler foundation.
type SyncTreeHandler struct {
	inner *commands.Handler[SyncTreeCommand]
}

// NewSyncTreeHandler creates a handler bound to service. Runs are not subject
// to the default command timeout; pass commands.WithTimeout to impose one.
func NewSyncTreeHandler(service Service, logger interfaces.Logger, sink ResultSink, opts ...commands.HandlerOption[SyncTreeCommand]) *SyncTreeHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg SyncTreeCommand) error {
		if service == nil {
			return ErrServiceRequired
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, err := service.SyncTree(ctx, msg)
		if err != nil {
			return err
		}
		if result == nil {
			return nil
		}

		logging.WithFields(baseLogger, map[string]any{
			"run_id":               result.RunID.String(),
			"folders_created":      result.FoldersCreated,
			"folders_found":        result.FoldersFound,
			"documents_created":    result.DocumentsCreated,
			"documents_updated":    result.DocumentsUpdated,
			"attachments_uploaded": result.AttachmentsUploaded,
			"permissions_applied":  result.PermissionsApplied,
			"failure_count":        len(result.Failures),
			"dry_run":              msg.DryRun,
		}).Info("sync.command.tree.completed")

		if sink != nil {
			sink(msg, result)
		}
		if msg.Strict && result.HasFailures() {
			return fmt.Errorf("%w: %d", ErrUnitsFailed, len(result.Failures))
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[SyncTreeCommand]{
		commands.WithLogger[SyncTreeCommand](baseLogger),
		commands.WithOperation[SyncTreeCommand](syncOperation),
		commands.WithTimeout[SyncTreeCommand](0),
		commands.WithMessageFields(func(msg SyncTreeCommand) map[string]any {
			fields := map[string]any{
				"directory": msg.Directory,
			}
			if msg.RootPageID != "" {
				fields["root_page_id"] = msg.RootPageID
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			if msg.SkipIntro {
				fields["skip_intro"] = true
			}
			if msg.Strict {
				fields["strict"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[SyncTreeCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SyncTreeHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[SyncTreeCommand].
func (h *SyncTreeHandler) Execute(ctx context.Context, msg SyncTreeCommand) error {
	return h.inner.Execute(ctx, msg)
}
