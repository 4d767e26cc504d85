package purgecmd

import (
	"context"
	"io"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-wikisync/internal/commands"
	"github.com/goliatone/go-wikisync/internal/logging"
	"github.com/goliatone/go-wikisync/internal/purge"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

const purgeOperation = "purge.non_docx"

var _ command.Commander[PurgeCommand] = (*PurgeHandler)(nil)

// Config carries the collaborators every purge run shares.
type Config struct {
	// Confirmer answers the prompt when the command does not assume yes.
	Confirmer purge.Confirmer
	Output    io.Writer
	Recorder  purge.Recorder
	// Logger is handed to the purger; nil falls back to the command logger.
	Logger interfaces.Logger
	// OnReport receives the report of every run that reached the scan.
	OnReport func(PurgeCommand, *purge.Report)
}

// PurgeHandler runs purge.Purger through the shared command handler foundation.
type PurgeHandler struct {
	inner *commands.Handler[PurgeCommand]
}

// NewPurgeHandler creates a handler. Runs wait on user input, so the default
// command timeout is disabled.
func NewPurgeHandler(cfg Config, logger interfaces.Logger, opts ...commands.HandlerOption[PurgeCommand]) *PurgeHandler {
	baseLogger := commands.EnsureLogger(logger)
	purgeLogger := baseLogger
	if cfg.Logger != nil {
		purgeLogger = cfg.Logger
	}

	exec := func(ctx context.Context, msg PurgeCommand) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		confirmer := cfg.Confirmer
		if msg.AssumeYes {
			confirmer = purge.Accept()
		}
		purger := purge.New(msg.Directory,
			purge.WithConfirmer(confirmer),
			purge.WithOutput(cfg.Output),
			purge.WithLogger(purgeLogger),
			purge.WithRecorder(cfg.Recorder),
		)

		report, err := purger.Run(ctx)
		if report != nil {
			logging.WithFields(baseLogger, map[string]any{
				"candidate_count": len(report.Candidates),
				"confirmed":       report.Confirmed,
				"deleted_count":   len(report.Deleted),
				"failed_count":    len(report.Failed),
			}).Info("purge.command.completed")
			if cfg.OnReport != nil {
				cfg.OnReport(msg, report)
			}
		}
		return err
	}

	handlerOpts := []commands.HandlerOption[PurgeCommand]{
		commands.WithLogger[PurgeCommand](baseLogger),
		commands.WithOperation[PurgeCommand](purgeOperation),
		commands.WithTimeout[PurgeCommand](0),
		commands.WithMessageFields(func(msg PurgeCommand) map[string]any {
			fields := map[string]any{
				"directory": msg.Directory,
			}
			if msg.AssumeYes {
				fields["assume_yes"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[PurgeCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PurgeHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[PurgeCommand].
func (h *PurgeHandler) Execute(ctx context.Context, msg PurgeCommand) error {
	return h.inner.Execute(ctx, msg)
}
