// Package wikisync mirrors a directory tree of DOCX files into a Confluence
// space and removes stray non-DOCX files from the data directory.
package wikisync

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"

	"github.com/goliatone/go-wikisync/internal/commands"
	purgecmd "github.com/goliatone/go-wikisync/internal/commands/purge"
	synccmd "github.com/goliatone/go-wikisync/internal/commands/sync"
	"github.com/goliatone/go-wikisync/internal/confluence"
	"github.com/goliatone/go-wikisync/internal/convert"
	"github.com/goliatone/go-wikisync/internal/filename"
	"github.com/goliatone/go-wikisync/internal/logging"
	"github.com/goliatone/go-wikisync/internal/markdown"
	"github.com/goliatone/go-wikisync/internal/metrics"
	"github.com/goliatone/go-wikisync/internal/purge"
	"github.com/goliatone/go-wikisync/internal/runtimeconfig"
	"github.com/goliatone/go-wikisync/internal/treesync"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

const dryRunSpace = "DRYRUN"

type (
	SyncTreeCommand = synccmd.SyncTreeCommand
	PurgeCommand    = purgecmd.PurgeCommand
	SyncResult      = treesync.Result
	PurgeReport     = purge.Report
)

// CommandRegistry receives the command handlers built by New.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandSet groups the handlers a Module exposes to command buses.
type CommandSet struct {
	Sync  *synccmd.SyncTreeHandler
	Purge *purgecmd.PurgeHandler
}

// Module is the top level runtime facade.
type Module struct {
	cfg        Config
	provider   interfaces.LoggerProvider
	logger     interfaces.Logger
	metrics    *metrics.Recorder
	httpClient *http.Client
	directory  interfaces.PageDirectory
	registry   CommandRegistry
	sink       synccmd.ResultSink
	commands   CommandSet
}

// Option customises a Module.
type Option func(*Module)

// WithLoggerProvider overrides the provider derived from Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(m *Module) {
		m.provider = provider
	}
}

// WithHTTPClient sets the client used for Confluence requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(m *Module) {
		m.httpClient = hc
	}
}

// WithPageDirectory replaces both the remote and the dry-run directory.
func WithPageDirectory(dir interfaces.PageDirectory) Option {
	return func(m *Module) {
		m.directory = dir
	}
}

// WithCommandRegistry registers the module's handlers on reg during New.
func WithCommandRegistry(reg CommandRegistry) Option {
	return func(m *Module) {
		m.registry = reg
	}
}

// WithResultSink receives results of runs executed through Commands().Sync.
func WithResultSink(sink func(SyncTreeCommand, *SyncResult)) Option {
	return func(m *Module) {
		m.sink = sink
	}
}

// New constructs a module. Remote credentials are checked when a non dry run
// starts, so purge-only hosts need no Confluence settings.
func New(cfg Config, opts ...Option) (*Module, error) {
	if err := cfg.ValidateLocal(); err != nil {
		return nil, runtimeconfig.Invalid(err)
	}

	m := &Module{
		cfg:     cfg,
		metrics: metrics.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.provider == nil {
		provider, err := NewLoggerProvider(cfg.Logging, nil)
		if err != nil {
			return nil, runtimeconfig.Invalid(err)
		}
		m.provider = provider
	}
	m.logger = logging.ModuleLogger(m.provider, "")

	var reg synccmd.CommandRegistry
	if m.registry != nil {
		reg = m.registry
	}
	syncHandler, err := synccmd.Register(reg, m, m.provider, m.sink)
	if err != nil {
		return nil, err
	}
	purgeHandler := purgecmd.NewPurgeHandler(purgecmd.Config{
		Confirmer: purge.Decline(),
		Recorder:  m.metrics,
		Logger:    logging.PurgeLogger(m.provider),
	}, commands.CommandLogger(m.provider, "purge"))
	if m.registry != nil {
		if err := m.registry.RegisterCommand(purgeHandler); err != nil {
			return nil, err
		}
	}
	m.commands = CommandSet{Sync: syncHandler, Purge: purgeHandler}
	return m, nil
}

// Config returns the configuration the module was built with.
func (m *Module) Config() Config {
	return m.cfg
}

// Logger returns the root module logger.
func (m *Module) Logger() interfaces.Logger {
	if m == nil || m.logger == nil {
		return logging.NoOp()
	}
	return m.logger
}

// LoggerProvider returns the provider module loggers are drawn from.
func (m *Module) LoggerProvider() interfaces.LoggerProvider {
	return m.provider
}

// Metrics returns the module's metrics recorder.
func (m *Module) Metrics() *metrics.Recorder {
	return m.metrics
}

// Commands returns the handlers built during New.
func (m *Module) Commands() CommandSet {
	return m.commands
}

// SyncCommand builds the sync command described by the configuration.
func (m *Module) SyncCommand() SyncTreeCommand {
	return SyncTreeCommand{
		Directory:  m.cfg.Sync.DataDir,
		RootPageID: m.cfg.Confluence.RootPageID,
		DryRun:     m.cfg.Sync.DryRun,
		SkipIntro:  !m.cfg.Sync.ReadmeIntro,
	}
}

// Sync validates and executes cmd, returning the run result.
func (m *Module) Sync(ctx context.Context, cmd SyncTreeCommand) (*SyncResult, error) {
	var result *SyncResult
	handler := synccmd.NewSyncTreeHandler(m, commands.CommandLogger(m.provider, "sync"), func(_ SyncTreeCommand, r *SyncResult) {
		result = r
	})
	err := handler.Execute(ctx, cmd)
	return result, err
}

// SyncTree runs the three passes for cmd. It implements synccmd.Service.
func (m *Module) SyncTree(ctx context.Context, cmd SyncTreeCommand) (*SyncResult, error) {
	dir, err := m.pageDirectory(ctx, cmd)
	if err != nil {
		return nil, err
	}

	syncer := treesync.New(dir,
		treesync.WithConverter(convert.New(convert.WithLogger(logging.ModuleLogger(m.provider, "wikisync.convert")))),
		treesync.WithClassifier(filename.NewClassifier(m.cfg.Confluence.InternalGroup)),
		treesync.WithRecorder(m.metrics),
		treesync.WithLogger(logging.SyncLogger(m.provider)),
		treesync.WithIntroLoader(func(fsys fs.FS) treesync.IntroLoader {
			return markdown.NewIntroLoader(fsys, markdown.WithLogger(logging.MarkdownLogger(m.provider)))
		}),
	)
	result, err := syncer.Run(ctx, cmd.Directory, treesync.Options{
		RootID:    cmd.RootPageID,
		SkipIntro: cmd.SkipIntro,
	})
	if result != nil {
		m.metrics.RecordRun(result.Duration(), result.FinishedAt)
	}
	m.flushMetrics()
	return result, err
}

// Purge deletes non-.docx files below cmd.Directory. confirmer answers the
// prompt unless cmd.AssumeYes is set; out receives the listing.
func (m *Module) Purge(ctx context.Context, cmd PurgeCommand, confirmer purge.Confirmer, out io.Writer) (*PurgeReport, error) {
	var report *PurgeReport
	handler := purgecmd.NewPurgeHandler(purgecmd.Config{
		Confirmer: confirmer,
		Output:    out,
		Recorder:  m.metrics,
		Logger:    logging.PurgeLogger(m.provider),
		OnReport: func(_ PurgeCommand, r *purge.Report) {
			report = r
		},
	}, commands.CommandLogger(m.provider, "purge"))
	err := handler.Execute(ctx, cmd)
	m.flushMetrics()
	return report, err
}

func (m *Module) pageDirectory(ctx context.Context, cmd SyncTreeCommand) (interfaces.PageDirectory, error) {
	if m.directory != nil {
		return m.directory, nil
	}
	if cmd.DryRun {
		return m.dryRunDirectory(cmd), nil
	}

	if err := m.cfg.Confluence.Validate(); err != nil {
		return nil, runtimeconfig.Invalid(errors.Join(ErrConfluenceConfigInvalid, err))
	}
	client, err := confluence.NewClient(confluence.Config{
		BaseURL:   m.cfg.Confluence.BaseURL,
		Username:  m.cfg.Confluence.Username,
		APIToken:  m.cfg.Confluence.APIToken,
		Timeout:   m.cfg.Confluence.HTTPTimeout,
		CacheSize: m.cfg.Confluence.LookupCacheSize,
	},
		confluence.WithHTTPClient(m.httpClient),
		confluence.WithLogger(logging.ConfluenceLogger(m.provider)),
		confluence.WithObserver(m.metrics),
	)
	if err != nil {
		return nil, err
	}
	session, err := client.OpenSpace(ctx, m.cfg.Confluence.SpaceKey)
	if err != nil {
		return nil, err
	}
	m.logger.Info("wikisync.space.opened", "space_key", session.SpaceKey(), "space_id", session.SpaceID())
	return session, nil
}

func (m *Module) dryRunDirectory(cmd SyncTreeCommand) *confluence.MemoryDirectory {
	space := m.cfg.Confluence.SpaceKey
	if space == "" {
		space = dryRunSpace
	}
	mem := confluence.NewMemoryDirectory(space, confluence.WithMemoryLogger(logging.ConfluenceLogger(m.provider)))
	if cmd.RootPageID != "" {
		mem.Register(interfaces.Page{
			ID:    cmd.RootPageID,
			Title: filepath.Base(filepath.Clean(cmd.Directory)),
		})
	}
	m.logger.Info("wikisync.dry_run", "space", space, "root_page_id", cmd.RootPageID)
	return mem
}

func (m *Module) flushMetrics() {
	path := m.cfg.Metrics.TextfilePath
	if path == "" {
		return
	}
	if err := m.metrics.WriteTextfile(path); err != nil {
		m.logger.Warn("wikisync.metrics.write_failed", "path", path, "error", err)
	}
}
