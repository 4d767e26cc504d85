// Package treesync mirrors a local directory tree of .docx files into a page
// tree. A run makes three sequential passes: folders, documents, then folder
// link lists. Every step looks up before it creates, so reruns converge on
// the same pages.
package treesync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-wikisync/internal/filename"
	"github.com/goliatone/go-wikisync/internal/identity"
	"github.com/goliatone/go-wikisync/internal/logging"
	"github.com/goliatone/go-wikisync/internal/markdown"
	"github.com/goliatone/go-wikisync/internal/permissions"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

const documentExt = ".docx"

var (
	// ErrRootRequired is returned when Run is called without a directory.
	ErrRootRequired = errors.New("treesync: root directory is required")
	// ErrRootNotDirectory is returned when the root is not a directory.
	ErrRootNotDirectory = errors.New("treesync: root is not a directory")
	// ErrParentUnavailable marks documents whose folder page could not be made.
	ErrParentUnavailable = errors.New("treesync: parent folder page unavailable")
)

// Converter renders a .docx file into a page body. It reports false when the
// body is a failure placeholder.
type Converter interface {
	ConvertFile(path string) (string, bool)
}

// Classifier derives the page title and permission tier from a file name.
type Classifier interface {
	Classify(name string) filename.Classification
}

// IntroLoader returns the README intro for a folder path, or nil.
type IntroLoader interface {
	Load(dir string) (*interfaces.FolderIntro, error)
}

// IntroLoaderFactory builds an IntroLoader for the run's root filesystem.
type IntroLoaderFactory func(fsys fs.FS) IntroLoader

// Recorder receives per-node counters. The metrics package implements it.
type Recorder interface {
	RecordNode(kind, action string)
	RecordFailure(stage string)
}

// Options parameterise one run.
type Options struct {
	// RootID is the page folders at the top of the tree are created under.
	// Without it they are created at the space root and the root folder is
	// not relinked.
	RootID string
	// SkipIntro disables README intros on folder pages.
	SkipIntro bool
}

// Synchronizer runs the three-pass sync against a PageDirectory.
type Synchronizer struct {
	dir        interfaces.PageDirectory
	converter  Converter
	classifier Classifier
	intros     IntroLoaderFactory
	recorder   Recorder
	logger     interfaces.Logger
	now        func() time.Time
}

// Option customises a Synchronizer.
type Option func(*Synchronizer)

func WithConverter(c Converter) Option {
	return func(s *Synchronizer) {
		if c != nil {
			s.converter = c
		}
	}
}

func WithClassifier(c Classifier) Option {
	return func(s *Synchronizer) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithIntroLoader replaces the README loader factory. A nil factory disables
// intros.
func WithIntroLoader(factory IntroLoaderFactory) Option {
	return func(s *Synchronizer) {
		s.intros = factory
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Synchronizer) {
		s.recorder = r
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(s *Synchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides time.Now for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a synchronizer. converter is required in practice; the default
// classifier has no internal group.
func New(dir interfaces.PageDirectory, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		dir:        dir,
		classifier: filename.NewClassifier(""),
		intros: func(fsys fs.FS) IntroLoader {
			return markdown.NewIntroLoader(fsys)
		},
		logger: logging.NoOp(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run holds the state of one Run call. It is discarded when Run returns.
type run struct {
	*Synchronizer
	logger interfaces.Logger
	root   string
	fsys   fs.FS
	opts   Options
	ids    map[string]string
	failed map[string]struct{}
	reg    *registry
	result *Result
}

// Run synchronizes the tree rooted at root. Per-unit failures are collected
// in the result; the returned error is reserved for an unusable root or a
// cancelled context.
func (s *Synchronizer) Run(ctx context.Context, root string, opts Options) (*Result, error) {
	if strings.TrimSpace(root) == "" {
		return nil, ErrRootRequired
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("treesync: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotDirectory, root)
	}
	if s.converter == nil {
		return nil, errors.New("treesync: converter is required")
	}

	r := &run{
		Synchronizer: s,
		root:         root,
		fsys:         os.DirFS(root),
		opts:         opts,
		ids:          map[string]string{"": opts.RootID},
		failed:       map[string]struct{}{},
		reg:          newRegistry(),
		result: &Result{
			RunID:     identity.RunID(),
			StartedAt: s.now(),
		},
	}
	ctx = logging.ContextWithFields(ctx, map[string]any{"run_id": r.result.RunID.String()})
	logger := s.logger.WithContext(ctx)
	r.logger = logger
	logger.Info("treesync.run.started", "root", root, "root_page_id", opts.RootID)

	passes := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"folders", r.materializeFolders},
		{"documents", r.materializeDocuments},
		{"relink", r.relinkFolders},
	}
	for _, pass := range passes {
		if err := pass.fn(ctx); err != nil {
			r.result.FinishedAt = s.now()
			logger.Error("treesync.run.aborted", "pass", pass.name, "error", err)
			return r.result, err
		}
		logger.Debug("treesync.pass.completed", "pass", pass.name)
	}

	r.result.FinishedAt = s.now()
	logger.Info("treesync.run.completed",
		"folders_created", r.result.FoldersCreated,
		"folders_found", r.result.FoldersFound,
		"documents_created", r.result.DocumentsCreated,
		"documents_updated", r.result.DocumentsUpdated,
		"folders_relinked", r.result.FoldersRelinked,
		"failures", len(r.result.Failures),
		"duration", r.result.Duration().String(),
	)
	return r.result, nil
}

// materializeFolders is pass 1.
func (r *run) materializeFolders(ctx context.Context) error {
	return fs.WalkDir(r.fsys, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := relPath(p)
		if walkErr != nil {
			r.fail(rel, StageWalk, walkErr)
			if d != nil && d.IsDir() && rel != "" {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() || rel == "" {
			return nil
		}
		if !r.ensureFolder(ctx, rel) {
			return fs.SkipDir
		}
		return nil
	})
}

// ensureFolder maps rel to a page, creating missing ancestors from the
// deepest mapped one downward. It reports false when the branch failed.
func (r *run) ensureFolder(ctx context.Context, rel string) bool {
	if _, ok := r.ids[rel]; ok {
		return true
	}
	components := strings.Split(rel, "/")

	start := 0
	for i := len(components); i > 0; i-- {
		prefix := strings.Join(components[:i], "/")
		if r.hasFailed(prefix) {
			return false
		}
		if _, ok := r.ids[prefix]; ok {
			start = i
			break
		}
	}

	for j := start; j < len(components); j++ {
		current := strings.Join(components[:j+1], "/")
		parent := strings.Join(components[:j], "/")
		id, err := r.folderPage(ctx, current, components[j], r.ids[parent])
		if err != nil {
			r.failed[current] = struct{}{}
			r.fail(current, StageFolder, err)
			return false
		}
		r.ids[current] = id
		r.reg.add(parent, Child{Title: components[j], ID: id, Kind: KindFolder})
	}
	return true
}

func (r *run) folderPage(ctx context.Context, rel, title, parentID string) (string, error) {
	logger := logging.WithSyncContext(r.logger, rel, "folder", "")

	existing, err := r.dir.Find(ctx, title, parentID)
	if err != nil {
		return "", fmt.Errorf("lookup folder page: %w", err)
	}
	if existing != "" {
		r.result.FoldersFound++
		r.record(KindFolder, "found")
		logger.Debug("treesync.folder.found", "page_id", existing)
		return existing, nil
	}

	id, err := r.dir.Create(ctx, interfaces.PageCreateRequest{
		Title:    title,
		ParentID: parentID,
		Body:     placeholderBody(title),
	})
	if err != nil {
		return "", fmt.Errorf("create folder page: %w", err)
	}
	r.result.FoldersCreated++
	r.record(KindFolder, "created")
	logger.Info("treesync.folder.created", "page_id", id, "parent_id", parentID)
	return id, nil
}

// materializeDocuments is pass 2.
func (r *run) materializeDocuments(ctx context.Context) error {
	return fs.WalkDir(r.fsys, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := relPath(p)
		if walkErr != nil {
			if d != nil && d.IsDir() && rel != "" {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isDocument(d.Name()) {
			return nil
		}
		r.syncDocument(ctx, rel, d.Name())
		return nil
	})
}

func (r *run) syncDocument(ctx context.Context, rel, name string) {
	dir := relPath(path.Dir(rel))
	parentID, ok := r.ids[dir]
	if !ok {
		r.fail(rel, StageParent, fmt.Errorf("%w: %s", ErrParentUnavailable, dir))
		return
	}

	class := r.classifier.Classify(name)
	logger := logging.WithSyncContext(r.logger, rel, "document", class.Tier.String())
	local := filepath.Join(r.root, filepath.FromSlash(rel))

	body, converted := r.converter.ConvertFile(local)
	if !converted {
		r.fail(rel, StageConvert, errors.New("conversion failed, placeholder body stored"))
	}

	id, ok := r.writeDocument(ctx, rel, class.Title, parentID, body, logger)
	if !ok {
		return
	}

	if err := r.dir.Attach(ctx, id, local); err != nil {
		r.fail(rel, StageAttach, err)
	} else {
		r.result.AttachmentsUploaded++
		r.record(KindDocument, "attached")
	}

	if permissions.Applies(class.Tier, class.Group) {
		if err := r.dir.SetPermission(ctx, id, class.Tier, class.Group); err != nil {
			r.fail(rel, StagePermission, err)
		} else {
			r.result.PermissionsApplied++
			r.record(KindDocument, "restricted")
			logger.Info("treesync.document.restricted", "page_id", id)
		}
	}

	r.reg.add(dir, Child{Title: class.Title, ID: id, Kind: KindDocument})
}

// writeDocument creates the page or updates the existing one in place.
func (r *run) writeDocument(ctx context.Context, rel, title, parentID, body string, logger interfaces.Logger) (string, bool) {
	existing, err := r.dir.Find(ctx, title, parentID)
	if err != nil {
		r.fail(rel, StageLookup, err)
		return "", false
	}

	if existing == "" {
		id, err := r.dir.Create(ctx, interfaces.PageCreateRequest{Title: title, ParentID: parentID, Body: body})
		if err != nil {
			r.fail(rel, StageCreate, err)
			return "", false
		}
		r.result.DocumentsCreated++
		r.record(KindDocument, "created")
		logger.Info("treesync.document.created", "page_id", id, "parent_id", parentID)
		return id, true
	}

	page, err := r.dir.Get(ctx, existing)
	if err != nil {
		r.fail(rel, StageUpdate, err)
		return "", false
	}
	if _, err := r.dir.Update(ctx, interfaces.PageUpdateRequest{
		ID:      existing,
		Title:   title,
		Body:    body,
		Version: page.Version,
	}); err != nil {
		r.fail(rel, StageUpdate, err)
		return "", false
	}
	r.result.DocumentsUpdated++
	r.record(KindDocument, "updated")
	logger.Info("treesync.document.updated", "page_id", existing, "version", page.Version+1)
	return existing, true
}

// relinkFolders is pass 3.
func (r *run) relinkFolders(ctx context.Context) error {
	var intros IntroLoader
	if !r.opts.SkipIntro && r.intros != nil {
		intros = r.intros(r.fsys)
	}

	for _, dir := range r.reg.dirs() {
		if err := ctx.Err(); err != nil {
			return err
		}
		children := r.reg.get(dir)
		if len(children) == 0 {
			continue
		}
		folderID := r.ids[dir]
		if folderID == "" {
			// root without a configured root page
			continue
		}
		r.relink(ctx, dir, folderID, children, intros)
	}
	return nil
}

func (r *run) relink(ctx context.Context, dir, folderID string, children []Child, intros IntroLoader) {
	logger := logging.WithSyncContext(r.logger, dir, "relink", "")

	page, err := r.dir.Get(ctx, folderID)
	if err != nil {
		r.fail(dir, StageRelink, err)
		return
	}

	intro := ""
	if intros != nil {
		loaded, err := intros.Load(dir)
		if err != nil {
			r.fail(dir, StageIntro, err)
		} else {
			intro = markdown.StorageHTML(loaded)
		}
	}

	if _, err := r.dir.Update(ctx, interfaces.PageUpdateRequest{
		ID:      folderID,
		Title:   page.Title,
		Body:    folderBody(page.Title, intro, children),
		Version: page.Version,
	}); err != nil {
		r.fail(dir, StageRelink, err)
		return
	}
	r.result.FoldersRelinked++
	r.record(KindFolder, "relinked")
	logger.Info("treesync.folder.relinked", "page_id", folderID, "children", len(children))
}

func (r *run) fail(rel string, stage Stage, err error) {
	r.result.Failures = append(r.result.Failures, Failure{Path: rel, Stage: stage, Err: err})
	if r.recorder != nil {
		r.recorder.RecordFailure(string(stage))
	}
	logging.WithSyncContext(r.logger, rel, string(stage), "").Warn("treesync.unit.failed", "error", err)
}

func (r *run) record(kind Kind, action string) {
	if r.recorder != nil {
		r.recorder.RecordNode(string(kind), action)
	}
}

func (r *run) hasFailed(rel string) bool {
	for p := rel; p != ""; p = relPath(path.Dir(p)) {
		if _, ok := r.failed[p]; ok {
			return true
		}
	}
	return false
}

func relPath(p string) string {
	if p == "." {
		return ""
	}
	return p
}

func isDocument(name string) bool {
	return strings.EqualFold(path.Ext(name), documentExt)
}
