// Package purge removes every non-.docx file below a data directory after an
// explicit confirmation.
package purge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-wikisync/internal/logging"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

const keepExt = ".docx"

var (
	// ErrDirectoryMissing is returned when the data directory does not exist.
	ErrDirectoryMissing = errors.New("purge: data directory not found")
)

// FindCandidates lists every file in fsys whose name does not end in .docx
// (case-insensitive), as slash paths in walk order. Symlinks to directories
// are neither listed nor followed.
func FindCandidates(fsys fs.FS) ([]string, error) {
	var out []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || linksToDir(fsys, p, d) {
			return nil
		}
		if strings.EqualFold(path.Ext(d.Name()), keepExt) {
			return nil
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("purge: scan: %w", err)
	}
	return out, nil
}

func linksToDir(fsys fs.FS, p string, d fs.DirEntry) bool {
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := fs.Stat(fsys, p)
	return err == nil && info.IsDir()
}

// FileError is one file that could not be deleted.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Report is the outcome of one purge.
type Report struct {
	Candidates []string
	Confirmed  bool
	Deleted    []string
	Failed     []FileError
}

// Remove deletes each candidate (slash path relative to root). Failures are
// collected; they never stop the loop.
func Remove(root string, candidates []string) ([]string, []FileError) {
	var deleted []string
	var failed []FileError
	for _, rel := range candidates {
		if err := os.Remove(filepath.Join(root, filepath.FromSlash(rel))); err != nil {
			failed = append(failed, FileError{Path: rel, Err: err})
			continue
		}
		deleted = append(deleted, rel)
	}
	return deleted, failed
}

// Recorder receives purge totals. The metrics package implements it.
type Recorder interface {
	RecordPurge(deleted, failed int)
}

// Purger runs the scan, confirm and delete sequence for one directory.
type Purger struct {
	root      string
	confirmer Confirmer
	out       io.Writer
	logger    interfaces.Logger
	recorder  Recorder
}

// Option customises a Purger.
type Option func(*Purger)

func WithConfirmer(c Confirmer) Option {
	return func(p *Purger) {
		if c != nil {
			p.confirmer = c
		}
	}
}

// WithOutput sets where the listing and report are printed.
func WithOutput(w io.Writer) Option {
	return func(p *Purger) {
		if w != nil {
			p.out = w
		}
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(p *Purger) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(p *Purger) {
		p.recorder = r
	}
}

// New builds a purger for root. Without a confirmer nothing is ever deleted.
func New(root string, opts ...Option) *Purger {
	p := &Purger{
		root:      root,
		confirmer: Decline(),
		out:       io.Discard,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run lists candidates, asks for confirmation and deletes them.
func (p *Purger) Run(ctx context.Context) (*Report, error) {
	info, err := os.Stat(p.root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryMissing, p.root)
	}

	candidates, err := FindCandidates(os.DirFS(p.root))
	if err != nil {
		return nil, err
	}
	report := &Report{Candidates: candidates}
	if len(candidates) == 0 {
		fmt.Fprintln(p.out, "No non-.docx files found. Nothing to delete.")
		p.logger.Info("purge.nothing_to_delete", "root", p.root)
		return report, nil
	}

	fmt.Fprintf(p.out, "Found %d non-.docx files to delete:\n", len(candidates))
	for _, rel := range candidates {
		fmt.Fprintf(p.out, "  %s\n", rel)
	}

	confirmed, err := p.confirmer.Confirm(ctx, "Do you want to delete these files?")
	if err != nil {
		return report, fmt.Errorf("purge: confirmation: %w", err)
	}
	if !confirmed {
		fmt.Fprintln(p.out, "Operation cancelled.")
		p.logger.Info("purge.cancelled", "root", p.root, "candidates", len(candidates))
		return report, nil
	}
	report.Confirmed = true

	report.Deleted, report.Failed = Remove(p.root, candidates)
	for _, rel := range report.Deleted {
		fmt.Fprintf(p.out, "Deleted: %s\n", rel)
	}
	fmt.Fprintf(p.out, "\nDeletion complete. %d files deleted.\n", len(report.Deleted))
	if len(report.Failed) > 0 {
		fmt.Fprintf(p.out, "Failed to delete %d files:\n", len(report.Failed))
		for _, f := range report.Failed {
			fmt.Fprintf(p.out, "  %s\n", f.Error())
			p.logger.Warn("purge.delete_failed", "path", f.Path, "error", f.Err)
		}
	}

	if p.recorder != nil {
		p.recorder.RecordPurge(len(report.Deleted), len(report.Failed))
	}
	p.logger.Info("purge.completed", "root", p.root, "deleted", len(report.Deleted), "failed", len(report.Failed))
	return report, nil
}
