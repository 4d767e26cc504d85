package treesync

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage names the step a unit failed in.
type Stage string

const (
	StageWalk       Stage = "walk"
	StageFolder     Stage = "folder"
	StageParent     Stage = "parent"
	StageConvert    Stage = "convert"
	StageLookup     Stage = "lookup"
	StageCreate     Stage = "create"
	StageUpdate     Stage = "update"
	StageAttach     Stage = "attach"
	StagePermission Stage = "permission"
	StageRelink     Stage = "relink"
	StageIntro      Stage = "intro"
)

// Failure is one unit that was skipped or partially processed.
type Failure struct {
	Path  string
	Stage Stage
	Err   error
}

func (f Failure) Error() string {
	path := f.Path
	if path == "" {
		path = "."
	}
	return fmt.Sprintf("%s: %s: %v", f.Stage, path, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Result summarises one run.
type Result struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time

	FoldersCreated      int
	FoldersFound        int
	DocumentsCreated    int
	DocumentsUpdated    int
	AttachmentsUploaded int
	PermissionsApplied  int
	FoldersRelinked     int

	Failures []Failure
}

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Documents is the number of document pages written.
func (r *Result) Documents() int {
	return r.DocumentsCreated + r.DocumentsUpdated
}

// HasFailures reports whether any unit failed.
func (r *Result) HasFailures() bool {
	return len(r.Failures) > 0
}

// FailuresAt returns the failures recorded for stage.
func (r *Result) FailuresAt(stage Stage) []Failure {
	var out []Failure
	for _, f := range r.Failures {
		if f.Stage == stage {
			out = append(out, f)
		}
	}
	return out
}
