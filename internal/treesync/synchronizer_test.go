package treesync

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-wikisync/internal/confluence"
	"github.com/goliatone/go-wikisync/internal/logging"
	"github.com/goliatone/go-wikisync/internal/permissions"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

func TestRunMirrorsTreeAndPartitionsChildren(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "Team/Intro.docx", "Welcome")
	writeDoc(t, root, "Team/Specs/API.docx", "Endpoints")
	writeFile(t, root, "Team/notes.txt", "ignored")
	dir := newMemory()

	result, err := newSynchronizer(dir).Run(context.Background(), root, Options{RootID: rootPageID})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.HasFailures() {
		t.Fatalf("unexpected failures: %v", result.Failures)
	}
	if result.FoldersCreated != 2 || result.DocumentsCreated != 2 || result.AttachmentsUploaded != 2 {
		t.Fatalf("unexpected counts: %+v", result)
	}

	team := mustLookup(t, dir, "Team", rootPageID)
	specs := mustLookup(t, dir, "Specs", team.ID)
	intro := mustLookup(t, dir, "Intro", team.ID)
	api := mustLookup(t, dir, "API", specs.ID)
	if api.Body != "<p>Endpoints</p>" || intro.Body != "<p>Welcome</p>" {
		t.Fatalf("unexpected document bodies: %q %q", api.Body, intro.Body)
	}
	if got := dir.Attachments(intro.ID); !reflect.DeepEqual(got, []string{"Intro.docx"}) {
		t.Fatalf("expected original attached, got %v", got)
	}

	sections := linkSections(t, team.Body)
	if !reflect.DeepEqual(sections[foldersHeading], []string{"Specs"}) {
		t.Fatalf("expected Specs only under folders, got %v", sections)
	}
	if !reflect.DeepEqual(sections[documentsHeading], []string{"Intro"}) {
		t.Fatalf("expected Intro only under documents, got %v", sections)
	}
	if !strings.HasPrefix(team.Body, "<h1>Folder: Team</h1>") {
		t.Fatalf("unexpected folder heading: %q", team.Body)
	}

	rootPage := mustLookup(t, dir, "Handbook", "")
	if got := linkSections(t, rootPage.Body)[foldersHeading]; !reflect.DeepEqual(got, []string{"Team"}) {
		t.Fatalf("expected root relinked with Team, got %q", rootPage.Body)
	}
	if result.FoldersRelinked != 3 {
		t.Fatalf("expected root, Team and Specs relinked, got %d", result.FoldersRelinked)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "A/B/one.docx", "1")
	writeDoc(t, root, "A/two.DOCX", "2")
	writeDoc(t, root, "top.docx", "3")
	dir := newMemory()
	sync := newSynchronizer(dir)
	ctx := context.Background()

	first, err := sync.Run(ctx, root, Options{RootID: rootPageID})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	before := dir.Pages()

	second, err := sync.Run(ctx, root, Options{RootID: rootPageID})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	after := dir.Pages()

	if len(before) != len(after) {
		t.Fatalf("rerun created pages: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i].ID != after[i].ID || before[i].Title != after[i].Title || before[i].ParentID != after[i].ParentID {
			t.Fatalf("page %d changed identity: %+v -> %+v", i, before[i], after[i])
		}
	}
	if first.DocumentsCreated != 3 || second.DocumentsCreated != 0 || second.DocumentsUpdated != 3 {
		t.Fatalf("unexpected document counts: first %+v second %+v", first, second)
	}
	if second.FoldersCreated != 0 || second.FoldersFound != 2 {
		t.Fatalf("expected folders found on rerun, got %+v", second)
	}
	if first.RunID == second.RunID {
		t.Fatal("expected a fresh run id per run")
	}
}

func TestRunWithoutRootIDSkipsRootRelink(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "loose.docx", "x")
	writeDoc(t, root, "Folder/inner.docx", "y")
	dir := confluence.NewMemoryDirectory("DOCS")

	result, err := newSynchronizer(dir).Run(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.HasFailures() {
		t.Fatalf("unexpected failures: %v", result.Failures)
	}
	folder := mustLookup(t, dir, "Folder", "")
	if folder.ParentID != "" {
		t.Fatalf("expected top-level folder at space root, got parent %q", folder.ParentID)
	}
	mustLookup(t, dir, "loose", "")
	if result.FoldersRelinked != 1 {
		t.Fatalf("expected only Folder relinked, got %d", result.FoldersRelinked)
	}
}

func TestRunIsolatesFolderFailures(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "Broken/Deep/doc.docx", "x")
	writeDoc(t, root, "Broken/direct.docx", "x")
	writeDoc(t, root, "Fine/ok.docx", "y")
	dir := newMemory()
	dir.FailOn(confluence.MemoryCreate, "Broken", errors.New("quota exceeded"))
	recorder := newRecorderStub()

	result, err := newSynchronizer(dir, WithRecorder(recorder)).Run(context.Background(), root, Options{RootID: rootPageID})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := result.FailuresAt(StageFolder); len(got) != 1 || got[0].Path != "Broken" {
		t.Fatalf("expected one folder failure for Broken, got %v", got)
	}
	if _, ok := dir.Lookup("Deep", ""); ok {
		t.Fatal("descent below a failed folder must stop")
	}
	parents := result.FailuresAt(StageParent)
	if len(parents) != 2 {
		t.Fatalf("expected both documents under Broken reported, got %v", parents)
	}
	for _, f := range parents {
		if !errors.Is(f, ErrParentUnavailable) {
			t.Fatalf("expected ErrParentUnavailable, got %v", f)
		}
	}
	fine := mustLookup(t, dir, "Fine", rootPageID)
	mustLookup(t, dir, "ok", fine.ID)
	if recorder.failures["folder"] != 1 || recorder.nodes["document/created"] != 1 {
		t.Fatalf("unexpected recorder state: %+v", recorder)
	}
}

func TestRunContinuesPastDocumentFailures(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Docs/corrupt.docx", "not a zip archive")
	writeDoc(t, root, "Docs/Policy [RES].docx", "secret")
	writeDoc(t, root, "Docs/Handbook [INT].docx", "staff only")
	writeDoc(t, root, "Docs/unattached.docx", "text")
	writeDoc(t, root, "Docs/conflict.docx", "text")
	dir := newMemory()
	dir.FailOn(confluence.MemoryAttach, "unattached.docx", errors.New("upload rejected"))

	result, err := newSynchronizer(dir).Run(context.Background(), root, Options{RootID: rootPageID})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	docs := mustLookup(t, dir, "Docs", rootPageID)
	corrupt := mustLookup(t, dir, "corrupt", docs.ID)
	if !strings.HasPrefix(corrupt.Body, "<p>Error converting DOCX: ") {
		t.Fatalf("expected placeholder body, got %q", corrupt.Body)
	}
	if got := result.FailuresAt(StageConvert); len(got) != 1 || got[0].Path != "Docs/corrupt.docx" {
		t.Fatalf("expected conversion failure recorded, got %v", got)
	}
	if got := result.FailuresAt(StageAttach); len(got) != 1 {
		t.Fatalf("expected attach failure recorded, got %v", got)
	}
	mustLookup(t, dir, "unattached", docs.ID)

	policy := mustLookup(t, dir, "Policy [RES]", docs.ID)
	record, ok := dir.Permission(policy.ID)
	if !ok || record.Tier != interfaces.TierRestricted || !reflect.DeepEqual(record.Plan.AccountIDs, []string{"acc-1"}) {
		t.Fatalf("expected restricted plan for Policy, got %+v (%v)", record, ok)
	}
	handbook := mustLookup(t, dir, "Handbook [INT]", docs.ID)
	record, ok = dir.Permission(handbook.ID)
	if !ok || !reflect.DeepEqual(record.Plan.Groups, []string{"staff"}) {
		t.Fatalf("expected internal plan for Handbook, got %+v (%v)", record, ok)
	}
	if record.Plan.Operations[0] != permissions.ActionRead {
		t.Fatalf("unexpected operations %v", record.Plan.Operations)
	}
	if result.PermissionsApplied != 2 {
		t.Fatalf("expected 2 permissions applied, got %d", result.PermissionsApplied)
	}

	sections := linkSections(t, docs.Body)
	if len(sections[documentsHeading]) != 5 {
		t.Fatalf("expected all five documents linked, got %v", sections)
	}
}

func TestRunUpdateConflictIsScopedToOneDocument(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "a.docx", "a")
	writeDoc(t, root, "b.docx", "b")
	dir := newMemory()
	existing := dir.Seed("a", rootPageID, "<p>old</p>")
	dir.FailOn(confluence.MemoryUpdate, existing, interfaces.ErrVersionConflict)

	result, err := newSynchronizer(dir).Run(context.Background(), root, Options{RootID: rootPageID})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	updates := result.FailuresAt(StageUpdate)
	if len(updates) != 1 || !errors.Is(updates[0], interfaces.ErrVersionConflict) {
		t.Fatalf("expected one version conflict, got %v", updates)
	}
	if result.DocumentsCreated != 1 {
		t.Fatalf("expected b to be created, got %+v", result)
	}
	rootPage := mustLookup(t, dir, "Handbook", "")
	if got := linkSections(t, rootPage.Body)[documentsHeading]; !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("expected only b linked, got %v", got)
	}
}

func TestRunKeepsMarkedTitlesDistinct(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "Guide.docx", "plain")
	writeDoc(t, root, "Guide [PUB].docx", "public")
	dir := newMemory()

	result, err := newSynchronizer(dir).Run(context.Background(), root, Options{RootID: rootPageID})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.DocumentsCreated != 2 || result.DocumentsUpdated != 0 {
		t.Fatalf("expected two pages created, got %+v", result)
	}
	plain := mustLookup(t, dir, "Guide", rootPageID)
	marked := mustLookup(t, dir, "Guide [PUB]", rootPageID)
	if plain.ID == marked.ID {
		t.Fatalf("expected distinct pages, both were %s", plain.ID)
	}
}

func TestRunRendersReadmeIntro(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "Policies/Leave.docx", "x")
	writeFile(t, root, "Policies/README.md", "---\nsummary: HR policies\n---\nAsk **HR** first.\n")
	dir := newMemory()

	if _, err := newSynchronizer(dir).Run(context.Background(), root, Options{RootID: rootPageID}); err != nil {
		t.Fatalf("run: %v", err)
	}
	policies := mustLookup(t, dir, "Policies", rootPageID)
	if !strings.Contains(policies.Body, "<p><em>HR policies</em></p>") || !strings.Contains(policies.Body, "<strong>HR</strong>") {
		t.Fatalf("expected README intro in folder body, got %q", policies.Body)
	}

	dir = newMemory()
	if _, err := newSynchronizer(dir).Run(context.Background(), root, Options{RootID: rootPageID, SkipIntro: true}); err != nil {
		t.Fatalf("run: %v", err)
	}
	policies = mustLookup(t, dir, "Policies", rootPageID)
	if strings.Contains(policies.Body, "HR policies") {
		t.Fatalf("expected intro skipped, got %q", policies.Body)
	}
}

type failingIntros struct{}

func (failingIntros) Load(string) (*interfaces.FolderIntro, error) {
	return nil, errors.New("bad front matter")
}

func TestRunIntroFailureStillRelinks(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "F/doc.docx", "x")
	dir := newMemory()
	sync := newSynchronizer(dir, WithIntroLoader(func(fs.FS) IntroLoader { return failingIntros{} }))

	result, err := sync.Run(context.Background(), root, Options{RootID: rootPageID})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.FailuresAt(StageIntro)) != 2 {
		t.Fatalf("expected intro failures for root and F, got %v", result.Failures)
	}
	if result.FoldersRelinked != 2 {
		t.Fatalf("expected relink despite intro failure, got %d", result.FoldersRelinked)
	}
}

func TestRunRejectsBadRoots(t *testing.T) {
	sync := newSynchronizer(newMemory())
	if _, err := sync.Run(context.Background(), "", Options{}); !errors.Is(err, ErrRootRequired) {
		t.Fatalf("expected ErrRootRequired, got %v", err)
	}
	if _, err := sync.Run(context.Background(), filepath.Join(t.TempDir(), "missing"), Options{}); err == nil {
		t.Fatal("expected error for missing root")
	}
	root := t.TempDir()
	writeFile(t, root, "file.txt", "x")
	if _, err := sync.Run(context.Background(), filepath.Join(root, "file.txt"), Options{}); !errors.Is(err, ErrRootNotDirectory) {
		t.Fatalf("expected ErrRootNotDirectory, got %v", err)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "A/a.docx", "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	clock := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	result, err := newSynchronizer(newMemory(), WithClock(func() time.Time { return clock })).Run(ctx, root, Options{RootID: rootPageID})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || !result.StartedAt.Equal(clock) || result.FoldersCreated != 0 {
		t.Fatalf("expected empty partial result, got %+v", result)
	}
}

type contextLogger struct {
	interfaces.Logger
	contexts []context.Context
}

func (l *contextLogger) WithContext(ctx context.Context) interfaces.Logger {
	l.contexts = append(l.contexts, ctx)
	return l
}

func TestRunCarriesRunIDInLoggerContext(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "a.docx", "a")
	logger := &contextLogger{Logger: logging.NoOp()}

	result, err := newSynchronizer(newMemory(), WithLogger(logger)).Run(context.Background(), root, Options{RootID: rootPageID})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(logger.contexts) != 1 {
		t.Fatalf("expected one context-bound logger, got %d", len(logger.contexts))
	}
	fields := logging.ContextFields(logger.contexts[0])
	if fields["run_id"] != result.RunID.String() {
		t.Fatalf("expected run_id %s in context, got %v", result.RunID, fields)
	}
}
