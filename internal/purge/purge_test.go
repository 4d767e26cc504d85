package purge

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range []string{"a.docx", "b.txt", "c/d.docx", "c/e.png"} {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(rel), 0o644))
	}
	return root
}

func TestFindCandidates(t *testing.T) {
	got, err := FindCandidates(os.DirFS(seedTree(t)))
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt", "c/e.png"}, got)
}

func TestRunKeepsDirectorySymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}
	root := seedTree(t)
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Symlink(target, filepath.Join(root, "linked")))
	require.NoError(t, os.Symlink(filepath.Join(target, "keep.txt"), filepath.Join(root, "note.lnk")))

	got, err := FindCandidates(os.DirFS(root))
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt", "c/e.png", "note.lnk"}, got)

	report, err := New(root, WithOutput(&bytes.Buffer{}), WithConfirmer(Accept())).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt", "c/e.png", "note.lnk"}, report.Deleted)

	info, err := os.Lstat(filepath.Join(root, "linked"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)
	assert.FileExists(t, filepath.Join(target, "keep.txt"))
}

func TestFindCandidatesIsCaseInsensitive(t *testing.T) {
	fsys := fstest.MapFS{
		"Upper.DOCX":     {Data: []byte("x")},
		"mixed.DocX":     {Data: []byte("x")},
		"docx":           {Data: []byte("x")},
		"old.doc":        {Data: []byte("x")},
		"nested/x.docx~": {Data: []byte("x")},
	}
	got, err := FindCandidates(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"docx", "nested/x.docx~", "old.doc"}, got)
}

func TestRunDeclineKeepsFiles(t *testing.T) {
	root := seedTree(t)
	var out bytes.Buffer
	p := New(root, WithOutput(&out), WithConfirmer(PromptConfirmer{In: strings.NewReader("no\n"), Out: &out}))

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Confirmed)
	assert.Empty(t, report.Deleted)
	for _, rel := range []string{"a.docx", "b.txt", "c/d.docx", "c/e.png"} {
		assert.FileExists(t, filepath.Join(root, filepath.FromSlash(rel)))
	}
	assert.Contains(t, out.String(), "Found 2 non-.docx files to delete:")
	assert.Contains(t, out.String(), "(yes/no): ")
	assert.Contains(t, out.String(), "Operation cancelled.")
}

type purgeRecorder struct{ deleted, failed int }

func (r *purgeRecorder) RecordPurge(deleted, failed int) {
	r.deleted += deleted
	r.failed += failed
}

func TestRunConfirmDeletesOnlyCandidates(t *testing.T) {
	root := seedTree(t)
	var out bytes.Buffer
	recorder := &purgeRecorder{}
	p := New(root, WithOutput(&out), WithRecorder(recorder),
		WithConfirmer(PromptConfirmer{In: strings.NewReader(" Y \n")}))

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Confirmed)
	assert.Equal(t, []string{"b.txt", "c/e.png"}, report.Deleted)
	assert.Empty(t, report.Failed)
	assert.FileExists(t, filepath.Join(root, "a.docx"))
	assert.FileExists(t, filepath.Join(root, "c", "d.docx"))
	assert.NoFileExists(t, filepath.Join(root, "b.txt"))
	assert.NoFileExists(t, filepath.Join(root, "c", "e.png"))
	assert.Contains(t, out.String(), "Deletion complete. 2 files deleted.")
	assert.Equal(t, 2, recorder.deleted)
}

func TestRunNothingToDelete(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "only.docx"), []byte("x"), 0o644))
	var out bytes.Buffer
	called := false
	confirm := ConfirmFunc(func(context.Context, string) (bool, error) {
		called = true
		return true, nil
	})

	report, err := New(root, WithOutput(&out), WithConfirmer(confirm)).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Candidates)
	assert.False(t, called, "no prompt without candidates")
	assert.Contains(t, out.String(), "Nothing to delete.")
}

func TestRunMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "data")).Run(context.Background())
	require.ErrorIs(t, err, ErrDirectoryMissing)
}

func TestRunConfirmationError(t *testing.T) {
	root := seedTree(t)
	boom := errors.New("tty closed")
	_, err := New(root, WithConfirmer(ConfirmFunc(func(context.Context, string) (bool, error) {
		return false, boom
	}))).Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.FileExists(t, filepath.Join(root, "b.txt"))
}

func TestRemoveCollectsFailures(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("directory permissions differ on windows")
	}
	root := seedTree(t)
	deleted, failed := Remove(root, []string{"b.txt", "missing.txt", "c/e.png"})
	assert.Equal(t, []string{"b.txt", "c/e.png"}, deleted)
	require.Len(t, failed, 1)
	assert.Equal(t, "missing.txt", failed[0].Path)
	assert.ErrorIs(t, failed[0], os.ErrNotExist)
}

func TestIsAffirmative(t *testing.T) {
	for _, answer := range []string{"yes", "y", "YES", " Yes\n", "Y"} {
		assert.True(t, IsAffirmative(answer), answer)
	}
	for _, answer := range []string{"", "no", "n", "yep", "ye s"} {
		assert.False(t, IsAffirmative(answer), answer)
	}
}

func TestPromptConfirmerEOFDeclines(t *testing.T) {
	ok, err := PromptConfirmer{In: strings.NewReader("")}.Confirm(context.Background(), "Delete?")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = PromptConfirmer{In: strings.NewReader("yes")}.Confirm(context.Background(), "Delete?")
	require.NoError(t, err)
	assert.True(t, ok, "answer without trailing newline still counts")
}

func TestPromptConfirmerEcho(t *testing.T) {
	var out bytes.Buffer
	ok, err := PromptConfirmer{In: strings.NewReader(" yes \n"), Out: &out, Echo: true}.Confirm(context.Background(), "Delete?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "\nDelete? (yes/no): yes\n", out.String())

	out.Reset()
	_, err = PromptConfirmer{In: strings.NewReader("no\n"), Out: &out}.Confirm(context.Background(), "Delete?")
	require.NoError(t, err)
	assert.Equal(t, "\nDelete? (yes/no): ", out.String())
}
