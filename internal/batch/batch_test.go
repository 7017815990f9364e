package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trentmillar/plex-file-namer/internal/database"
	"github.com/trentmillar/plex-file-namer/internal/media"
	"github.com/trentmillar/plex-file-namer/internal/pipeline"
	"github.com/trentmillar/plex-file-namer/internal/renamer"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("video"), 0o644))
}

// fakeIdentifier names files from a table keyed by base name. hooks run
// before the lookup so tests can change the tree mid-batch.
type fakeIdentifier struct {
	names map[string]string
	hooks map[string]func()
	calls []string
}

func (f *fakeIdentifier) Identify(_ context.Context, path string) (pipeline.Outcome, error) {
	base := filepath.Base(path)
	f.calls = append(f.calls, base)
	if hook := f.hooks[base]; hook != nil {
		hook()
	}
	name, ok := f.names[base]
	if !ok {
		return pipeline.Outcome{}, errors.New("show \"x\": " + media.ErrCatalogMiss.Error())
	}
	return pipeline.Outcome{Operation: media.RenameOperation{
		ID:           "op-" + base,
		OriginalPath: filepath.ToSlash(path),
		NewName:      name,
		Backup: media.BackupNote{
			OriginalName: base,
			OriginalPath: filepath.ToSlash(path),
			NewName:      name,
			Timestamp:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}}, nil
}

type memJournal struct{ entries []database.JournalEntry }

func (j *memJournal) Record(_ context.Context, e database.JournalEntry) error {
	j.entries = append(j.entries, e)
	return nil
}

type scriptedConfirmer struct {
	answers []Decision
	asked   []string
}

func (c *scriptedConfirmer) Confirm(_ context.Context, planned Result) (Decision, error) {
	c.asked = append(c.asked, filepath.Base(planned.Path))
	if len(c.answers) == 0 {
		return DecisionNo, nil
	}
	d := c.answers[0]
	c.answers = c.answers[1:]
	return d, nil
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.MKV"))
	touch(t, filepath.Join(root, "sub", "a.mp4"))
	touch(t, filepath.Join(root, "sub", "a.srt"))
	touch(t, filepath.Join(root, "notes.txt"))

	files, err := Discover(root, ExtensionSet(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "b.MKV"), filepath.Join(root, "sub", "a.mp4")}, files)

	files, err = Discover(root, ExtensionSet([]string{"MP4"}))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "sub", "a.mp4")}, files)

	files, err = Discover(filepath.Join(root, "b.MKV"), ExtensionSet(nil))
	require.NoError(t, err)
	assert.Len(t, files, 1)

	_, err = Discover(filepath.Join(root, "missing"), ExtensionSet(nil))
	assert.True(t, errors.Is(err, media.ErrInvalidInput))
}

func TestCheck(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.mkv")
	touch(t, file)

	assert.Equal(t, Present, Check(file, true))
	assert.Equal(t, Present, Check(file, false))
	assert.Equal(t, Vanished, Check(filepath.Join(root, "gone.mkv"), true))
	assert.Equal(t, NeverExisted, Check(filepath.Join(root, "gone.mkv"), false))
	assert.Equal(t, NeverExisted, Check(root, false))
}

func TestRunPreviewPlansWithoutTouchingFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "avatar.2009.mkv"))
	id := &fakeIdentifier{names: map[string]string{"avatar.2009.mkv": "Avatar (2009) {tmdb-19995}.mkv"}}

	sum, err := New(id, Options{}, nil).Run(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, sum.Results, 1)
	assert.Equal(t, StatusPlanned, sum.Results[0].Status)
	assert.Equal(t, filepath.Join(root, "Avatar (2009) {tmdb-19995}.mkv"), sum.Results[0].Destination)
	assert.Equal(t, int64(5), sum.Results[0].Size)
	assert.Len(t, sum.Planned(), 1)
	assert.FileExists(t, filepath.Join(root, "avatar.2009.mkv"))
	assert.NoFileExists(t, filepath.Join(root, LockName))
}

func TestRunRenamesAndNeverReprocesses(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "avatar.2009.mkv"))
	touch(t, filepath.Join(root, "s", "bb.s01e02.mkv"))
	touch(t, filepath.Join(root, "unknown.mkv"))
	id := &fakeIdentifier{names: map[string]string{
		"avatar.2009.mkv": "Avatar (2009) {tmdb-19995}.mkv",
		"bb.s01e02.mkv":   "Breaking Bad (2008) {tmdb-1396} - s01e02.mkv",
	}}
	journal := &memJournal{}

	d := New(id, Options{Execute: true}, nil).WithJournal(journal)
	sum, err := d.Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Count(StatusRenamed))
	assert.Equal(t, 1, sum.Count(StatusFailed))
	assert.Equal(t, 1, sum.Passes)
	assert.ElementsMatch(t, []string{"avatar.2009.mkv", "bb.s01e02.mkv", "unknown.mkv"}, id.calls)

	assert.FileExists(t, filepath.Join(root, "Avatar (2009) {tmdb-19995}.mkv"))
	assert.FileExists(t, renamer.NotePath(filepath.Join(root, "Avatar (2009) {tmdb-19995}.mkv")))
	assert.FileExists(t, filepath.Join(root, "s", "Breaking Bad (2008) {tmdb-1396} - s01e02.mkv"))

	// only executed renames are journaled
	require.Len(t, journal.entries, 2)
	for _, e := range journal.entries {
		assert.Equal(t, d.RunID(), e.RunID)
		assert.Equal(t, database.JournalRenamed, e.Status)
		assert.Equal(t, "move", e.Mode)
		assert.NotEmpty(t, e.OperationID)
	}
}

func TestRunPicksUpFilesThatAppearMidBatch(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.mkv"))
	late := filepath.Join(root, "late.mkv")
	id := &fakeIdentifier{
		names: map[string]string{"a.mkv": "A (2001) {tmdb-1}.mkv", "late.mkv": "Late (2002) {tmdb-2}.mkv"},
		hooks: map[string]func(){"a.mkv": func() { touch(t, late) }},
	}

	sum, err := New(id, Options{Execute: true}, nil).Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Passes)
	assert.Equal(t, 2, sum.Count(StatusRenamed))
	assert.Equal(t, []string{"a.mkv", "late.mkv"}, id.calls)
}

func TestRunReportsVanishedFiles(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.mkv")
	b := filepath.Join(root, "b.mkv")
	touch(t, a)
	touch(t, b)
	id := &fakeIdentifier{
		names: map[string]string{"a.mkv": "A (2001) {tmdb-1}.mkv", "b.mkv": "B (2002) {tmdb-2}.mkv"},
		hooks: map[string]func(){"a.mkv": func() { require.NoError(t, os.Remove(b)) }},
	}

	sum, err := New(id, Options{Execute: true}, nil).Run(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, sum.Results, 2)
	assert.Equal(t, StatusRenamed, sum.Results[0].Status)
	assert.Equal(t, StatusSkipped, sum.Results[1].Status)
	assert.True(t, errors.Is(sum.Results[1].Err, media.ErrFileVanished))
	assert.Equal(t, []string{"a.mkv"}, id.calls)
}

func TestRunFilesReportsMissingAsInvalidInput(t *testing.T) {
	root := t.TempDir()
	present := filepath.Join(root, "a.mkv")
	touch(t, present)
	id := &fakeIdentifier{names: map[string]string{"a.mkv": "A (2001) {tmdb-1}.mkv"}}

	sum, err := New(id, Options{}, nil).RunFiles(context.Background(), []string{present, filepath.Join(root, "missing.mkv")})
	require.NoError(t, err)
	require.Len(t, sum.Results, 2)
	assert.Equal(t, StatusPlanned, sum.Results[0].Status)
	assert.Equal(t, StatusFailed, sum.Results[1].Status)
	assert.True(t, errors.Is(sum.Results[1].Err, media.ErrInvalidInput))
}

func TestSkipFormatted(t *testing.T) {
	root := t.TempDir()
	formatted := filepath.Join(root, "Avatar (2009) {tmdb-19995}.mkv")
	touch(t, formatted)
	id := &fakeIdentifier{names: map[string]string{filepath.Base(formatted): "Avatar (2009) {tmdb-19995} [1080p].mkv"}}

	// no note yet: still checked once
	sum, err := New(id, Options{SkipFormatted: true}, nil).Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, StatusPlanned, sum.Results[0].Status)

	require.NoError(t, os.WriteFile(renamer.NotePath(formatted), []byte("note"), 0o644))
	sum, err = New(id, Options{SkipFormatted: true}, nil).Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, sum.Results[0].Status)
	assert.Equal(t, "already formatted", sum.Results[0].Message)

	require.NoError(t, os.Remove(renamer.NotePath(formatted)))
	opts := Options{SkipFormatted: true, Executor: &renamer.Executor{Mode: renamer.ModeMove}}
	sum, err = New(id, opts, nil).Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, sum.Results[0].Status)
}

func TestExistingDestinationIsSkipped(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.mkv"))
	touch(t, filepath.Join(root, "A (2001) {tmdb-1}.mkv"))
	id := &fakeIdentifier{names: map[string]string{"a.mkv": "A (2001) {tmdb-1}.mkv", "A (2001) {tmdb-1}.mkv": "A (2001) {tmdb-1}.mkv"}}
	confirm := &scriptedConfirmer{answers: []Decision{DecisionYes}}

	sum, err := New(id, Options{Execute: true}, nil).WithConfirmer(confirm).Run(context.Background(), root)
	require.NoError(t, err)
	for _, r := range sum.Results {
		assert.Equal(t, StatusSkipped, r.Status, r.Path)
	}
	assert.Empty(t, confirm.asked)
	assert.FileExists(t, filepath.Join(root, "a.mkv"))
}

func TestConfirmerDecisions(t *testing.T) {
	setup := func(t *testing.T) (string, *fakeIdentifier) {
		root := t.TempDir()
		names := map[string]string{}
		for _, n := range []string{"a", "b", "c"} {
			touch(t, filepath.Join(root, n+".mkv"))
			names[n+".mkv"] = strings.ToUpper(n) + " (2001) {tmdb-1}.mkv"
		}
		return root, &fakeIdentifier{names: names}
	}

	t.Run("no then yes", func(t *testing.T) {
		root, id := setup(t)
		c := &scriptedConfirmer{answers: []Decision{DecisionNo, DecisionYes, DecisionYes}}
		sum, err := New(id, Options{Execute: true}, nil).WithConfirmer(c).Run(context.Background(), root)
		require.NoError(t, err)
		assert.Equal(t, 1, sum.Count(StatusSkipped))
		assert.Equal(t, 2, sum.Count(StatusRenamed))
		assert.FileExists(t, filepath.Join(root, "a.mkv"))
	})

	t.Run("all stops asking", func(t *testing.T) {
		root, id := setup(t)
		c := &scriptedConfirmer{answers: []Decision{DecisionAll}}
		sum, err := New(id, Options{Execute: true}, nil).WithConfirmer(c).Run(context.Background(), root)
		require.NoError(t, err)
		assert.Equal(t, 3, sum.Count(StatusRenamed))
		assert.Equal(t, []string{"a.mkv"}, c.asked)
	})

	t.Run("quit", func(t *testing.T) {
		root, id := setup(t)
		c := &scriptedConfirmer{answers: []Decision{DecisionYes, DecisionQuit}}
		sum, err := New(id, Options{Execute: true}, nil).WithConfirmer(c).Run(context.Background(), root)
		require.NoError(t, err)
		assert.True(t, sum.Stopped)
		assert.Len(t, sum.Results, 2)
		assert.FileExists(t, filepath.Join(root, "c.mkv"))
	})
}

func TestRunLock(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.mkv"))

	held := flock.New(filepath.Join(root, LockName))
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	t.Cleanup(func() { _ = held.Unlock() })

	id := &fakeIdentifier{names: map[string]string{"a.mkv": "A (2001) {tmdb-1}.mkv"}}
	_, err = New(id, Options{Execute: true}, nil).Run(context.Background(), root)
	assert.True(t, errors.Is(err, ErrLocked))
	assert.Empty(t, id.calls)

	// previews do not take the lock
	_, err = New(id, Options{}, nil).Run(context.Background(), root)
	assert.NoError(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.mkv"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&fakeIdentifier{}, Options{}, nil).Run(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestObserverSeesEveryResult(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.mkv"))
	touch(t, filepath.Join(root, "b.mkv"))
	id := &fakeIdentifier{names: map[string]string{"a.mkv": "A (2001) {tmdb-1}.mkv"}}

	var seen []string
	summary, err := New(id, Options{}, nil).
		WithObserver(func(r Result) { seen = append(seen, filepath.Base(r.Path)+":"+r.Status.String()) }).
		Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.mkv:planned", "b.mkv:failed"}, seen)
	assert.Len(t, summary.Results, 2)
}
