package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trentmillar/plex-file-namer/internal/batch"
	"github.com/trentmillar/plex-file-namer/internal/database"
	"github.com/trentmillar/plex-file-namer/internal/media"
	"github.com/trentmillar/plex-file-namer/internal/renamer"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

func planned(path, dest string) batch.Result {
	return batch.Result{Path: path, Destination: dest, Size: 1536, Status: batch.StatusPlanned}
}

func TestConfirmAnswers(t *testing.T) {
	in := strings.NewReader("y\nN\nall\nq\nwhatever\n")
	var out bytes.Buffer
	p := NewPrompter(in, &out)
	ctx := context.Background()

	want := []batch.Decision{batch.DecisionYes, batch.DecisionNo, batch.DecisionAll, batch.DecisionQuit, batch.DecisionNo}
	for _, w := range want {
		got, err := p.Confirm(ctx, planned("/m/avatar.mkv", "/m/Avatar (2009) {tmdb-19995}.mkv"))
		require.NoError(t, err)
		assert.Equal(t, w, got)
	}
	assert.Contains(t, out.String(), "/m/avatar.mkv")
	assert.Contains(t, out.String(), "1.5 KiB")
	assert.Contains(t, out.String(), "[y/n/a(ll)/q(uit)]")

	// input exhausted
	got, err := p.Confirm(ctx, planned("/m/a.mkv", "/m/A.mkv"))
	require.NoError(t, err)
	assert.Equal(t, batch.DecisionQuit, got)
}

func TestConfirmLastLineWithoutNewline(t *testing.T) {
	p := NewPrompter(strings.NewReader("a"), &bytes.Buffer{})
	got, err := p.Confirm(context.Background(), planned("/m/a.mkv", "/m/A.mkv"))
	require.NoError(t, err)
	assert.Equal(t, batch.DecisionAll, got)
}

func TestConfirmCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPrompter(strings.NewReader("y\n"), &bytes.Buffer{}).Confirm(ctx, planned("/a", "/b"))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSelectSections(t *testing.T) {
	sections := []database.LibrarySection{
		{ID: 1, Name: "Movies", SectionType: database.SectionTypeMovie},
		{ID: 2, Name: "TV Shows", SectionType: database.SectionTypeShow},
		{ID: 3, Name: "Kids", SectionType: database.SectionTypeMovie},
	}
	tests := []struct {
		input string
		want  []int64
	}{
		{"y\n", []int64{1, 2, 3}},
		{"n\n", nil},
		{"3, 1,1,9,x\n", []int64{3, 1}},
		{"", nil},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got, err := NewPrompter(strings.NewReader(tt.input), &out).SelectSections(sections)
		require.NoError(t, err, tt.input)
		var ids []int64
		for _, s := range got {
			ids = append(ids, s.ID)
		}
		assert.Equal(t, tt.want, ids, tt.input)
		assert.Contains(t, out.String(), "[2] TV Shows (TV Shows)")
	}
}

func TestConfirmProceed(t *testing.T) {
	var out bytes.Buffer
	ok, err := NewPrompter(strings.NewReader("yes\n"), &out).ConfirmProceed(3, "move")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "About to move 3 files.")

	ok, err = NewPrompter(strings.NewReader(""), &out).ConfirmProceed(3, "copy")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPreviewAndSummary(t *testing.T) {
	var out bytes.Buffer
	results := []batch.Result{
		planned("/m/a.mkv", "/m/A (2001) {tmdb-1}.mkv"),
		planned("/m/b.mkv", "/m/B (2002) {tmdb-2}.mkv"),
		planned("/m/c.mkv", "/m/C (2003) {tmdb-3}.mkv"),
	}
	results[0].Outcome.Notes = []string{"filename claims 1080p but file is 720p"}
	Preview(&out, results, 2)
	text := out.String()
	assert.Contains(t, text, "A (2001) {tmdb-1}.mkv")
	assert.Contains(t, text, "filename claims 1080p")
	assert.NotContains(t, text, "C (2003)")
	assert.Contains(t, text, "... and 1 more files")
	assert.Contains(t, text, "3 files, 4.5 KiB")

	out.Reset()
	sum := batch.Summary{Results: []batch.Result{
		{Path: "/m/a.mkv", Status: batch.StatusRenamed},
		{Path: "/m/b.mkv", Status: batch.StatusSkipped, Message: "declined"},
		{Path: "/m/c.mkv", Status: batch.StatusFailed, Err: media.ErrCatalogMiss},
	}, Stopped: true}
	Summary(&out, sum)
	text = out.String()
	assert.Contains(t, text, "Renamed: 1")
	assert.Contains(t, text, "Failed: 1")
	assert.Contains(t, text, "no catalog match")
	assert.Contains(t, text, "Stopped before")
}

func TestResultLine(t *testing.T) {
	var out bytes.Buffer
	ResultLine(&out, batch.Result{Path: "/m/a.mkv", Status: batch.StatusSkipped, Message: "already formatted"})
	ResultLine(&out, batch.Result{Path: "/m/b.mkv", Destination: "/m/B.mkv", Status: batch.StatusRenamed})
	assert.Equal(t, "skipped a.mkv (already formatted)\nrenamed b.mkv -> B.mkv\n", out.String())
}

func TestRevertSummary(t *testing.T) {
	var out bytes.Buffer
	RevertSummary(&out, []renamer.RevertResult{
		{NotePath: "/m/A.original.txt", From: "/m/A.mkv", To: "/m/a.mkv", Status: renamer.Reverted},
		{NotePath: "/m/B.original.txt", Status: renamer.RevertSkipped, Err: errors.New("original filename already exists: b.mkv")},
	}, true)
	text := out.String()
	assert.Contains(t, text, "would revert A.mkv -> a.mkv")
	assert.Contains(t, text, "original filename already exists")
	assert.Contains(t, text, "Reverted: 1")
}

func TestHistory(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var out bytes.Buffer
	require.NoError(t, History(&out, nil, now))
	assert.Contains(t, out.String(), "No renames recorded yet.")

	out.Reset()
	require.NoError(t, History(&out, []database.JournalEntry{{
		RunID:        "0f8fad5b-d9cb-469f-a165-70867728950e",
		OriginalPath: "/m/avatar.mkv",
		NewPath:      "/m/Avatar (2009) {tmdb-19995}.mkv",
		Status:       database.JournalRenamed,
		CreatedAt:    now.Add(-2 * time.Hour),
	}}, now))
	text := out.String()
	assert.Contains(t, text, "2 hours ago")
	assert.Contains(t, text, "0f8fad5b")
	assert.NotContains(t, text, "469f")
}
