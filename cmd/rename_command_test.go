package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trentmillar/plex-file-namer/internal/batch"
	"github.com/trentmillar/plex-file-namer/internal/renamer"
)

const avatarName = "Avatar (2009) {tmdb-19995}.mp4"

func TestRenamePreviewLeavesFilesInPlace(t *testing.T) {
	env := setupCLITestEnv(t)
	original := env.addFile(t, "avatar_2009.mp4")

	out, _, err := runCLI(t, env, "", "rename", env.libraryDir)
	require.NoError(t, err)

	assert.Contains(t, out, avatarName)
	assert.Contains(t, out, "Planned: 1")
	assert.Contains(t, out, "--rename")
	assert.FileExists(t, original)
	assert.NoFileExists(t, filepath.Join(env.libraryDir, avatarName))
	assert.NoFileExists(t, filepath.Join(env.libraryDir, batch.LockName))
}

func TestRenameWithYesRenamesAndJournals(t *testing.T) {
	env := setupCLITestEnv(t)
	original := env.addFile(t, "avatar_2009.mp4")

	out, _, err := runCLI(t, env, "", "rename", "--rename", "--yes", env.libraryDir)
	require.NoError(t, err)
	assert.Contains(t, out, "renamed avatar_2009.mp4")
	assert.Contains(t, out, "Renamed: 1")

	renamed := filepath.Join(env.libraryDir, avatarName)
	assert.NoFileExists(t, original)
	assert.FileExists(t, renamed)
	assert.True(t, renamer.HasNote(renamed))

	out, _, err = runCLI(t, env, "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "avatar_2009.mp4")
	assert.Contains(t, out, "renamed")
}

func TestRenameAsksBeforeEachFile(t *testing.T) {
	env := setupCLITestEnv(t)
	original := env.addFile(t, "avatar_2009.mp4")

	out, _, err := runCLI(t, env, "n\n", "rename", "--rename", env.libraryDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Rename this file?")
	assert.Contains(t, out, "skipped avatar_2009.mp4 (declined)")
	assert.FileExists(t, original)
}

func TestRenameDryRunOverridesRename(t *testing.T) {
	env := setupCLITestEnv(t)
	original := env.addFile(t, "avatar_2009.mp4")

	out, _, err := runCLI(t, env, "", "rename", "--rename", "--dry-run", env.libraryDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Planned: 1")
	assert.FileExists(t, original)
}

func TestRenameWritesScript(t *testing.T) {
	env := setupCLITestEnv(t)
	original := env.addFile(t, "avatar_2009.mp4")
	target := filepath.Join(env.baseDir, "rename.sh")

	out, _, err := runCLI(t, env, "", "rename", "--script", "bash", "--script-output", target, env.libraryDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Script written")
	assert.FileExists(t, original)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	script := string(data)
	assert.Contains(t, script, "#!/bin/bash")
	assert.Contains(t, script, "mv -- '"+original+"'")
	assert.Contains(t, script, avatarName)
}

func TestRenameCopyToOutputDirectory(t *testing.T) {
	env := setupCLITestEnv(t)
	original := env.addFile(t, "avatar_2009.mp4")
	dest := filepath.Join(env.baseDir, "sorted")
	require.NoError(t, os.MkdirAll(dest, 0o755))

	_, _, err := runCLI(t, env, "", "rename", "--rename", "--yes", "--mode", "copy", "--output", dest, "--no-backup", env.libraryDir)
	require.NoError(t, err)
	assert.FileExists(t, original)
	assert.FileExists(t, filepath.Join(dest, avatarName))
	assert.False(t, renamer.HasNote(filepath.Join(dest, avatarName)))
}

func TestRenameReportsCatalogMisses(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addFile(t, "unknown_film_1999.mp4")

	out, _, err := runCLI(t, env, "", "rename", env.libraryDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Failed: 1")
	assert.Contains(t, out, "unknown_film_1999.mp4")
}

func TestRenameRequiresAPIKey(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeConfig(t, "")
	env.addFile(t, "avatar_2009.mp4")

	_, _, err := runCLI(t, env, "", "rename", env.libraryDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tmdb.api_key is required")

	// the flag supplies the key
	_, _, err = runCLI(t, env, "", "--api-key", "test-key", "rename", env.libraryDir)
	assert.NoError(t, err)
}

func TestRenameRejectsBadFlags(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "", "rename", "--type", "music", env.libraryDir)
	assert.ErrorContains(t, err, "--type")

	_, _, err = runCLI(t, env, "", "rename", "--script", "fish", env.libraryDir)
	assert.ErrorContains(t, err, "unknown script shell")

	_, _, err = runCLI(t, env, "", "rename", "--pattern", "SHOW_NAME/{TITLE", env.libraryDir)
	assert.ErrorContains(t, err, "compile pattern")
}

func TestRevertRestoresAndJournals(t *testing.T) {
	env := setupCLITestEnv(t)
	original := env.addFile(t, "avatar_2009.mp4")

	_, _, err := runCLI(t, env, "", "rename", "--rename", "--yes", env.libraryDir)
	require.NoError(t, err)
	require.NoFileExists(t, original)

	out, _, err := runCLI(t, env, "", "revert", "--dry-run", env.libraryDir)
	require.NoError(t, err)
	assert.Contains(t, out, "would revert")
	assert.NoFileExists(t, original)

	out, _, err = runCLI(t, env, "", "revert", env.libraryDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Reverted: 1")
	assert.FileExists(t, original)

	out, _, err = runCLI(t, env, "", "history", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "reverted")
}
