package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePlexFixture creates a minimal database with the Plex tables Files reads.
func writePlexFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "com.plexapp.plugins.library.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE library_sections (id INTEGER PRIMARY KEY, name TEXT, section_type INTEGER, language TEXT, agent TEXT)`,
		`CREATE TABLE section_locations (id INTEGER PRIMARY KEY, library_section_id INTEGER, root_path TEXT, available INTEGER)`,
		`CREATE TABLE metadata_items (id INTEGER PRIMARY KEY, library_section_id INTEGER, metadata_type INTEGER, parent_id INTEGER, title TEXT)`,
		`CREATE TABLE media_items (id INTEGER PRIMARY KEY, metadata_item_id INTEGER)`,
		`CREATE TABLE media_parts (id INTEGER PRIMARY KEY, media_item_id INTEGER, file TEXT, size INTEGER)`,

		`INSERT INTO library_sections VALUES (1, 'Movies', 1, 'en', 'tv.plex.agents.movie')`,
		`INSERT INTO library_sections VALUES (2, 'TV Shows', 2, 'en', NULL)`,
		`INSERT INTO library_sections VALUES (3, 'Music', 8, 'en', NULL)`,
		`INSERT INTO section_locations VALUES (1, 1, '/data/Movies', 1)`,

		`INSERT INTO metadata_items VALUES (10, 1, 1, NULL, 'Avatar')`,
		`INSERT INTO metadata_items VALUES (20, 2, 2, NULL, 'Breaking Bad')`,
		`INSERT INTO metadata_items VALUES (21, 2, 3, 20, 'Season 1')`,
		`INSERT INTO metadata_items VALUES (22, 2, 4, 21, 'Pilot')`,
		`INSERT INTO metadata_items VALUES (30, 3, 10, NULL, 'Song')`,

		`INSERT INTO media_items VALUES (100, 10)`,
		`INSERT INTO media_items VALUES (200, 22)`,
		`INSERT INTO media_items VALUES (300, 30)`,
		`INSERT INTO media_parts VALUES (1000, 100, '/data/Movies/avatar_2009.mp4', 1024)`,
		`INSERT INTO media_parts VALUES (2000, 200, '/data/TV/Breaking Bad/S01/bb.s01e01.mkv', NULL)`,
		`INSERT INTO media_parts VALUES (3000, 300, '/data/Music/song.flac', 10)`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err, s)
	}
	return path
}

func TestPlexFiles(t *testing.T) {
	ctx := context.Background()
	p, err := OpenPlex(writePlexFixture(t))
	require.NoError(t, err)
	defer p.Close()

	sections, err := p.LibrarySections(ctx)
	require.NoError(t, err)
	require.Len(t, sections, 3)
	assert.Equal(t, "Movies", sections[0].Name)
	assert.True(t, sections[0].IsMovie())

	locs, err := p.SectionLocations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "/data/Movies", locs[0].RootPath)

	movies, err := p.Files(ctx, 1)
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "/data/Movies/avatar_2009.mp4", movies[0].Path)
	assert.Equal(t, int64(1024), movies[0].Size)

	tv, err := p.Files(ctx, 2)
	require.NoError(t, err)
	require.Len(t, tv, 1)
	assert.Equal(t, MediaTypeEpisode, tv[0].MetadataType)
	assert.Equal(t, int64(0), tv[0].Size)
	assert.Equal(t, "Pilot", tv[0].Title)

	// non-video items are never listed
	music, err := p.Files(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, music)
}
