package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// PlexDB reads a Plex Media Server library database. It never writes.
type PlexDB struct {
	db *sql.DB
}

// OpenPlex opens a Plex database file read-only.
func OpenPlex(dbPath string) (*PlexDB, error) {
	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	// Convert Windows paths for SQLite URI
	absPath = strings.ReplaceAll(absPath, "\\", "/")

	// immutable=1 lets us read a WAL database that Plex still has open
	uri := fmt.Sprintf("file:%s?mode=ro&immutable=1", absPath)

	db, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PlexDB{db: db}, nil
}

// Close closes the database connection
func (p *PlexDB) Close() error {
	return p.db.Close()
}

// LibrarySections returns all library sections
func (p *PlexDB) LibrarySections(ctx context.Context) ([]LibrarySection, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, section_type, COALESCE(language, ''), COALESCE(agent, '')
		FROM library_sections
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query library sections: %w", err)
	}
	defer rows.Close()

	var sections []LibrarySection
	for rows.Next() {
		var s LibrarySection
		if err := rows.Scan(&s.ID, &s.Name, &s.SectionType, &s.Language, &s.Agent); err != nil {
			return nil, fmt.Errorf("failed to scan library section: %w", err)
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

// SectionLocations returns all root paths for a library section
func (p *PlexDB) SectionLocations(ctx context.Context, sectionID int64) ([]SectionLocation, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, library_section_id, root_path, available
		FROM section_locations
		WHERE library_section_id = ?
	`, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query section locations: %w", err)
	}
	defer rows.Close()

	var locations []SectionLocation
	for rows.Next() {
		var l SectionLocation
		if err := rows.Scan(&l.ID, &l.LibrarySectionID, &l.RootPath, &l.Available); err != nil {
			return nil, fmt.Errorf("failed to scan section location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// Files lists every movie and episode file of a section, ordered by path.
func (p *PlexDB) Files(ctx context.Context, sectionID int64) ([]PlexFile, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT md.library_section_id, md.metadata_type, COALESCE(md.title, ''),
		       mp.file, COALESCE(mp.size, 0)
		FROM media_parts mp
		JOIN media_items mi ON mp.media_item_id = mi.id
		JOIN metadata_items md ON mi.metadata_item_id = md.id
		WHERE md.library_section_id = ? AND md.metadata_type IN (?, ?)
		ORDER BY mp.file
	`, sectionID, MediaTypeMovie, MediaTypeEpisode)
	if err != nil {
		return nil, fmt.Errorf("failed to query media parts: %w", err)
	}
	defer rows.Close()

	var files []PlexFile
	for rows.Next() {
		var f PlexFile
		if err := rows.Scan(&f.SectionID, &f.MetadataType, &f.Title, &f.Path, &f.Size); err != nil {
			return nil, fmt.Errorf("failed to scan media part: %w", err)
		}
		if f.Path == "" {
			continue
		}
		files = append(files, f)
	}
	return files, rows.Err()
}
