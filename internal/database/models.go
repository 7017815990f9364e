package database

import "time"

// LibrarySection represents a Plex library (e.g., "Movies", "TV Shows")
type LibrarySection struct {
	ID          int64
	Name        string
	SectionType int // 1 = movie, 2 = show
	Language    string
	Agent       string
}

// IsMovie reports whether the section holds movies.
func (s LibrarySection) IsMovie() bool { return s.SectionType == SectionTypeMovie }

// SectionLocation represents a root path for a library section
type SectionLocation struct {
	ID               int64
	LibrarySectionID int64
	RootPath         string
	Available        int
}

// PlexFile is a media file known to a Plex library.
type PlexFile struct {
	SectionID    int64
	MetadataType int
	Title        string
	Path         string
	Size         int64
}

// MediaType constants
const (
	MediaTypeMovie   = 1
	MediaTypeShow    = 2
	MediaTypeSeason  = 3
	MediaTypeEpisode = 4
)

// SectionType constants
const (
	SectionTypeMovie = 1
	SectionTypeShow  = 2
)

// JournalStatus is the recorded outcome of one rename attempt.
type JournalStatus string

const (
	JournalRenamed  JournalStatus = "renamed"
	JournalSkipped  JournalStatus = "skipped"
	JournalFailed   JournalStatus = "failed"
	JournalReverted JournalStatus = "reverted"
)

// JournalEntry is one row of the rename journal.
type JournalEntry struct {
	ID           int64
	RunID        string
	OperationID  string
	OriginalPath string
	NewPath      string
	Mode         string
	Status       JournalStatus
	Message      string
	CreatedAt    time.Time
}
