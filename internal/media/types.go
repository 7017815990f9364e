package media

import (
	"strings"
	"time"
)

// Type is the kind of media a record describes.
type Type int

const (
	TypeUnknown Type = iota
	TypeMovie
	TypeEpisode
)

func (t Type) String() string {
	switch t {
	case TypeMovie:
		return "movie"
	case TypeEpisode:
		return "tv"
	default:
		return "auto"
	}
}

// ParseType maps the CLI/config spelling of a media type to a Type.
// "auto" and the empty string map to TypeUnknown.
func ParseType(s string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return TypeUnknown, true
	case "movie", "movies", "film":
		return TypeMovie, true
	case "tv", "show", "episode":
		return TypeEpisode, true
	}
	return TypeUnknown, false
}

// PathInput is a tokenized file path. It is never mutated after Tokenize returns it.
type PathInput struct {
	Path     string   // cleaned, slash-separated
	Segments []string // parent directories, outermost first
	Stem     string   // filename without extension
	Ext      string   // extension including the dot, may be empty
}

// Filename returns the final path component.
func (p PathInput) Filename() string {
	return p.Stem + p.Ext
}

// Parent returns the immediate parent directory name, or "".
func (p PathInput) Parent() string {
	if len(p.Segments) == 0 {
		return ""
	}
	return p.Segments[len(p.Segments)-1]
}

// Grandparent returns the directory above the parent, or "".
func (p PathInput) Grandparent() string {
	if len(p.Segments) < 2 {
		return ""
	}
	return p.Segments[len(p.Segments)-2]
}

// Components returns the parent segments followed by the filename stem.
func (p PathInput) Components() []string {
	out := make([]string, 0, len(p.Segments)+1)
	out = append(out, p.Segments...)
	return append(out, p.Stem)
}

// Quality holds the technical and release descriptors rendered in brackets.
type Quality struct {
	Resolution string
	Source     string
	VideoCodec string
	AudioCodec string
	Special    []string
	// Detected is true when resolution and codecs came from the prober
	// rather than from filename claims.
	Detected bool
}

// Tokens returns the quality descriptors in rendering order: resolution,
// source, video codec, audio codec, then special tags. Unknown fields are omitted.
func (q Quality) Tokens() []string {
	var out []string
	for _, v := range []string{q.Resolution, q.Source, q.VideoCodec, q.AudioCodec} {
		if v != "" {
			out = append(out, v)
		}
	}
	return append(out, q.Special...)
}

// Record is the accumulating work record for one file. Zero values mean "unset":
// Year 0, Season 0, Episode 0, CatalogID 0 and a zero AirDate.
type Record struct {
	Title        string
	Year         int
	Type         Type
	Season       int
	Episode      int
	AirDate      time.Time
	Part         int
	Edition      string
	CatalogID    int64
	EpisodeTitle string
	Quality      Quality
}

// HasAirDate reports whether the record was identified by broadcast date.
func (r Record) HasAirDate() bool {
	return !r.AirDate.IsZero()
}

// Candidate is one catalog search result.
type Candidate struct {
	ID         int64
	Title      string
	Year       int
	Runtime    int // minutes, 0 when unknown
	Popularity float64
}

// EpisodeRef is an episode reported by the catalog.
type EpisodeRef struct {
	Season  int
	Episode int
	Title   string
	AirDate time.Time
}

// ProbeInfo is what the prober measured from the file itself.
type ProbeInfo struct {
	DurationMinutes float64
	Resolution      string
	RawResolution   string
	VideoCodec      string
	AudioCodec      string
}

// BackupNote records enough to undo a rename.
type BackupNote struct {
	OriginalName string
	OriginalPath string
	NewName      string
	Timestamp    time.Time
}

// TimestampString renders the note timestamp as ISO-8601.
func (n BackupNote) TimestampString() string {
	return n.Timestamp.Format(time.RFC3339)
}

// RenameOperation is the final output for one file, handed to the filesystem layer.
type RenameOperation struct {
	ID           string
	OriginalPath string
	NewName      string
	Backup       BackupNote
}

// DateLayout is the air-date rendering used in filenames and catalog payloads.
const DateLayout = "2006-01-02"
