package renamer

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/trentmillar/plex-file-namer/internal/media"
)

// MaxEditionLength is the longest edition Plex accepts inside {edition-...}.
const MaxEditionLength = 32

// Builder generates Plex filenames from identified records.
type Builder struct {
	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// NewBuilder returns a Builder using the wall clock and random UUIDs.
func NewBuilder() *Builder {
	return &Builder{Now: time.Now, NewID: uuid.NewString}
}

var broadcastTime = regexp.MustCompile(`\s*\(\d{1,2}:\d{2}\)`)

// Name renders the Plex filename for rec.
//
//	Movie:   Title (Year) {tmdb-ID} {edition-Edition} [tokens].ext
//	Episode: Title (Year) {tmdb-ID} - s01e02 - Episode Title [tokens].ext
//	Dated:   Title (Year) {tmdb-ID} - 2019-02-13 - Episode Title - pt2 [tokens].ext
func (b *Builder) Name(rec media.Record, ext string) string {
	var parts []string
	parts = append(parts, sanitizeFilename(rec.Title))
	if rec.Year > 0 {
		parts = append(parts, fmt.Sprintf("(%d)", rec.Year))
	}
	if rec.CatalogID > 0 {
		parts = append(parts, fmt.Sprintf("{tmdb-%d}", rec.CatalogID))
	}

	edition := ""
	if rec.Type == media.TypeMovie && rec.Edition != "" {
		edition = truncateRunes(sanitizeFilename(rec.Edition), MaxEditionLength)
		parts = append(parts, fmt.Sprintf("{edition-%s}", edition))
	}
	result := strings.Join(parts, " ")

	if rec.Type == media.TypeEpisode {
		switch {
		case rec.HasAirDate():
			result += " - " + rec.AirDate.Format(media.DateLayout)
			if title := episodeTitle(rec.EpisodeTitle); title != "" {
				result += " - " + title
			}
			if rec.Part > 0 {
				result += fmt.Sprintf(" - pt%d", rec.Part)
			}
		case rec.Episode > 0:
			season := rec.Season
			if season < 1 {
				season = 1
			}
			result += fmt.Sprintf(" - s%02de%02d", season, rec.Episode)
			if title := episodeTitle(rec.EpisodeTitle); title != "" {
				result += " - " + title
			}
		}
	}

	if tokens := qualityTokens(rec.Quality, edition); len(tokens) > 0 {
		result += " [" + strings.Join(tokens, " ") + "]"
	}
	return result + ext
}

// Build turns an identified record into the rename operation for in.
func (b *Builder) Build(in media.PathInput, rec media.Record) (media.RenameOperation, error) {
	if strings.TrimSpace(rec.Title) == "" {
		return media.RenameOperation{}, fmt.Errorf("build name for %q: record has no title: %w", in.Path, media.ErrInvalidInput)
	}
	if rec.Type == media.TypeEpisode && !rec.HasAirDate() && rec.Episode < 1 {
		return media.RenameOperation{}, fmt.Errorf("build name for %q: episode number unknown: %w", in.Path, media.ErrInvalidInput)
	}

	now, newID := b.Now, b.NewID
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}

	name := b.Name(rec, in.Ext)
	return media.RenameOperation{
		ID:           newID(),
		OriginalPath: in.Path,
		NewName:      name,
		Backup: media.BackupNote{
			OriginalName: in.Filename(),
			OriginalPath: in.Path,
			NewName:      name,
			Timestamp:    now(),
		},
	}, nil
}

func episodeTitle(title string) string {
	return sanitizeFilename(broadcastTime.ReplaceAllString(title, ""))
}

// qualityTokens drops special tags that repeat the edition.
func qualityTokens(q media.Quality, edition string) []string {
	var out []string
	for _, tok := range q.Tokens() {
		if edition != "" && strings.EqualFold(tok, edition) {
			continue
		}
		out = append(out, sanitizeFilename(tok))
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}

var (
	formattedYear = regexp.MustCompile(`\s\(\d{4}\)`)
	formattedID   = regexp.MustCompile(`\{tmdb-\d+\}`)
)

// IsFormatted reports whether stem already carries a parenthesised year and a
// catalog id, i.e. it was produced by Name.
func IsFormatted(stem string) bool {
	return formattedYear.MatchString(stem) && formattedID.MatchString(stem)
}

var filenameReplacer = strings.NewReplacer(
	":", " -",
	"/", "-",
	"\\", "-",
	"*", "",
	"?", "",
	"\"", "'",
	"<", "",
	">", "",
	"|", "-",
)

var spaceRun = regexp.MustCompile(`\s+`)

// sanitizeFilename removes or replaces characters that are invalid in filenames
func sanitizeFilename(name string) string {
	// Characters not allowed in Windows filenames: \ / : * ? " < > |
	result := filenameReplacer.Replace(name)

	result = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, result)

	// Windows doesn't like trailing dots
	result = strings.TrimRight(result, " .")
	result = spaceRun.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// ApplyPathMapping replaces the source path prefix with destination prefix.
// Used when the Plex server sees the library under a different mount point.
func ApplyPathMapping(path, srcPrefix, dstPrefix string) string {
	if srcPrefix == "" || dstPrefix == "" {
		return path
	}

	normalizedPath := filepath.ToSlash(path)
	normalizedSrc := filepath.ToSlash(srcPrefix)

	if strings.HasPrefix(normalizedPath, normalizedSrc) {
		newPath := dstPrefix + normalizedPath[len(normalizedSrc):]
		return filepath.FromSlash(newPath)
	}

	return path
}
