// Package extract pulls title, year, edition and episode numbers out of
// filenames and folder names.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/trentmillar/plex-file-namer/internal/classify"
	"github.com/trentmillar/plex-file-namer/internal/media"
	"github.com/trentmillar/plex-file-namer/internal/pattern"
	"github.com/trentmillar/plex-file-namer/internal/quality"
)

const (
	minYear = 1888
	maxYear = 2100
)

var (
	bracketGroup = regexp.MustCompile(`\s*\[[^\]]*\]\s*`)
	braceGroup   = regexp.MustCompile(`\s*\{[^}]*\}\s*`)
	releaseGroup = regexp.MustCompile(`-[A-Z][A-Z0-9]+$`)
	separators   = regexp.MustCompile(`[._]+`)

	dashYear     = regexp.MustCompile(`\s+-\s+(\d{4})\s*$`)
	yearWord     = regexp.MustCompile(`\b\d{4}\b`)
	parenYear    = regexp.MustCompile(`\((\d{4})\)`)
	embeddedYear = regexp.MustCompile(`\s(\d{4})\s`)
)

// titleCase upper-cases the first letter of each word and leaves the rest
// alone. Casers carry state, so each call gets its own.
func titleCase(s string) string {
	return cases.Title(language.English, cases.NoLower).String(s)
}

// Preprocess drops bracketed and braced groups and a trailing uppercase
// release tag, then turns dots and underscores into spaces.
func Preprocess(stem string) string {
	s := bracketGroup.ReplaceAllString(stem, " ")
	s = braceGroup.ReplaceAllString(s, " ")
	s = releaseGroup.ReplaceAllString(strings.TrimSpace(s), "")
	s = separators.ReplaceAllString(s, " ")
	return collapse(s)
}

// TitleYear splits already preprocessed text into a title and a year. The
// year is 0 when none was found.
func TitleYear(text string, parenthesesOnly bool) (string, int) {
	title, year, _ := splitTitle(text, parenthesesOnly)
	return title, year
}

// splitTitle works like TitleYear and also returns the text after the year,
// where edition and release words are read from. The title itself is never
// searched for editions.
func splitTitle(text string, parenthesesOnly bool) (string, int, string) {
	if parenthesesOnly {
		if head, year, tail, ok := lastParenYear(text); ok {
			return cleanTitle(head), year, tail
		}
		head, tail := cutAtQuality(text)
		return cleanTitle(head), 0, tail
	}

	if m := dashYear.FindStringSubmatchIndex(text); m != nil {
		if year, ok := validYear(text[m[2]:m[3]]); ok {
			return cleanTitle(text[:m[0]]), year, ""
		}
	}

	if head, year, tail, ok := yearBeforeNoise(text); ok {
		return cleanTitle(head), year, tail
	}

	if head, year, tail, ok := lastParenYear(text); ok {
		return cleanTitle(head), year, tail
	}

	// a year in the middle of the name followed only by release noise:
	// "Heat 1995 Remastered 1080p"
	for _, m := range embeddedYear.FindAllStringSubmatchIndex(text, -1) {
		year, ok := validYear(text[m[2]:m[3]])
		if !ok || m[0] == 0 {
			continue
		}
		if isReleaseNoise(text[m[3]:]) {
			return cleanTitle(text[:m[0]]), year, text[m[3]:]
		}
	}

	head, tail := cutAtQuality(text)
	return cleanTitle(head), 0, tail
}

// yearBeforeNoise finds the last year followed only by quality and edition
// words, as in "Aliens 1986 Directors Cut 1080p". A year opening the text is
// part of the title.
func yearBeforeNoise(text string) (string, int, string, bool) {
	all := yearWord.FindAllStringIndex(text, -1)
	for i := len(all) - 1; i >= 0; i-- {
		m := all[i]
		if m[0] == 0 {
			break
		}
		year, ok := validYear(text[m[0]:m[1]])
		if !ok {
			continue
		}
		if tail := text[m[1]:]; onlyNoise(tail) {
			return text[:m[0]], year, tail, true
		}
		return "", 0, "", false
	}
	return "", 0, "", false
}

func onlyNoise(s string) bool {
	return strings.Trim(collapse(quality.Strip(stripEditions(s))), " -()") == ""
}

func lastParenYear(text string) (string, int, string, bool) {
	all := parenYear.FindAllStringSubmatchIndex(text, -1)
	for i := len(all) - 1; i >= 0; i-- {
		m := all[i]
		if year, ok := validYear(text[m[2]:m[3]]); ok {
			return text[:m[0]], year, text[m[1]:], true
		}
	}
	return "", 0, "", false
}

func validYear(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < minYear || n > maxYear {
		return 0, false
	}
	return n, true
}

// isReleaseNoise reports whether s starts with a quality or edition word.
func isReleaseNoise(s string) bool {
	s = strings.TrimSpace(s)
	return quality.FirstIndex(s) == 0 || editionIndex(s) == 0
}

func cutAtQuality(s string) (string, string) {
	if i := quality.FirstIndex(s); i > 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

// cleanTitle removes quality words and title-cases what is left.
func cleanTitle(s string) string {
	s = parenYear.ReplaceAllString(s, " ")
	s = quality.Strip(s)
	s = strings.NewReplacer("(", " ", ")", " ").Replace(s)
	s = strings.Trim(collapse(s), " -")
	return titleCase(collapse(s))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Movie extracts a movie record from a filename stem.
func Movie(stem string, parenthesesOnly bool) media.Record {
	text := Preprocess(stem)
	title, year, rest := splitTitle(text, parenthesesOnly)
	if title == "" {
		title = titleCase(collapse(text))
	}
	return media.Record{
		Title:   title,
		Year:    year,
		Type:    media.TypeMovie,
		Edition: Edition(rest),
	}
}

// Episode extracts show title, season and episode using the classifier's
// marker evidence.
func Episode(in media.PathInput, cls classify.Result, parenthesesOnly bool) media.Record {
	rec := media.Record{Type: media.TypeEpisode}
	marker, hasMarker := cls.Evidence.MarkerDetail()

	prefix := in.Stem
	rest := in.Stem
	if hasMarker {
		prefix, rest = in.Stem[:marker.Start], in.Stem[marker.End:]
		rec.Episode = marker.Episode
		rec.Season = marker.Season
	}
	if rec.Season == 0 {
		rec.Season = 1
		if cls.Evidence.FolderSeason > 0 {
			rec.Season = cls.Evidence.FolderSeason
		}
	}

	prefixText := Preprocess(prefix)
	switch {
	case hasMarker && marker.HasSeason() && prefixText != "":
		rec.Title, rec.Year = TitleYear(prefixText, parenthesesOnly)
	case ShowFolder(in) != "":
		rec.Title, rec.Year = TitleYear(Preprocess(ShowFolder(in)), parenthesesOnly)
	default:
		rec.Title, rec.Year = TitleYear(prefixText, parenthesesOnly)
	}
	if rec.Title == "" {
		rec.Title, rec.Year = TitleYear(Preprocess(in.Stem), parenthesesOnly)
	}

	rec.Part = Part(rest)
	return rec
}

// DateEpisode builds a record for a show identified by air date. The title is
// the explicit show name, else the pattern's show name, else its title, else
// the show folder.
func DateEpisode(in media.PathInput, b pattern.Bindings, showName string) media.Record {
	rec := media.Record{
		Type:    media.TypeEpisode,
		AirDate: b.AirDate,
		Part:    b.Part,
	}
	switch {
	case strings.TrimSpace(showName) != "":
		rec.Title = collapse(showName)
	case b.ShowName != "":
		rec.Title, _ = TitleYear(b.ShowName, false)
	case b.Title != "":
		rec.Title, _ = TitleYear(b.Title, false)
	default:
		rec.Title, _ = TitleYear(Preprocess(ShowFolder(in)), false)
	}
	if rec.Part == 0 {
		rec.Part = Part(in.Stem)
	}
	return rec
}

// ShowFolder returns the directory naming the show: the grandparent when the
// file sits in a season folder, else the parent.
func ShowFolder(in media.PathInput) string {
	if _, ok := classify.SeasonFolder(in.Parent()); ok {
		return in.Grandparent()
	}
	return in.Parent()
}

// Part returns the multi-part number in s, or 0.
func Part(s string) int {
	n, _ := media.ParsePart(s)
	return n
}
