package classify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/trentmillar/plex-file-namer/internal/quality"
)

// Marker is an episode marker found in a filename stem.
type Marker struct {
	Form    string
	Season  int // 0 when the marker carries no season
	Episode int
	// Start and End delimit the marker text in the stem.
	Start, End int
}

// HasSeason reports whether the marker itself named the season.
func (m Marker) HasSeason() bool {
	return m.Season > 0
}

const (
	FormSxxExx        = "SxxExx"
	FormNxNN          = "NxNN"
	FormSeasonEpisode = "Season N Episode N"
	FormDotted        = "S.EE"
	FormEpisodeOnly   = "Exx"
	FormCompact       = "SEE"
)

var (
	sxxexxRe        = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(s(\d{1,2})[\s._\-]?e(\d{1,3}))`)
	nxnnRe          = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])((\d{1,2})x(\d{2,3}))(?:$|[^0-9])`)
	seasonEpisodeRe = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(season[\s._\-]*(\d{1,2})[\s._\-]*episode[\s._\-]*(\d{1,3}))`)
	dottedRe        = regexp.MustCompile(`(?:^|[\s_\-.])((\d{1,2})\.(\d{2}))(?:$|[\s_\-.])`)
	episodeOnlyRe   = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])((?:episode|ep|e)[\s._\-]?(\d{1,3}))(?:$|[^0-9])`)
	compactRe       = regexp.MustCompile(`[\s_\-.]((\d)(\d{2}))(?:$|[\s_\-.])`)

	numericToken = regexp.MustCompile(`^\d+$`)
	releaseYear  = regexp.MustCompile(`(?:^|[\s._\-(\[])((?:19|20)\d{2})(?:$|[\s._\-)\]])`)
)

// codecPrefixes are the tokens that turn a following number into a codec
// name when written with a separator, as in "H.264" or "x.265".
var codecPrefixes = map[string]bool{"h": true, "x": true}

// ParseMarker finds the first episode marker in stem, trying the explicit
// forms before the ambiguous ones.
func ParseMarker(stem string) (Marker, bool) {
	for _, parse := range []func(string) (Marker, bool){
		parseSxxExx,
		parseNxNN,
		parseSeasonEpisode,
		parseDotted,
		parseEpisodeOnly,
		parseCompact,
	} {
		if m, ok := parse(stem); ok {
			return m, true
		}
	}
	return Marker{}, false
}

func parseSxxExx(stem string) (Marker, bool) {
	return seasonEpisode(sxxexxRe, FormSxxExx, stem)
}

func parseNxNN(stem string) (Marker, bool) {
	return seasonEpisode(nxnnRe, FormNxNN, stem)
}

func parseSeasonEpisode(stem string) (Marker, bool) {
	return seasonEpisode(seasonEpisodeRe, FormSeasonEpisode, stem)
}

// seasonEpisode reads a regex whose groups are (marker, season, episode).
func seasonEpisode(re *regexp.Regexp, form, stem string) (Marker, bool) {
	m := re.FindStringSubmatchIndex(stem)
	if m == nil {
		return Marker{}, false
	}
	season, _ := strconv.Atoi(stem[m[4]:m[5]])
	episode, _ := strconv.Atoi(stem[m[6]:m[7]])
	if season < 1 || episode < 1 {
		return Marker{}, false
	}
	return Marker{Form: form, Season: season, Episode: episode, Start: m[2], End: m[3]}, true
}

// parseDotted reads "1.05" style markers. A neighbouring all-digit token means
// the numbers belong to a date such as 2019.02.13 and the match is rejected.
func parseDotted(stem string) (Marker, bool) {
	limit := numericLimit(stem)
	for _, m := range dottedRe.FindAllStringSubmatchIndex(stem, -1) {
		start, end := m[2], m[3]
		if start >= limit {
			break
		}
		if numericToken.MatchString(previousToken(stem, start)) || numericToken.MatchString(nextToken(stem, end)) {
			continue
		}
		if releaseWord(previousToken(stem, start)) {
			continue
		}
		season, _ := strconv.Atoi(stem[m[4]:m[5]])
		episode, _ := strconv.Atoi(stem[m[6]:m[7]])
		if season < 1 || episode < 1 {
			continue
		}
		return Marker{Form: FormDotted, Season: season, Episode: episode, Start: start, End: end}, true
	}
	return Marker{}, false
}

func parseEpisodeOnly(stem string) (Marker, bool) {
	m := episodeOnlyRe.FindStringSubmatchIndex(stem)
	if m == nil {
		return Marker{}, false
	}
	episode, _ := strconv.Atoi(stem[m[4]:m[5]])
	if episode < 1 {
		return Marker{}, false
	}
	return Marker{Form: FormEpisodeOnly, Episode: episode, Start: m[2], End: m[3]}, true
}

// parseCompact reads three-digit "105" markers. A leading number is usually
// part of the title, so the stem's first token never counts.
func parseCompact(stem string) (Marker, bool) {
	limit := numericLimit(stem)
	for _, m := range compactRe.FindAllStringSubmatchIndex(stem, -1) {
		if m[2] >= limit {
			break
		}
		if releaseWord(previousToken(stem, m[2])) {
			continue
		}
		season, _ := strconv.Atoi(stem[m[4]:m[5]])
		episode, _ := strconv.Atoi(stem[m[6]:m[7]])
		if season < 1 || episode < 1 {
			continue
		}
		return Marker{Form: FormCompact, Season: season, Episode: episode, Start: m[2], End: m[3]}, true
	}
	return Marker{}, false
}

// numericLimit is the offset where the bare numeric forms stop being read:
// the first release year or quality word, else the end of the stem. A year
// opening the stem is a title, not a boundary.
func numericLimit(stem string) int {
	limit := len(stem)
	for _, m := range releaseYear.FindAllStringSubmatchIndex(stem, -1) {
		if m[2] > 0 {
			limit = m[2]
			break
		}
	}
	if i := quality.FirstIndex(stem); i >= 0 && i < limit {
		limit = i
	}
	return limit
}

// releaseWord reports whether tok makes a following number part of a release
// tag: a codec prefix or any quality word.
func releaseWord(tok string) bool {
	return codecPrefixes[strings.ToLower(tok)] || quality.FirstIndex(tok) >= 0
}

func isSep(r byte) bool {
	return r == ' ' || r == '.' || r == '_' || r == '-'
}

func previousToken(s string, end int) string {
	i := end
	for i > 0 && isSep(s[i-1]) {
		i--
	}
	j := i
	for j > 0 && !isSep(s[j-1]) {
		j--
	}
	return s[j:i]
}

func nextToken(s string, start int) string {
	i := start
	for i < len(s) && isSep(s[i]) {
		i++
	}
	j := i
	for j < len(s) && !isSep(s[j]) {
		j++
	}
	return s[i:j]
}

var seasonFolderRe = regexp.MustCompile(`(?i)^(?:s(\d{1,2})|season[\s._\-]*(\d{1,3})|(\d{1,2}))$`)

// SeasonFolder reports whether a directory name looks like a season folder
// ("S01", "Season 1", "1") and returns its number.
func SeasonFolder(name string) (int, bool) {
	m := seasonFolderRe.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return 0, false
	}
	for _, g := range m[1:] {
		if g == "" {
			continue
		}
		n, err := strconv.Atoi(g)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
