package resolve

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/trentmillar/plex-file-namer/internal/media"
)

// PickEpisode chooses the catalog episode for a broadcast date. With a part
// number the first episode whose title names that part wins. Episodes dated
// the following day count only when their title carries the date, which is
// how multi-part broadcasts are usually listed.
func PickEpisode(eps []media.EpisodeRef, date time.Time, part int) (media.EpisodeRef, error) {
	var pool []media.EpisodeRef
	for _, ep := range eps {
		switch {
		case sameDay(ep.AirDate, date):
			pool = append(pool, ep)
		case sameDay(ep.AirDate, date.AddDate(0, 0, 1)) && titleHasDate(ep.Title, date):
			pool = append(pool, ep)
		}
	}
	if len(pool) == 0 {
		return media.EpisodeRef{}, fmt.Errorf("no episode aired on %s: %w", date.Format(media.DateLayout), media.ErrCatalogMiss)
	}

	if part > 0 {
		for _, ep := range pool {
			if hasPart(ep.Title, part) {
				return ep, nil
			}
		}
	}
	return pool[0], nil
}

func sameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func titleHasDate(title string, date time.Time) bool {
	lower := strings.ToLower(title)
	for _, layout := range []string{media.DateLayout, "02/01/2006", "2 January 2006", "January 2, 2006", "02.01.2006"} {
		if strings.Contains(lower, strings.ToLower(date.Format(layout))) {
			return true
		}
	}
	return false
}

var partRe = regexp.MustCompile(`(?i)(?:\bpart\s*|\bpt\.?\s*|\bp)(\d+)\b|\((\d+)\)`)

// hasPart reports whether title names the given part: "Part 2", "Pt. 2",
// "p2" or "(2)".
func hasPart(title string, part int) bool {
	for _, m := range partRe.FindAllStringSubmatch(title, -1) {
		digits := m[1]
		if digits == "" {
			digits = m[2]
		}
		if n, err := strconv.Atoi(digits); err == nil && n == part {
			return true
		}
	}
	return false
}
