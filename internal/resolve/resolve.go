// Package resolve picks one catalog candidate out of a search result using the
// file's running time and title equivalence.
package resolve

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/trentmillar/plex-file-namer/internal/media"
	"github.com/trentmillar/plex-file-namer/internal/numeral"
)

// ExactWindow is how far, in minutes, an exact title match may stray from the
// file duration and still be preferred over every other candidate.
const ExactWindow = 2.0

// Query describes the file being matched.
type Query struct {
	Title           string
	Year            int
	DurationMinutes float64 // 0 when unknown
}

// Step names the rule that selected a candidate.
type Step string

const (
	StepExactDuration   Step = "exact-title-duration"
	StepRuntimeAbove    Step = "smallest-runtime-above"
	StepRuntimeClosest  Step = "closest-runtime"
	StepExactPopularity Step = "exact-title-popularity"
	StepFuzzy           Step = "fuzzy-title"
)

// Pick selects the best candidate for q. Ties go to the more popular
// candidate, then to the lower catalog ID.
func Pick(q Query, candidates []media.Candidate) (media.Candidate, error) {
	c, _, err := PickWithStep(q, candidates)
	return c, err
}

// PickWithStep is Pick that also reports which rule decided.
func PickWithStep(q Query, candidates []media.Candidate) (media.Candidate, Step, error) {
	cands := dedupe(candidates)
	if len(cands) == 0 {
		return media.Candidate{}, "", fmt.Errorf("no candidates for %q: %w", q.Title, media.ErrCatalogMiss)
	}

	var timed []media.Candidate
	for _, c := range cands {
		if c.Runtime > 0 {
			timed = append(timed, c)
		}
	}

	if q.DurationMinutes > 0 && len(timed) > 0 {
		dur := q.DurationMinutes

		var exact []media.Candidate
		for _, c := range timed {
			if numeral.Equivalent(c.Title, q.Title) && math.Abs(float64(c.Runtime)-dur) <= ExactWindow {
				exact = append(exact, c)
			}
		}
		if len(exact) > 0 {
			return best(exact, func(c media.Candidate) float64 { return math.Abs(float64(c.Runtime) - dur) }), StepExactDuration, nil
		}

		var above []media.Candidate
		for _, c := range timed {
			if float64(c.Runtime) >= dur {
				above = append(above, c)
			}
		}
		if len(above) > 0 {
			return best(above, func(c media.Candidate) float64 { return float64(c.Runtime) }), StepRuntimeAbove, nil
		}

		return best(timed, func(c media.Candidate) float64 { return math.Abs(float64(c.Runtime) - dur) }), StepRuntimeClosest, nil
	}

	var exact []media.Candidate
	for _, c := range cands {
		if numeral.Equivalent(c.Title, q.Title) {
			exact = append(exact, c)
		}
	}
	if len(exact) > 0 {
		return best(exact, func(c media.Candidate) float64 { return -c.Popularity }), StepExactPopularity, nil
	}

	return best(cands, func(c media.Candidate) float64 { return titleDistance(q.Title, c.Title) }), StepFuzzy, nil
}

// titleDistance ranks subsequence matches ahead of everything else, then falls
// back to edit distance.
func titleDistance(query, title string) float64 {
	query = numeral.Canonical(query)
	title = numeral.Canonical(title)
	if rank := fuzzy.RankMatchNormalizedFold(query, title); rank >= 0 {
		return float64(rank)
	}
	// a non-matching title always sorts after every subsequence match
	return 1e6 + float64(fuzzy.LevenshteinDistance(query, title))
}

// best returns the candidate with the lowest key, breaking ties on higher
// popularity and then lower ID.
func best(cands []media.Candidate, key func(media.Candidate) float64) media.Candidate {
	sorted := append([]media.Candidate(nil), cands...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ki, kj := key(sorted[i]), key(sorted[j])
		if ki != kj {
			return ki < kj
		}
		if sorted[i].Popularity != sorted[j].Popularity {
			return sorted[i].Popularity > sorted[j].Popularity
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted[0]
}

func dedupe(cands []media.Candidate) []media.Candidate {
	seen := make(map[int64]bool, len(cands))
	out := make([]media.Candidate, 0, len(cands))
	for _, c := range cands {
		if seen[c.ID] || strings.TrimSpace(c.Title) == "" {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}
