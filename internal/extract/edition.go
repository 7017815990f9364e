package extract

import "regexp"

type edition struct {
	re   *regexp.Regexp
	name string
}

func editionRe(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + pattern + `\b`)
}

// editions is the closed set Plex editions are drawn from. "Special Edition"
// sits ahead of "Special" so the longer phrase wins.
var editions = []edition{
	{editionRe(`director'?s?[._\s-]*cut`), "Director's Cut"},
	{editionRe(`theatrical(?:[._\s-]*(?:cut|version|release))?`), "Theatrical"},
	{editionRe(`extended(?:[._\s-]*(?:cut|version|edition))?`), "Extended"},
	{editionRe(`unrated(?:[._\s-]*(?:cut|version|edition))?`), "Unrated"},
	{editionRe(`criterion(?:[._\s-]*collection)?`), "Criterion"},
	{editionRe(`special[._\s-]+edition`), "Special Edition"},
	{editionRe(`collector'?s?[._\s-]*edition`), "Collector's Edition"},
	{editionRe(`final[._\s-]*cut`), "Final Cut"},
	{editionRe(`remastered`), "Remastered"},
	{editionRe(`omnibus`), "Omnibus"},
	{editionRe(`special`), "Special"},
	{editionRe(`extra`), "Extra"},
	{editionRe(`highlights`), "Highlights"},
	{editionRe(`compilation`), "Compilation"},
}

// Edition returns the first edition named in s, or "".
func Edition(s string) string {
	for _, e := range editions {
		if e.re.MatchString(s) {
			return e.name
		}
	}
	return ""
}

// editionIndex returns the offset of the earliest edition phrase in s, or -1.
func editionIndex(s string) int {
	best := -1
	for _, e := range editions {
		if loc := e.re.FindStringIndex(s); loc != nil && (best < 0 || loc[0] < best) {
			best = loc[0]
		}
	}
	return best
}

func stripEditions(s string) string {
	for _, e := range editions {
		s = e.re.ReplaceAllString(s, " ")
	}
	return s
}
