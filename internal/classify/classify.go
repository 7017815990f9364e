// Package classify decides whether a path is a movie, a numbered episode or
// an episode identified by its air date.
package classify

import (
	"fmt"
	"strings"
	"time"

	"github.com/trentmillar/plex-file-namer/internal/media"
)

// Tag is the classification outcome.
type Tag int

const (
	Movie Tag = iota
	Episode
	DateEpisode
)

func (t Tag) String() string {
	switch t {
	case Episode:
		return "episode"
	case DateEpisode:
		return "date-episode"
	default:
		return "movie"
	}
}

// Type returns the media type a tag produces.
func (t Tag) Type() media.Type {
	if t == Movie {
		return media.TypeMovie
	}
	return media.TypeEpisode
}

// Options steer classification.
type Options struct {
	// Force is the user's type override; TypeUnknown means auto.
	Force media.Type
	// DateBound is set when the pattern bound an air date, which is
	// carried in Date.
	DateBound bool
	Date      time.Time
}

// Evidence is what the rules looked at.
type Evidence struct {
	Marker       string // marker form, "" when the stem has none
	Season       int
	Episode      int
	FolderSeason int // season number from a season folder, 0 when none
	RawDate      string

	marker   Marker
	hasMark  bool
	inSeason bool
}

// MarkerDetail returns the full marker, if one was found.
func (e Evidence) MarkerDetail() (Marker, bool) {
	return e.marker, e.hasMark
}

// Result is a classification. It is not modified after Classify returns.
type Result struct {
	Tag      Tag
	Rule     string
	Evidence Evidence
	Warnings []error
}

// Rule is one step of the ordered rule list. Apply returns false when the rule
// does not decide the path and the next one should run.
type Rule struct {
	Name  string
	Apply func(in media.PathInput, opts Options, ev Evidence) (Result, bool)
}

var movieFolders = map[string]bool{"movies": true, "movie": true, "films": true, "film": true}

var rules = []Rule{
	{Name: "date-binding", Apply: func(_ media.PathInput, opts Options, ev Evidence) (Result, bool) {
		if !opts.DateBound {
			return Result{}, false
		}
		return Result{Tag: DateEpisode, Evidence: ev}, true
	}},
	{Name: "forced-episode", Apply: func(_ media.PathInput, opts Options, ev Evidence) (Result, bool) {
		if opts.Force != media.TypeEpisode {
			return Result{}, false
		}
		return Result{Tag: Episode, Evidence: ev}, true
	}},
	{Name: "movie-folder", Apply: func(in media.PathInput, _ Options, ev Evidence) (Result, bool) {
		for _, seg := range in.Segments {
			if movieFolders[strings.ToLower(strings.TrimSpace(seg))] {
				return Result{Tag: Movie, Evidence: ev}, true
			}
		}
		return Result{}, false
	}},
	{Name: "episode-marker", Apply: func(_ media.PathInput, opts Options, ev Evidence) (Result, bool) {
		if !ev.hasMark {
			return Result{}, false
		}
		res := Result{Tag: Episode, Evidence: ev}
		if opts.Force == media.TypeMovie {
			res.Warnings = append(res.Warnings,
				fmt.Errorf("type forced to movie but the filename carries an episode marker (%s); treating it as an episode", ev.Marker))
		}
		return res, true
	}},
	{Name: "forced-movie", Apply: func(_ media.PathInput, opts Options, ev Evidence) (Result, bool) {
		if opts.Force != media.TypeMovie {
			return Result{}, false
		}
		return Result{Tag: Movie, Evidence: ev}, true
	}},
	{Name: "season-folder", Apply: func(in media.PathInput, _ Options, ev Evidence) (Result, bool) {
		if !ev.inSeason {
			return Result{}, false
		}
		return Result{
			Tag:      Movie,
			Evidence: ev,
			Warnings: []error{fmt.Errorf("%q sits in season folder %q without an episode marker: %w",
				in.Filename(), in.Parent(), media.ErrAmbiguousEpisodeFolder)},
		}, true
	}},
	{Name: "default", Apply: func(_ media.PathInput, _ Options, ev Evidence) (Result, bool) {
		return Result{Tag: Movie, Evidence: ev}, true
	}},
}

// Rules returns the ordered rule list Classify evaluates.
func Rules() []Rule {
	return append([]Rule(nil), rules...)
}

// Gather collects the evidence the rules consult.
func Gather(in media.PathInput, opts Options) Evidence {
	var ev Evidence
	if m, ok := ParseMarker(in.Stem); ok {
		ev.marker, ev.hasMark = m, true
		ev.Marker, ev.Season, ev.Episode = m.Form, m.Season, m.Episode
	}
	if n, ok := SeasonFolder(in.Parent()); ok {
		ev.FolderSeason, ev.inSeason = n, true
	}
	if opts.DateBound && !opts.Date.IsZero() {
		ev.RawDate = opts.Date.Format(media.DateLayout)
	}
	return ev
}

// Classify runs the rules top to bottom and returns the first decision.
func Classify(in media.PathInput, opts Options) Result {
	ev := Gather(in, opts)
	for _, r := range rules {
		if res, ok := r.Apply(in, opts, ev); ok {
			res.Rule = r.Name
			return res
		}
	}
	// unreachable: the default rule always decides
	return Result{Tag: Movie, Rule: "default", Evidence: ev}
}
