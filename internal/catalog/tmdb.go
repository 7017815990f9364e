package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trentmillar/plex-file-namer/internal/catalog/tmdb"
	"github.com/trentmillar/plex-file-namer/internal/media"
)

// DefaultDetailLimit is how many search results get a details lookup for
// their runtime.
const DefaultDetailLimit = 5

// recentSeasons are walked newest first before the older ones.
const recentSeasons = 10

// API is the part of the TMDB client the adapter needs.
type API interface {
	SearchMovie(ctx context.Context, query string, year int) (*tmdb.Response, error)
	SearchTV(ctx context.Context, query string, year int) (*tmdb.Response, error)
	MovieDetails(ctx context.Context, movieID int64) (*tmdb.MovieDetails, error)
	TVDetails(ctx context.Context, showID int64) (*tmdb.TVDetails, error)
	SeasonDetails(ctx context.Context, showID int64, season int) (*tmdb.SeasonDetails, error)
	EpisodeDetails(ctx context.Context, showID int64, season, episode int) (*tmdb.Episode, error)
}

var _ API = (*tmdb.Client)(nil)

// TMDB implements Catalog on top of the TMDB REST API.
type TMDB struct {
	api         API
	detailLimit int
	logger      *slog.Logger
}

var _ Catalog = (*TMDB)(nil)

// NewTMDB wraps api. A detailLimit of zero or less selects DefaultDetailLimit.
func NewTMDB(api API, detailLimit int, logger *slog.Logger) *TMDB {
	if detailLimit <= 0 {
		detailLimit = DefaultDetailLimit
	}
	return &TMDB{api: api, detailLimit: detailLimit, logger: orDiscard(logger)}
}

// SearchTitles searches movies or shows and fills runtime for the first
// results from their details.
func (t *TMDB) SearchTitles(ctx context.Context, kind media.Type, query string, year int, filterByYear bool) ([]media.Candidate, error) {
	searchYear := 0
	if filterByYear {
		searchYear = year
	}

	var (
		resp *tmdb.Response
		err  error
	)
	if kind == media.TypeEpisode {
		resp, err = t.api.SearchTV(ctx, query, searchYear)
	} else {
		resp, err = t.api.SearchMovie(ctx, query, searchYear)
	}
	if err != nil {
		return nil, fmt.Errorf("search %s %q: %w", kind, query, err)
	}

	out := make([]media.Candidate, 0, len(resp.Results))
	for i, r := range resp.Results {
		c := media.Candidate{
			ID:         r.ID,
			Title:      r.DisplayTitle(),
			Year:       r.Year(),
			Popularity: r.Popularity,
		}
		if i < t.detailLimit {
			t.fillDetails(ctx, kind, &c)
		}
		out = append(out, c)
	}
	t.logger.Debug("catalog search",
		"kind", kind.String(),
		"query", query,
		"year", searchYear,
		"results", len(out),
	)
	return out, nil
}

func (t *TMDB) fillDetails(ctx context.Context, kind media.Type, c *media.Candidate) {
	if kind == media.TypeEpisode {
		d, err := t.api.TVDetails(ctx, c.ID)
		if err != nil {
			t.logger.Debug("tv details unavailable", "id", c.ID, "error", err)
			return
		}
		c.Runtime = d.Runtime()
		if c.Year == 0 {
			c.Year = d.Year()
		}
		return
	}
	d, err := t.api.MovieDetails(ctx, c.ID)
	if err != nil {
		t.logger.Debug("movie details unavailable", "id", c.ID, "error", err)
		return
	}
	c.Runtime = d.Runtime
	if c.Year == 0 {
		c.Year = d.Year()
	}
}

// EpisodesByAirDate walks the show's seasons, newest ten first, and returns
// the episodes of the first season that aired anything on date or the day
// after.
func (t *TMDB) EpisodesByAirDate(ctx context.Context, showID int64, date time.Time) ([]media.EpisodeRef, error) {
	show, err := t.api.TVDetails(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("tv details %d: %w", showID, err)
	}

	day := date.Format(media.DateLayout)
	nextDay := date.AddDate(0, 0, 1).Format(media.DateLayout)

	for _, season := range SeasonOrder(show.NumberOfSeasons) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		details, err := t.api.SeasonDetails(ctx, showID, season)
		if err != nil {
			t.logger.Warn("season lookup failed", "show_id", showID, "season", season, "error", err)
			continue
		}
		var found []media.EpisodeRef
		for _, ep := range details.Episodes {
			if ep.AirDate != day && ep.AirDate != nextDay {
				continue
			}
			aired, _ := time.Parse(media.DateLayout, ep.AirDate)
			found = append(found, media.EpisodeRef{
				Season:  season,
				Episode: ep.EpisodeNumber,
				Title:   ep.Name,
				AirDate: aired,
			})
		}
		if len(found) > 0 {
			t.logger.Debug("air date found", "show_id", showID, "date", day, "season", season, "episodes", len(found))
			return found, nil
		}
	}
	return nil, nil
}

// SeasonOrder lists seasons 1..total with the newest ten first, newest to
// oldest, followed by the remaining seasons in ascending order.
func SeasonOrder(total int) []int {
	if total <= 0 {
		return nil
	}
	out := make([]int, 0, total)
	first := total - recentSeasons + 1
	if first < 1 {
		first = 1
	}
	for s := total; s >= first; s-- {
		out = append(out, s)
	}
	for s := 1; s < first; s++ {
		out = append(out, s)
	}
	return out
}

// EpisodeTitle returns the catalog title of one episode. An unknown episode
// is a catalog miss.
func (t *TMDB) EpisodeTitle(ctx context.Context, showID int64, season, episode int) (string, error) {
	ep, err := t.api.EpisodeDetails(ctx, showID, season, episode)
	if errors.Is(err, tmdb.ErrNotFound) {
		return "", fmt.Errorf("episode s%02de%02d of %d: %w", season, episode, showID, media.ErrCatalogMiss)
	}
	if err != nil {
		return "", fmt.Errorf("episode details: %w", err)
	}
	return ep.Name, nil
}
