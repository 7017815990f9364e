// Package catalog is the metadata collaborator the identification pipeline
// queries: a narrow interface, a TMDB-backed implementation and a caching
// decorator over the local SQLite store.
package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/trentmillar/plex-file-namer/internal/media"
)

// Catalog answers the three questions the pipeline asks of an external
// metadata source.
type Catalog interface {
	// SearchTitles returns candidates for query. Year narrows the search
	// only when filterByYear is set.
	SearchTitles(ctx context.Context, kind media.Type, query string, year int, filterByYear bool) ([]media.Candidate, error)
	// EpisodesByAirDate returns the episodes of showID airing on date, plus
	// next-day episodes that may belong to a multi-part broadcast.
	EpisodesByAirDate(ctx context.Context, showID int64, date time.Time) ([]media.EpisodeRef, error)
	// EpisodeTitle returns the title of one numbered episode.
	EpisodeTitle(ctx context.Context, showID int64, season, episode int) (string, error)
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
