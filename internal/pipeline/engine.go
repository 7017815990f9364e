// Package pipeline identifies one file end to end: it runs the pure stages in
// order and consults the catalog and prober collaborators in between.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/trentmillar/plex-file-namer/internal/catalog"
	"github.com/trentmillar/plex-file-namer/internal/classify"
	"github.com/trentmillar/plex-file-namer/internal/extract"
	"github.com/trentmillar/plex-file-namer/internal/media"
	"github.com/trentmillar/plex-file-namer/internal/numeral"
	"github.com/trentmillar/plex-file-namer/internal/pattern"
	"github.com/trentmillar/plex-file-namer/internal/quality"
	"github.com/trentmillar/plex-file-namer/internal/renamer"
	"github.com/trentmillar/plex-file-namer/internal/resolve"
)

// Prober measures a file. Errors wrapping media.ErrProberUnavailable degrade
// quality to filename claims.
type Prober interface {
	Probe(ctx context.Context, path string) (media.ProbeInfo, error)
}

// Options are the run-wide identification settings.
type Options struct {
	// Force overrides automatic movie/episode detection.
	Force           media.Type
	ParenthesesOnly bool
	// Pattern, when set, is tried before the heuristics.
	Pattern *pattern.Pattern
	// RootFolder anchors Pattern; empty right-aligns it.
	RootFolder string
	// ShowName names the show explicitly and implies TV.
	ShowName string
}

// Outcome is everything learned about one file. It is filled as far as the
// pipeline got, so a failed identification still reports its warnings.
type Outcome struct {
	Input          media.PathInput
	Classification classify.Result
	Bindings       pattern.Bindings
	PatternMatched bool
	Probe          *media.ProbeInfo
	Record         media.Record
	Step           resolve.Step
	Operation      media.RenameOperation
	Warnings       []error
	// Notes are informational, such as a filename claiming the wrong resolution.
	Notes []string
}

// Engine runs identification for single files.
type Engine struct {
	catalog catalog.Catalog
	prober  Prober
	builder *renamer.Builder
	opts    Options
	logger  *slog.Logger
}

// New builds an engine. prober may be nil.
func New(cat catalog.Catalog, prober Prober, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		catalog: cat,
		prober:  prober,
		builder: renamer.NewBuilder(),
		opts:    opts,
		logger:  logger,
	}
}

// WithBuilder replaces the filename builder, for fixed clocks and IDs.
func (e *Engine) WithBuilder(b *renamer.Builder) *Engine {
	e.builder = b
	return e
}

// Identify tokenizes, classifies, extracts, resolves and names path.
func (e *Engine) Identify(ctx context.Context, path string) (Outcome, error) {
	var out Outcome
	in, err := media.Tokenize(path)
	if err != nil {
		return out, err
	}
	out.Input = in
	logger := e.logger.With("file", in.Filename())

	if e.opts.Pattern != nil {
		b, err := e.opts.Pattern.Evaluate(in, e.opts.RootFolder)
		switch {
		case errors.Is(err, media.ErrPatternMismatch):
			logger.Debug("pattern did not match, using filename heuristics", "pattern", e.opts.Pattern.String(), "error", err)
			out.Warnings = append(out.Warnings, err)
		case err != nil:
			return out, err
		default:
			out.Bindings, out.PatternMatched = b, true
		}
	}

	force := e.opts.Force
	if strings.TrimSpace(e.opts.ShowName) != "" {
		force = media.TypeEpisode
	}
	out.Classification = classify.Classify(in, classify.Options{
		Force:     force,
		DateBound: out.Bindings.HasDate,
		Date:      out.Bindings.AirDate,
	})
	out.Warnings = append(out.Warnings, out.Classification.Warnings...)
	logger.Debug("classified",
		"tag", out.Classification.Tag.String(),
		"rule", out.Classification.Rule,
		"marker", out.Classification.Evidence.Marker,
	)

	out.Probe = e.probe(ctx, in.Path, &out)

	rec := e.extract(in, out)
	if strings.TrimSpace(rec.Title) == "" {
		return out, fmt.Errorf("no title found in %q: %w", in.Filename(), media.ErrInvalidInput)
	}
	out.Record = rec

	switch out.Classification.Tag {
	case classify.DateEpisode:
		err = e.resolveDated(ctx, &out)
	case classify.Episode:
		err = e.resolveEpisode(ctx, &out)
	default:
		err = e.resolveMovie(ctx, &out)
	}
	if err != nil {
		return out, err
	}

	q, notes := quality.Merge(quality.FromFilename(in.Stem), out.Probe)
	out.Record.Quality = q
	for _, n := range notes {
		logger.Info("resolution mismatch", "note", n)
	}
	out.Notes = append(out.Notes, notes...)

	op, err := e.builder.Build(in, out.Record)
	if err != nil {
		return out, err
	}
	out.Operation = op
	return out, nil
}

func (e *Engine) probe(ctx context.Context, path string, out *Outcome) *media.ProbeInfo {
	if e.prober == nil {
		return nil
	}
	info, err := e.prober.Probe(ctx, path)
	if err != nil {
		if !errors.Is(err, media.ErrProberUnavailable) {
			err = fmt.Errorf("%v: %w", err, media.ErrProberUnavailable)
		}
		e.logger.Debug("prober unavailable", "path", path, "error", err)
		out.Warnings = append(out.Warnings, err)
		return nil
	}
	return &info
}

func (e *Engine) extract(in media.PathInput, out Outcome) media.Record {
	b := out.Bindings
	switch out.Classification.Tag {
	case classify.DateEpisode:
		return extract.DateEpisode(in, b, e.opts.ShowName)
	case classify.Episode:
		rec := extract.Episode(in, out.Classification, e.opts.ParenthesesOnly)
		switch {
		case strings.TrimSpace(e.opts.ShowName) != "":
			rec.Title, rec.Year = strings.Join(strings.Fields(e.opts.ShowName), " "), 0
		case out.PatternMatched && b.ShowName != "":
			rec.Title, rec.Year = extract.TitleYear(b.ShowName, e.opts.ParenthesesOnly)
		}
		return rec
	default:
		rec := extract.Movie(in.Stem, e.opts.ParenthesesOnly)
		if out.PatternMatched && b.Title != "" {
			if title, year := extract.TitleYear(b.Title, e.opts.ParenthesesOnly); title != "" {
				rec.Title = title
				if year > 0 {
					rec.Year = year
				}
			}
		}
		return rec
	}
}

func (e *Engine) resolveMovie(ctx context.Context, out *Outcome) error {
	rec := &out.Record
	cands, err := e.search(ctx, media.TypeMovie, rec.Title, rec.Year, rec.Year > 0)
	if err != nil {
		return err
	}
	pick, step, err := resolve.PickWithStep(e.query(out), cands)
	if err != nil {
		return fmt.Errorf("movie %q: %w", rec.Title, err)
	}
	out.Step = step
	adopt(rec, pick)
	e.logger.Debug("movie resolved", "title", rec.Title, "year", rec.Year, "id", rec.CatalogID, "step", string(step))
	return nil
}

func (e *Engine) resolveEpisode(ctx context.Context, out *Outcome) error {
	rec := &out.Record
	show, err := e.findShow(ctx, out, rec.Year > 0)
	if err != nil {
		return err
	}
	adopt(rec, show)

	title, err := e.catalog.EpisodeTitle(ctx, rec.CatalogID, rec.Season, rec.Episode)
	if err != nil {
		// a missing episode title only shortens the name
		out.Warnings = append(out.Warnings, fmt.Errorf("episode title: %w", err))
		return nil
	}
	rec.EpisodeTitle = title
	return nil
}

func (e *Engine) resolveDated(ctx context.Context, out *Outcome) error {
	rec := &out.Record
	// long-running shows started decades before the broadcast year
	show, err := e.findShow(ctx, out, false)
	if err != nil {
		return err
	}
	adopt(rec, show)

	eps, err := e.catalog.EpisodesByAirDate(ctx, rec.CatalogID, rec.AirDate)
	if err != nil {
		return fmt.Errorf("episodes of %q on %s: %w", rec.Title, rec.AirDate.Format(media.DateLayout), err)
	}
	ep, err := resolve.PickEpisode(eps, rec.AirDate, rec.Part)
	if err != nil {
		return fmt.Errorf("%q: %w", rec.Title, err)
	}
	rec.Season, rec.Episode, rec.EpisodeTitle = ep.Season, ep.Episode, ep.Title
	return nil
}

func (e *Engine) findShow(ctx context.Context, out *Outcome, filterByYear bool) (media.Candidate, error) {
	rec := &out.Record
	cands, err := e.search(ctx, media.TypeEpisode, rec.Title, rec.Year, filterByYear)
	if err != nil {
		return media.Candidate{}, err
	}
	q := e.query(out)
	if len(cands) == 0 {
		for _, simple := range Simplified(rec.Title) {
			cands, err = e.search(ctx, media.TypeEpisode, simple, rec.Year, filterByYear)
			if err != nil {
				return media.Candidate{}, err
			}
			if len(cands) > 0 {
				e.logger.Debug("simplified show search matched", "title", rec.Title, "query", simple)
				q.Title = simple
				break
			}
		}
	}
	pick, step, err := resolve.PickWithStep(q, cands)
	if err != nil {
		return media.Candidate{}, fmt.Errorf("show %q: %w", rec.Title, err)
	}
	out.Step = step
	return pick, nil
}

func (e *Engine) query(out *Outcome) resolve.Query {
	q := resolve.Query{Title: out.Record.Title, Year: out.Record.Year}
	if out.Probe != nil {
		q.DurationMinutes = out.Probe.DurationMinutes
	}
	return q
}

// search queries the catalog with the title and, for sequel numbers, its
// other numeral spelling. A query that fails is logged and skipped; the
// error is returned only when every query failed.
func (e *Engine) search(ctx context.Context, kind media.Type, title string, year int, filterByYear bool) ([]media.Candidate, error) {
	queries := []string{title}
	if alt, ok := numeral.Alternate(title); ok {
		queries = append(queries, alt)
	}

	var (
		all     []media.Candidate
		lastErr error
		failed  int
	)
	for _, q := range queries {
		cands, err := e.catalog.SearchTitles(ctx, kind, q, year, filterByYear)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Warn("catalog search failed", "query", q, "error", err)
			lastErr, failed = err, failed+1
			continue
		}
		all = append(all, cands...)
	}
	if failed == len(queries) {
		return nil, lastErr
	}
	return all, nil
}

func adopt(rec *media.Record, c media.Candidate) {
	rec.CatalogID = c.ID
	if c.Title != "" {
		rec.Title = c.Title
	}
	if c.Year > 0 {
		rec.Year = c.Year
	}
}

var subtitleWords = func() []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, w := range []string{"omnibus", "special", "extra", "highlights", "compilation"} {
		out = append(out, regexp.MustCompile(`(?i)\b`+w+`\b`))
	}
	return out
}()

// Simplified returns show-title variants with one subtitle word removed each,
// for catalogs that list the show without it.
func Simplified(title string) []string {
	var out []string
	for _, re := range subtitleWords {
		if !re.MatchString(title) {
			continue
		}
		simple := strings.Join(strings.Fields(re.ReplaceAllString(title, " ")), " ")
		if simple != "" && !strings.EqualFold(simple, title) {
			out = append(out, simple)
		}
	}
	return out
}
