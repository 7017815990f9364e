package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trentmillar/plex-file-namer/internal/classify"
	"github.com/trentmillar/plex-file-namer/internal/media"
	"github.com/trentmillar/plex-file-namer/internal/pattern"
	"github.com/trentmillar/plex-file-namer/internal/renamer"
	"github.com/trentmillar/plex-file-namer/internal/resolve"
)

type searchCall struct {
	kind   media.Type
	query  string
	year   int
	filter bool
}

type fakeCatalog struct {
	titles   map[string][]media.Candidate
	episodes []media.EpisodeRef
	epTitles map[[2]int]string
	searches []searchCall
}

func (f *fakeCatalog) SearchTitles(_ context.Context, kind media.Type, query string, year int, filter bool) ([]media.Candidate, error) {
	f.searches = append(f.searches, searchCall{kind, query, year, filter})
	return f.titles[strings.ToLower(query)], nil
}

func (f *fakeCatalog) EpisodesByAirDate(context.Context, int64, time.Time) ([]media.EpisodeRef, error) {
	return f.episodes, nil
}

func (f *fakeCatalog) EpisodeTitle(_ context.Context, _ int64, season, episode int) (string, error) {
	if t, ok := f.epTitles[[2]int{season, episode}]; ok {
		return t, nil
	}
	return "", media.ErrCatalogMiss
}

type fakeProber struct {
	info media.ProbeInfo
	err  error
}

func (f fakeProber) Probe(context.Context, string) (media.ProbeInfo, error) {
	return f.info, f.err
}

func fixedBuilder() *renamer.Builder {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return &renamer.Builder{Now: func() time.Time { return now }, NewID: func() string { return "op-1" }}
}

func newEngine(cat *fakeCatalog, prober Prober, opts Options) *Engine {
	return New(cat, prober, opts, nil).WithBuilder(fixedBuilder())
}

func hasWarning(ws []error, target error) bool {
	for _, w := range ws {
		if errors.Is(w, target) {
			return true
		}
	}
	return false
}

func TestIdentifyAvatar(t *testing.T) {
	cat := &fakeCatalog{titles: map[string][]media.Candidate{
		"avatar": {
			{ID: 19995, Title: "Avatar", Year: 2009, Runtime: 162, Popularity: 80},
			{ID: 183392, Title: "Capturing Avatar", Year: 2010, Popularity: 2},
		},
	}}
	out, err := newEngine(cat, nil, Options{}).Identify(context.Background(), "/Movies/avatar_2009.mp4")
	require.NoError(t, err)

	assert.Equal(t, classify.Movie, out.Classification.Tag)
	assert.Equal(t, "movie-folder", out.Classification.Rule)
	assert.Equal(t, "Avatar", out.Record.Title)
	assert.Equal(t, 2009, out.Record.Year)
	assert.Equal(t, int64(19995), out.Record.CatalogID)
	assert.Equal(t, "Avatar (2009) {tmdb-19995}.mp4", out.Operation.NewName)
	assert.Equal(t, "/Movies/avatar_2009.mp4", out.Operation.OriginalPath)
	assert.Equal(t, "avatar_2009.mp4", out.Operation.Backup.OriginalName)
	assert.False(t, out.Record.Quality.Detected)

	require.Len(t, cat.searches, 1)
	assert.Equal(t, searchCall{media.TypeMovie, "Avatar", 2009, true}, cat.searches[0])
}

func TestIdentifySeasonFolderWithoutMarker(t *testing.T) {
	cat := &fakeCatalog{}
	out, err := newEngine(cat, nil, Options{}).Identify(context.Background(), "/TV Shows/Breaking Bad/S01/pilot.mkv")

	require.Error(t, err)
	assert.True(t, errors.Is(err, media.ErrCatalogMiss))
	assert.Equal(t, classify.Movie, out.Classification.Tag)
	assert.True(t, hasWarning(out.Warnings, media.ErrAmbiguousEpisodeFolder))
}

func TestIdentifyEpisode(t *testing.T) {
	cat := &fakeCatalog{
		titles:   map[string][]media.Candidate{"breaking bad": {{ID: 1396, Title: "Breaking Bad", Year: 2008, Runtime: 45}}},
		epTitles: map[[2]int]string{{1, 1}: "Pilot"},
	}
	prober := fakeProber{info: media.ProbeInfo{DurationMinutes: 58, Resolution: "1080p", VideoCodec: "H264"}}
	out, err := newEngine(cat, prober, Options{}).Identify(context.Background(), "/TV Shows/Breaking Bad/S01/Breaking.Bad.S01E01.WEB-DL.mkv")
	require.NoError(t, err)

	assert.Equal(t, classify.Episode, out.Classification.Tag)
	assert.Equal(t, "Breaking Bad (2008) {tmdb-1396} - s01e01 - Pilot [1080p WEB-DL H264].mkv", out.Operation.NewName)
	assert.True(t, out.Record.Quality.Detected)
	assert.Empty(t, out.Warnings)
}

func TestIdentifyEpisodeTitleMissIsAWarning(t *testing.T) {
	cat := &fakeCatalog{titles: map[string][]media.Candidate{"breaking bad": {{ID: 1396, Title: "Breaking Bad", Year: 2008}}}}
	out, err := newEngine(cat, nil, Options{}).Identify(context.Background(), "/tv/Breaking Bad/Season 2/2x05.mkv")
	require.NoError(t, err)
	assert.Equal(t, "Breaking Bad (2008) {tmdb-1396} - s02e05.mkv", out.Operation.NewName)
	assert.True(t, hasWarning(out.Warnings, media.ErrCatalogMiss))
}

func TestIdentifyDateEpisode(t *testing.T) {
	day := time.Date(2019, 2, 13, 0, 0, 0, 0, time.UTC)
	cat := &fakeCatalog{
		titles: map[string][]media.Candidate{"coronation street": {{ID: 2157, Title: "Coronation Street", Year: 1960}}},
		episodes: []media.EpisodeRef{
			{Season: 59, Episode: 31, Title: "Episode 9675 Part 1", AirDate: day},
			{Season: 59, Episode: 32, Title: "Episode 9676 Part 2", AirDate: day},
		},
	}
	opts := Options{Pattern: pattern.MustCompile("SHOW_NAME/{TITLE?}.DATE_FORMAT{DD-MM-YY}")}
	out, err := newEngine(cat, nil, opts).Identify(context.Background(), "/tv/Coronation Street/coronation.street.2019.02.13.part.2.mkv")
	require.NoError(t, err)

	assert.Equal(t, classify.DateEpisode, out.Classification.Tag)
	assert.Equal(t, 59, out.Record.Season)
	assert.Equal(t, 32, out.Record.Episode)
	assert.Equal(t, "Coronation Street (1960) {tmdb-2157} - 2019-02-13 - Episode 9676 Part 2 - pt2.mkv", out.Operation.NewName)

	require.NotEmpty(t, cat.searches)
	assert.False(t, cat.searches[0].filter)
	assert.Equal(t, media.TypeEpisode, cat.searches[0].kind)
}

func TestIdentifyDateEpisodeMiss(t *testing.T) {
	cat := &fakeCatalog{titles: map[string][]media.Candidate{"coronation street": {{ID: 2157, Title: "Coronation Street", Year: 1960}}}}
	opts := Options{Pattern: pattern.MustCompile("SHOW_NAME/{TITLE?}.DATE_FORMAT{DD-MM-YY}")}
	_, err := newEngine(cat, nil, opts).Identify(context.Background(), "/tv/Coronation Street/x.2019.02.13.mkv")
	assert.True(t, errors.Is(err, media.ErrCatalogMiss))
}

func TestIdentifyPatternMismatchFallsBack(t *testing.T) {
	cat := &fakeCatalog{titles: map[string][]media.Candidate{"avatar": {{ID: 19995, Title: "Avatar", Year: 2009}}}}
	opts := Options{Pattern: pattern.MustCompile("SHOW_NAME/{TITLE?}.DATE_FORMAT{DD-MM-YY}")}
	out, err := newEngine(cat, nil, opts).Identify(context.Background(), "/Movies/avatar_2009.mp4")
	require.NoError(t, err)
	assert.False(t, out.PatternMatched)
	assert.True(t, hasWarning(out.Warnings, media.ErrPatternMismatch))
	assert.Equal(t, "Avatar (2009) {tmdb-19995}.mp4", out.Operation.NewName)
}

func TestIdentifyUsesDurationAndProbedQuality(t *testing.T) {
	cat := &fakeCatalog{titles: map[string][]media.Candidate{"bloodsport": {
		{ID: 11690, Title: "Bloodsport III", Year: 1996, Runtime: 95, Popularity: 40},
		{ID: 10499, Title: "Bloodsport", Year: 1988, Runtime: 92, Popularity: 20},
	}}}
	prober := fakeProber{info: media.ProbeInfo{DurationMinutes: 90.4, Resolution: "720p", VideoCodec: "H264", AudioCodec: "AAC"}}
	out, err := newEngine(cat, prober, Options{}).Identify(context.Background(), "/Movies/Bloodsport.1988.1080p.BluRay.mkv")
	require.NoError(t, err)

	assert.Equal(t, resolve.StepExactDuration, out.Step)
	assert.Equal(t, "Bloodsport (1988) {tmdb-10499} [720p BluRay H264 AAC].mkv", out.Operation.NewName)
	require.Len(t, out.Notes, 1)
	assert.Contains(t, out.Notes[0], "720p")
}

func TestIdentifyProberFailureDegrades(t *testing.T) {
	cat := &fakeCatalog{titles: map[string][]media.Candidate{"heat": {{ID: 949, Title: "Heat", Year: 1995}}}}
	prober := fakeProber{err: errors.New("exit status 1")}
	out, err := newEngine(cat, prober, Options{}).Identify(context.Background(), "/Movies/Heat.1995.1080p.mkv")
	require.NoError(t, err)
	assert.True(t, hasWarning(out.Warnings, media.ErrProberUnavailable))
	assert.Equal(t, "Heat (1995) {tmdb-949} [1080p].mkv", out.Operation.NewName)
}

func TestIdentifyReleaseTagsStayOnMovies(t *testing.T) {
	cat := &fakeCatalog{titles: map[string][]media.Candidate{"inception": {{ID: 27205, Title: "Inception", Year: 2010}}}}
	out, err := newEngine(cat, nil, Options{}).Identify(context.Background(), "/data/Inception.2010.720p.BluRay.H.264-GRP.mkv")
	require.NoError(t, err)

	assert.Equal(t, classify.Movie, out.Classification.Tag)
	assert.Equal(t, "Inception (2010) {tmdb-27205} [720p BluRay H264].mkv", out.Operation.NewName)
}

func TestIdentifyKeepsEditionWordsInTitle(t *testing.T) {
	cat := &fakeCatalog{titles: map[string][]media.Candidate{"the final cut": {{ID: 2, Title: "The Final Cut", Year: 2004}}}}
	out, err := newEngine(cat, nil, Options{}).Identify(context.Background(), "/downloads/The.Final.Cut.2004.mkv")
	require.NoError(t, err)

	require.NotEmpty(t, cat.searches)
	assert.Equal(t, "The Final Cut", cat.searches[0].query)
	assert.Empty(t, out.Record.Edition)
	assert.Equal(t, "The Final Cut (2004) {tmdb-2}.mkv", out.Operation.NewName)
}

func TestIdentifySearchesBothNumeralSpellings(t *testing.T) {
	cat := &fakeCatalog{titles: map[string][]media.Candidate{"rocky 2": {{ID: 1367, Title: "Rocky II", Year: 1979}}}}
	out, err := newEngine(cat, nil, Options{}).Identify(context.Background(), "/Movies/Rocky.II.1979.mkv")
	require.NoError(t, err)

	var queries []string
	for _, s := range cat.searches {
		queries = append(queries, s.query)
	}
	assert.Equal(t, []string{"Rocky II", "Rocky 2"}, queries)
	assert.Equal(t, "Rocky II (1979) {tmdb-1367}.mkv", out.Operation.NewName)
}

func TestIdentifyExplicitShowName(t *testing.T) {
	cat := &fakeCatalog{
		titles:   map[string][]media.Candidate{"coronation street": {{ID: 2157, Title: "Coronation Street", Year: 1960}}},
		epTitles: map[[2]int]string{{59, 31}: "Episode 9675"},
	}
	out, err := newEngine(cat, nil, Options{ShowName: "Coronation Street Omnibus"}).
		Identify(context.Background(), "/downloads/corrie.s59e31.mkv")
	require.NoError(t, err)

	assert.Equal(t, classify.Episode, out.Classification.Tag)
	assert.Equal(t, "forced-episode", out.Classification.Rule)
	assert.Equal(t, "Coronation Street (1960) {tmdb-2157} - s59e31 - Episode 9675.mkv", out.Operation.NewName)

	require.Len(t, cat.searches, 2)
	assert.Equal(t, searchCall{media.TypeEpisode, "Coronation Street Omnibus", 0, false}, cat.searches[0])
	assert.Equal(t, "Coronation Street", cat.searches[1].query)
}

func TestIdentifyInvalidPath(t *testing.T) {
	_, err := newEngine(&fakeCatalog{}, nil, Options{}).Identify(context.Background(), "  ")
	assert.True(t, errors.Is(err, media.ErrInvalidInput))
}

func TestSimplified(t *testing.T) {
	assert.Equal(t, []string{"Coronation Street"}, Simplified("Coronation Street Omnibus"))
	assert.Equal(t, []string{"Top Gear Highlights", "Top Gear Special"}, Simplified("Top Gear Special Highlights"))
	assert.Nil(t, Simplified("Specialist"))
}
