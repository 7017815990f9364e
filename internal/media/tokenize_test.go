package media

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		segments []string
		stem     string
		ext      string
	}{
		{"movie", "/Movies/avatar_2009.mp4", []string{"Movies"}, "avatar_2009", ".mp4"},
		{"episode", "/TV Shows/Breaking Bad/S01/pilot.mkv", []string{"TV Shows", "Breaking Bad", "S01"}, "pilot", ".mkv"},
		{"dotted stem", "shows/coronation.street.2019.02.13.part.2.mkv", []string{"shows"}, "coronation.street.2019.02.13.part.2", ".mkv"},
		{"windows", `F:\Media\Movies\Heat (1995).mkv`, []string{"F:", "Media", "Movies"}, "Heat (1995)", ".mkv"},
		{"no extension", "/a/b/README", []string{"a", "b"}, "README", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.segments, got.Segments)
			assert.Equal(t, tt.stem, got.Stem)
			assert.Equal(t, tt.ext, got.Ext)
		})
	}
}

func TestTokenizeRejectsEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "/"} {
		_, err := Tokenize(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrInvalidInput), in)
	}
}

func TestPathInputHelpers(t *testing.T) {
	in, err := Tokenize("/TV/Show/Season 2/e01.mkv")
	require.NoError(t, err)
	assert.Equal(t, "Season 2", in.Parent())
	assert.Equal(t, "Show", in.Grandparent())
	assert.Equal(t, "e01.mkv", in.Filename())
	assert.Equal(t, []string{"TV", "Show", "Season 2", "e01"}, in.Components())
}

func TestQualityTokensOrder(t *testing.T) {
	q := Quality{AudioCodec: "AAC", Resolution: "1080p", VideoCodec: "H264", Special: []string{"PROPER"}}
	assert.Equal(t, []string{"1080p", "H264", "AAC", "PROPER"}, q.Tokens())
}

func TestParseType(t *testing.T) {
	got, ok := ParseType("TV")
	assert.True(t, ok)
	assert.Equal(t, TypeEpisode, got)

	got, ok = ParseType("auto")
	assert.True(t, ok)
	assert.Equal(t, TypeUnknown, got)

	_, ok = ParseType("music")
	assert.False(t, ok)
}
