package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trentmillar/plex-file-namer/internal/media"
)

const sample = `{
  "streams": [
    {"index": 0, "codec_name": "mjpeg", "codec_type": "video", "width": 600, "height": 900},
    {"index": 1, "codec_name": "hevc", "codec_type": "video", "width": 3840, "height": 1608},
    {"index": 2, "codec_name": "eac3", "codec_type": "audio"},
    {"index": 3, "codec_name": "aac", "codec_type": "audio"}
  ],
  "format": {"filename": "avatar.mkv", "duration": "9720.5"}
}`

func TestProbe(t *testing.T) {
	var gotArgs []string
	f := New("", time.Second).WithRunner(func(_ context.Context, binary string, args ...string) ([]byte, error) {
		assert.Equal(t, "ffprobe", binary)
		gotArgs = args
		return []byte(sample), nil
	})

	info, err := f.Probe(context.Background(), "/m/avatar.mkv")
	require.NoError(t, err)
	assert.Equal(t, "/m/avatar.mkv", gotArgs[len(gotArgs)-1])
	assert.Equal(t, "--", gotArgs[len(gotArgs)-2])
	assert.InDelta(t, 162.0083, info.DurationMinutes, 0.001)
	assert.Equal(t, "4K", info.Resolution)
	assert.Equal(t, "3840x1608", info.RawResolution)
	assert.Equal(t, "HEVC", info.VideoCodec)
	assert.Equal(t, "EAC3", info.AudioCodec)
}

func TestProbeUnavailable(t *testing.T) {
	f := New("ffprobe", 0).WithRunner(func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("executable file not found in $PATH")
	})
	_, err := f.Probe(context.Background(), "/m/a.mkv")
	assert.True(t, errors.Is(err, media.ErrProberUnavailable))

	f = New("ffprobe", 0).WithRunner(func(context.Context, string, ...string) ([]byte, error) {
		return []byte("not json"), nil
	})
	_, err = f.Probe(context.Background(), "/m/a.mkv")
	assert.True(t, errors.Is(err, media.ErrProberUnavailable))
}

func TestMissingBinary(t *testing.T) {
	f := New("definitely-not-ffprobe-binary", 0)
	_, err := f.Probe(context.Background(), "/m/a.mkv")
	assert.True(t, errors.Is(err, media.ErrProberUnavailable))
}

func TestInfoWithoutStreams(t *testing.T) {
	info := Result{Format: Format{Duration: "N/A"}}.Info()
	assert.Equal(t, media.ProbeInfo{}, info)
}
