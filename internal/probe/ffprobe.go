// Package probe measures video files with ffprobe.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/trentmillar/plex-file-namer/internal/media"
	"github.com/trentmillar/plex-file-namer/internal/quality"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename string `json:"filename"`
	Duration string `json:"duration"`
}

// Runner executes ffprobe and returns its stdout.
type Runner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// FFprobe is the prober collaborator.
type FFprobe struct {
	Binary  string
	Timeout time.Duration
	run     Runner
}

// New returns a prober using binary ("ffprobe" when empty). A zero timeout
// means no per-file limit beyond ctx.
func New(binary string, timeout time.Duration) *FFprobe {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFprobe{Binary: binary, Timeout: timeout, run: execRunner}
}

// WithRunner replaces the command runner, for tests.
func (f *FFprobe) WithRunner(r Runner) *FFprobe {
	f.run = r
	return f
}

func execRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(binary); err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, err
	}
	return out, nil
}

// Inspect runs ffprobe against path and decodes its JSON output.
func (f *FFprobe) Inspect(ctx context.Context, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, fmt.Errorf("ffprobe inspect: empty path: %w", media.ErrInvalidInput)
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	output, err := f.run(ctx, f.Binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe %s: %v: %w", path, err, media.ErrProberUnavailable)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %v: %w", err, media.ErrProberUnavailable)
	}
	return result, nil
}

// Probe measures duration, resolution and codecs. Any failure is reported as
// media.ErrProberUnavailable so callers degrade to filename claims.
func (f *FFprobe) Probe(ctx context.Context, path string) (media.ProbeInfo, error) {
	res, err := f.Inspect(ctx, path)
	if err != nil {
		return media.ProbeInfo{}, err
	}
	return res.Info(), nil
}

// Info reduces an inspection to what the renamer uses.
func (r Result) Info() media.ProbeInfo {
	var info media.ProbeInfo
	if secs, err := strconv.ParseFloat(strings.TrimSpace(r.Format.Duration), 64); err == nil && secs > 0 {
		info.DurationMinutes = secs / 60
	}
	for _, s := range r.Streams {
		switch strings.ToLower(s.CodecType) {
		case "video":
			if info.VideoCodec != "" || isAttachedPicture(s.CodecName) {
				continue
			}
			info.VideoCodec = quality.VideoCodecName(s.CodecName)
			info.Resolution = quality.ResolutionFor(s.Width, s.Height)
			if s.Width > 0 && s.Height > 0 {
				info.RawResolution = fmt.Sprintf("%dx%d", s.Width, s.Height)
			}
		case "audio":
			if info.AudioCodec == "" {
				info.AudioCodec = quality.AudioCodecName(s.CodecName)
			}
		}
	}
	return info
}

// cover art is reported as a video stream
func isAttachedPicture(codec string) bool {
	switch strings.ToLower(codec) {
	case "mjpeg", "png", "bmp":
		return true
	}
	return false
}
