// Package quality reconciles what a filename claims about a release with what
// the prober measured from the file.
package quality

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/trentmillar/plex-file-namer/internal/media"
)

// Claims are the descriptors found in a filename.
type Claims struct {
	Resolution string
	Source     string
	VideoCodec string
	AudioCodec string
	Special    []string
}

type vocab struct {
	re        *regexp.Regexp
	canonical string
}

func word(pattern, canonical string) vocab {
	return vocab{re: regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(?:` + pattern + `)(?:$|[^a-z0-9])`), canonical: canonical}
}

// Ordered most specific first; the first hit in each table wins.
var (
	resolutions = []vocab{
		word(`2160p|4k|uhd`, "4K"),
		word(`1440p`, "1440p"),
		word(`1080[pi]`, "1080p"),
		word(`720p`, "720p"),
		word(`480p|576p`, "480p"),
	}
	sources = []vocab{
		word(`blu-?ray|bdrip|brrip|bdremux`, "BluRay"),
		word(`web-?dl`, "WEB-DL"),
		word(`webrip`, "WEBRip"),
		word(`hdtv|pdtv|sdtv`, "HDTV"),
	}
	videoCodecs = []vocab{
		word(`x265|h\.?265|hevc`, "HEVC"),
		word(`x264|h\.?264|avc`, "H264"),
		word(`xvid|divx|mpeg-?4`, "MPEG4"),
		word(`vp9`, "VP9"),
		word(`av1`, "AV1"),
	}
	audioCodecs = []vocab{
		word(`truehd`, "TrueHD"),
		word(`e-?ac-?3|ddp(?:\d[ .]?\d)?|dd\+`, "EAC3"),
		word(`ac-?3|dd(?:\d[ .]?\d)?`, "AC3"),
		word(`dts(?:-?hd)?(?:-?ma)?`, "DTS"),
		word(`aac(?:\d[ .]?\d)?`, "AAC"),
		word(`flac`, "FLAC"),
		word(`mp3`, "MP3"),
		word(`opus`, "OPUS"),
	}
	specials = []vocab{
		word(`proper`, "PROPER"),
		word(`repack`, "REPACK"),
		word(`extended`, "EXTENDED"),
		word(`unrated`, "UNRATED"),
		word(`remastered`, "REMASTERED"),
	}
)

func first(table []vocab, s string) string {
	for _, v := range table {
		if v.re.MatchString(s) {
			return v.canonical
		}
	}
	return ""
}

// FromFilename scans a filename stem for quality claims.
func FromFilename(stem string) Claims {
	c := Claims{
		Resolution: first(resolutions, stem),
		Source:     first(sources, stem),
		VideoCodec: first(videoCodecs, stem),
		AudioCodec: first(audioCodecs, stem),
	}
	for _, v := range specials {
		if v.re.MatchString(stem) {
			c.Special = append(c.Special, v.canonical)
		}
	}
	return c
}

// Strip removes every recognized quality word from s, leaving the separators.
// The extractor uses it to clean titles.
func Strip(s string) string {
	for _, table := range [][]vocab{resolutions, sources, videoCodecs, audioCodecs, specials} {
		for _, v := range table {
			s = v.re.ReplaceAllStringFunc(s, keepEdges)
		}
	}
	return s
}

// FirstIndex returns the offset of the earliest quality word in s, or -1.
func FirstIndex(s string) int {
	best := -1
	for _, table := range [][]vocab{resolutions, sources, videoCodecs, audioCodecs, specials} {
		for _, v := range table {
			if loc := v.re.FindStringIndex(s); loc != nil && (best < 0 || loc[0] < best) {
				best = loc[0]
			}
		}
	}
	return best
}

// keepEdges replaces a match with a space, which keeps the surrounding
// separator characters consumed by the boundary groups from gluing words together.
func keepEdges(string) string { return " " }

// Merge combines filename claims with prober measurements. The prober always
// wins for resolution and codecs; source and special tags can only come from
// the filename. A nil probe means the prober was unavailable. The returned notes
// describe claimed values the prober contradicted.
func Merge(claims Claims, probe *media.ProbeInfo) (media.Quality, []string) {
	q := media.Quality{
		Resolution: claims.Resolution,
		Source:     claims.Source,
		VideoCodec: claims.VideoCodec,
		AudioCodec: claims.AudioCodec,
		Special:    append([]string(nil), claims.Special...),
	}
	if probe == nil {
		return q, nil
	}

	var notes []string
	q.Detected = true
	if probe.Resolution != "" {
		if claims.Resolution != "" && claims.Resolution != probe.Resolution {
			notes = append(notes, fmt.Sprintf("file is actually %s, not %s as the filename suggests", probe.Resolution, claims.Resolution))
		}
		q.Resolution = probe.Resolution
	}
	if probe.VideoCodec != "" {
		q.VideoCodec = probe.VideoCodec
	}
	if probe.AudioCodec != "" {
		q.AudioCodec = probe.AudioCodec
	}
	return q, notes
}

// ResolutionFor maps frame dimensions to a resolution label. Width is checked
// alongside height so cinematic crops such as 1920x800 still count as 1080p.
func ResolutionFor(width, height int) string {
	switch {
	case width <= 0 && height <= 0:
		return ""
	case height >= 2160 || width >= 3840:
		return "4K"
	case height >= 1440 || width >= 2560:
		return "1440p"
	case height >= 1080 || width >= 1920:
		return "1080p"
	case height >= 720 || width >= 1280:
		return "720p"
	case height >= 480 || width >= 854:
		return "480p"
	default:
		return fmt.Sprintf("%dp", height)
	}
}

var (
	videoCodecNames = map[string]string{
		"h264":  "H264",
		"avc":   "H264",
		"h265":  "HEVC",
		"hevc":  "HEVC",
		"mpeg4": "MPEG4",
		"vp9":   "VP9",
		"vp8":   "VP8",
		"av1":   "AV1",
	}
	audioCodecNames = map[string]string{
		"aac":    "AAC",
		"ac3":    "AC3",
		"eac3":   "EAC3",
		"dts":    "DTS",
		"dca":    "DTS",
		"mp3":    "MP3",
		"vorbis": "OGG",
		"opus":   "OPUS",
		"flac":   "FLAC",
		"truehd": "TrueHD",
	}
)

// VideoCodecName maps an ffprobe codec_name to its display form.
func VideoCodecName(codec string) string {
	return codecName(videoCodecNames, codec)
}

// AudioCodecName maps an ffprobe codec_name to its display form.
func AudioCodecName(codec string) string {
	return codecName(audioCodecNames, codec)
}

func codecName(table map[string]string, codec string) string {
	codec = strings.ToLower(strings.TrimSpace(codec))
	if codec == "" {
		return ""
	}
	if name, ok := table[codec]; ok {
		return name
	}
	return strings.ToUpper(codec)
}
