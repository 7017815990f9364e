package pattern

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/trentmillar/plex-file-namer/internal/media"
)

// Bindings are the values a pattern extracted from one path.
type Bindings struct {
	ShowName string
	Title    string
	AirDate  time.Time
	HasDate  bool
	Part     int
}

// Evaluate matches the pattern against a tokenized path. When root is set the
// path below root must have exactly one component per pattern segment;
// otherwise the pattern is aligned against the last components of the path.
// Any failure wraps media.ErrPatternMismatch.
func (p *Pattern) Evaluate(in media.PathInput, root string) (Bindings, error) {
	comps, err := p.align(in, root)
	if err != nil {
		return Bindings{}, err
	}

	var out Bindings
	for i, comp := range comps {
		seg, ok := matchSegment(p.regexes[i], comp)
		if !ok {
			return Bindings{}, fmt.Errorf("segment %d %q does not match %q: %w",
				i+1, comp, p.Source, media.ErrPatternMismatch)
		}
		out.ShowName = joinBinding(out.ShowName, seg.ShowName)
		out.Title = joinBinding(out.Title, seg.Title)
		if seg.HasDate {
			out.AirDate, out.HasDate = seg.AirDate, true
		}
		if seg.Part > 0 {
			out.Part = seg.Part
		}
	}
	return out, nil
}

func (p *Pattern) align(in media.PathInput, root string) ([]string, error) {
	comps := in.Components()
	n := len(p.Segments)

	if strings.TrimSpace(root) == "" {
		if len(comps) < n {
			return nil, fmt.Errorf("path %q has %d components, pattern needs %d: %w",
				in.Path, len(comps), n, media.ErrPatternMismatch)
		}
		return comps[len(comps)-n:], nil
	}

	base := path.Clean(strings.ReplaceAll(strings.TrimSpace(root), "\\", "/"))
	dir := path.Dir(in.Path)
	if !strings.HasPrefix(dir+"/", strings.TrimSuffix(base, "/")+"/") {
		return nil, fmt.Errorf("path %q is not under root %q: %w", in.Path, root, media.ErrPatternMismatch)
	}
	rel := strings.TrimPrefix(strings.TrimPrefix(dir, base), "/")

	var relComps []string
	for _, part := range strings.Split(rel, "/") {
		if part != "" {
			relComps = append(relComps, part)
		}
	}
	relComps = append(relComps, in.Stem)
	if len(relComps) != n {
		return nil, fmt.Errorf("path %q has %d components below root, pattern has %d: %w",
			in.Path, len(relComps), n, media.ErrPatternMismatch)
	}
	return relComps, nil
}

// matchSegment tries each date ordering in priority order and keeps the first
// reading that is a real calendar date.
func matchSegment(res []*regexp.Regexp, comp string) (Bindings, bool) {
	for _, re := range res {
		m := re.FindStringSubmatchIndex(comp)
		if m == nil {
			continue
		}
		if b, ok := bind(re, comp, m); ok {
			return b, true
		}
	}
	return Bindings{}, false
}

func bind(re *regexp.Regexp, comp string, m []int) (Bindings, bool) {
	var (
		b       Bindings
		y, mo   string
		d       string
		dateEnd = -1
	)
	for i, name := range re.SubexpNames() {
		if name == "" || m[2*i] < 0 {
			continue
		}
		val := comp[m[2*i]:m[2*i+1]]
		switch {
		case strings.HasPrefix(name, "show_"):
			b.ShowName = joinBinding(b.ShowName, clean(val))
		case strings.HasPrefix(name, "title_"):
			b.Title = joinBinding(b.Title, clean(val))
		case name == "date":
			dateEnd = m[2*i+1]
		case name == "y":
			y = val
		case name == "m":
			mo = val
		case name == "d":
			d = val
		}
	}
	if dateEnd < 0 {
		return b, true
	}

	t, ok := makeDate(y, mo, d)
	if !ok {
		return Bindings{}, false
	}
	b.AirDate, b.HasDate = t, true
	if part, ok := media.ParsePart(comp[dateEnd:]); ok {
		b.Part = part
	}
	return b, true
}

// clean turns filename separators into spaces. Hyphens inside words are kept.
func clean(s string) string {
	var words []string
	for _, w := range strings.Fields(titleSeparators.Replace(s)) {
		if w = strings.Trim(w, "-"); w != "" {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

var titleSeparators = strings.NewReplacer(".", " ", "_", " ")

func joinBinding(have, add string) string {
	switch {
	case add == "":
		return have
	case have == "":
		return add
	default:
		return have + " " + add
	}
}
