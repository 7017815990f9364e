// Package pattern implements the placeholder language users write to describe
// how their library is laid out, for example
//
//	SHOW_NAME/{TITLE?}.DATE_FORMAT{DD-MM-YY}
//
// A pattern is compiled once and evaluated against many paths.
package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies what a pattern token binds.
type Kind int

const (
	Literal Kind = iota
	ShowName
	Title
	Ignore
	DateFormat
)

func (k Kind) String() string {
	switch k {
	case ShowName:
		return "SHOW_NAME"
	case Title:
		return "TITLE"
	case Ignore:
		return "IGNORE"
	case DateFormat:
		return "DATE_FORMAT"
	default:
		return "literal"
	}
}

// Token is one placeholder or literal inside a segment.
type Token struct {
	Kind Kind
	// Negative tokens match text and discard it (TITLE?, SHOW_NAME?).
	Negative bool
	// Format is the date template of a DateFormat token, e.g. "DD-MM-YY".
	Format string
	// Text is the literal text of a Literal token.
	Text string
}

// Segment is one path component of a pattern.
type Segment struct {
	Tokens []Token
}

func (s Segment) hasDate() bool {
	for _, t := range s.Tokens {
		if t.Kind == DateFormat {
			return true
		}
	}
	return false
}

// Pattern is a compiled placeholder pattern. It is safe for concurrent use.
type Pattern struct {
	Source   string
	Segments []Segment

	// regexes holds, per segment, one expression per date ordering to try.
	// Segments without a date token have exactly one.
	regexes [][]*regexp.Regexp
}

var errEmptyPattern = errors.New("pattern is empty")

// sepRun matches the separators that stand between words in a filename.
const sepRun = `[.\s_\-]+`

// Extensions dropped from the end of the last pattern segment.
var trailingExtensions = map[string]bool{
	"mp4": true, "mkv": true, "avi": true, "mov": true, "wmv": true, "flv": true,
	"webm": true, "m4v": true, "mpg": true, "mpeg": true, "ts": true, "m2ts": true,
	"ext": true,
}

// Compile parses a pattern string.
func Compile(src string) (*Pattern, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return nil, errEmptyPattern
	}

	var raw []string
	for _, part := range strings.Split(strings.ReplaceAll(trimmed, "\\", "/"), "/") {
		if strings.TrimSpace(part) != "" {
			raw = append(raw, part)
		}
	}
	if len(raw) == 0 {
		return nil, errEmptyPattern
	}

	p := &Pattern{Source: trimmed}
	var date *ordering
	for i, text := range raw {
		seg, err := parseSegment(text, i == len(raw)-1)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: segment %d: %w", trimmed, i+1, err)
		}
		for _, tok := range seg.Tokens {
			if tok.Kind != DateFormat {
				continue
			}
			if date != nil {
				return nil, fmt.Errorf("compile pattern %q: only one date token is allowed", trimmed)
			}
			o, err := parseTemplate(tok.Format)
			if err != nil {
				return nil, fmt.Errorf("compile pattern %q: %w", trimmed, err)
			}
			date = &o
		}
		p.Segments = append(p.Segments, seg)
	}

	orderings := []ordering{{}}
	if date != nil {
		orderings = priority(*date)
	}
	for i, seg := range p.Segments {
		candidates := orderings[:1]
		if seg.hasDate() {
			candidates = orderings
		}
		var res []*regexp.Regexp
		for _, o := range candidates {
			re, err := buildRegex(seg, o)
			if err != nil {
				return nil, fmt.Errorf("compile pattern %q: segment %d: %w", trimmed, i+1, err)
			}
			res = append(res, re)
		}
		p.regexes = append(p.regexes, res)
	}
	return p, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package-level patterns.
func MustCompile(src string) *Pattern {
	p, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Pattern) String() string {
	return p.Source
}

func parseSegment(text string, last bool) (Segment, error) {
	parts, err := splitTokens(text)
	if err != nil {
		return Segment{}, err
	}
	var seg Segment
	for _, part := range parts {
		tok, err := parseToken(part)
		if err != nil {
			return Segment{}, err
		}
		if tok.Kind == Literal && strings.IndexFunc(tok.Text, func(r rune) bool { return !isSeparator(r) }) < 0 {
			// bare separators such as " - " are covered by sepRun
			continue
		}
		seg.Tokens = append(seg.Tokens, tok)
	}
	if last && len(seg.Tokens) > 1 {
		tail := seg.Tokens[len(seg.Tokens)-1]
		if tail.Kind == Literal && trailingExtensions[strings.ToLower(tail.Text)] {
			seg.Tokens = seg.Tokens[:len(seg.Tokens)-1]
		}
	}
	if len(seg.Tokens) == 0 {
		return Segment{}, errors.New("segment has no tokens")
	}
	return seg, nil
}

// splitTokens splits a segment on '.' and spaces, keeping braced groups whole.
func splitTokens(text string) ([]string, error) {
	var (
		out   []string
		cur   strings.Builder
		depth int
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r == '{':
			depth++
			cur.WriteRune(r)
		case r == '}':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced '}' in %q", text)
			}
			cur.WriteRune(r)
		case (r == '.' || r == ' ') && depth == 0:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced '{' in %q", text)
	}
	flush()
	return out, nil
}

func parseToken(raw string) (Token, error) {
	inner := raw
	braced := strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}")
	if braced {
		inner = raw[1 : len(raw)-1]
	}

	switch inner {
	case "SHOW_NAME":
		return Token{Kind: ShowName}, nil
	case "SHOW_NAME?":
		return Token{Kind: ShowName, Negative: true}, nil
	case "TITLE":
		return Token{Kind: Title}, nil
	case "TITLE?":
		return Token{Kind: Title, Negative: true}, nil
	case "IGNORE":
		return Token{Kind: Ignore}, nil
	}

	if strings.HasPrefix(raw, "DATE_FORMAT{") && strings.HasSuffix(raw, "}") {
		return Token{Kind: DateFormat, Format: strings.ToUpper(raw[len("DATE_FORMAT{") : len(raw)-1])}, nil
	}
	if braced {
		if looksLikeDate(inner) {
			return Token{Kind: DateFormat, Format: strings.ToUpper(inner)}, nil
		}
		return Token{}, fmt.Errorf("unknown placeholder %q", raw)
	}
	if strings.ContainsAny(raw, "{}") {
		return Token{}, fmt.Errorf("malformed placeholder %q", raw)
	}
	return Token{Kind: Literal, Text: raw}, nil
}

func looksLikeDate(s string) bool {
	up := strings.ToUpper(s)
	return strings.Contains(up, "YY") && strings.Contains(up, "MM") && strings.Contains(up, "DD")
}

// buildRegex renders one segment as an anchored expression. Non-final title
// tokens bind lazily so the literal or date after them can claim its text;
// the final one binds greedily.
func buildRegex(seg Segment, o ordering) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`(?i)^`)
	for i, tok := range seg.Tokens {
		if i > 0 {
			b.WriteString(sepRun)
		}
		last := i == len(seg.Tokens)-1
		quant := `+?`
		if last {
			quant = `+`
		}
		switch tok.Kind {
		case Literal:
			b.WriteString(literalExpr(tok.Text))
		case ShowName, Title:
			if tok.Negative {
				b.WriteString(`.` + quant)
				continue
			}
			name := "title"
			if tok.Kind == ShowName {
				name = "show"
			}
			fmt.Fprintf(&b, `(?P<%s_%d>.%s)`, name, i, quant)
		case Ignore:
			b.WriteString(`.` + quant)
		case DateFormat:
			b.WriteString(`(?P<date>` + o.expr() + `)`)
			if last {
				b.WriteString(`(?:` + sepRun + `.*)?`)
			}
		}
	}
	b.WriteString(`$`)
	return regexp.Compile(b.String())
}

// literalExpr matches text case-insensitively with any run of separators
// between its words.
func literalExpr(text string) string {
	words := strings.FieldsFunc(text, isSeparator)
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	return strings.Join(quoted, sepRun)
}

func isSeparator(r rune) bool {
	return r == '.' || r == ' ' || r == '_' || r == '-'
}
