package pattern

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ordering is one way of reading the three numbers of a date.
type ordering struct {
	fields     []byte // 'Y', 'M', 'D' in the order they appear
	yearDigits int
}

func (o ordering) String() string {
	var parts []string
	for _, f := range o.fields {
		switch f {
		case 'Y':
			parts = append(parts, strings.Repeat("Y", o.yearDigits))
		case 'M':
			parts = append(parts, "MM")
		case 'D':
			parts = append(parts, "DD")
		}
	}
	return strings.Join(parts, "-")
}

var (
	isoOrdering = ordering{fields: []byte("YMD"), yearDigits: 4}

	fallbackOrderings = []ordering{
		{fields: []byte("DMY"), yearDigits: 4},
		{fields: []byte("DMY"), yearDigits: 2},
		{fields: []byte("MDY"), yearDigits: 2},
	}
)

// parseTemplate reads a template such as "DD-MM-YY" or "YYYY.MM.DD".
func parseTemplate(tmpl string) (ordering, error) {
	up := strings.ToUpper(strings.TrimSpace(tmpl))

	type at struct {
		field byte
		pos   int
	}
	var found []at
	yearDigits := 4
	pos := strings.Index(up, "YYYY")
	if pos < 0 {
		yearDigits = 2
		pos = strings.Index(up, "YY")
	}
	if pos < 0 {
		return ordering{}, fmt.Errorf("date template %q has no year", tmpl)
	}
	found = append(found, at{'Y', pos})
	for _, f := range []struct {
		field byte
		text  string
	}{{'M', "MM"}, {'D', "DD"}} {
		p := strings.Index(up, f.text)
		if p < 0 {
			return ordering{}, fmt.Errorf("date template %q has no %s", tmpl, f.text)
		}
		found = append(found, at{f.field, p})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].pos < found[j].pos })

	o := ordering{yearDigits: yearDigits}
	for _, f := range found {
		o.fields = append(o.fields, f.field)
	}
	return o, nil
}

// priority lists the orderings to try for a declared template. A 4-digit
// template goes first. A 2-digit one yields to a full ISO reading, so a
// component such as 2019.02.13 is not misread as 20-19-02.
func priority(declared ordering) []ordering {
	var out []ordering
	if declared.yearDigits == 4 {
		out = append(out, declared, isoOrdering)
	} else {
		out = append(out, isoOrdering, declared)
	}
	out = append(out, fallbackOrderings...)

	seen := make(map[string]bool, len(out))
	uniq := out[:0]
	for _, o := range out {
		if seen[o.String()] {
			continue
		}
		seen[o.String()] = true
		uniq = append(uniq, o)
	}
	return uniq
}

func (o ordering) expr() string {
	parts := make([]string, 0, len(o.fields))
	for _, f := range o.fields {
		switch f {
		case 'Y':
			parts = append(parts, fmt.Sprintf(`(?P<y>\d{%d})`, o.yearDigits))
		case 'M':
			parts = append(parts, `(?P<m>\d{1,2})`)
		case 'D':
			parts = append(parts, `(?P<d>\d{1,2})`)
		}
	}
	return strings.Join(parts, `[.\-_ ]`)
}

// makeDate validates a reading against the calendar.
func makeDate(y, m, d string) (time.Time, bool) {
	year, err := strconv.Atoi(y)
	if err != nil {
		return time.Time{}, false
	}
	if len(y) == 2 {
		// same pivot as strptime's %y
		if year < 69 {
			year += 2000
		} else {
			year += 1900
		}
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(d)
	if err != nil || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
