package media

import (
	"regexp"
	"strconv"
)

var partPattern = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(?:part|pt|p)[\s._\-]?(\d{1,2})(?:$|[^0-9])`)

// ParsePart finds a multi-part marker such as "pt2", "Part 2" or ".p2" in s.
func ParsePart(s string) (int, bool) {
	m := partPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
