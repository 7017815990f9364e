// Package numeral converts sequel numbers between Arabic and Roman form so a
// title like "Rocky 2" can also be searched as "Rocky II".
package numeral

import (
	"strconv"
	"strings"
)

// MaxSequel is the highest sequel number converted in either direction.
const MaxSequel = 20

var romans = [...]string{
	"", "I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X",
	"XI", "XII", "XIII", "XIV", "XV", "XVI", "XVII", "XVIII", "XIX", "XX",
}

var fromRoman = func() map[string]int {
	m := make(map[string]int, len(romans))
	for i, r := range romans {
		if r != "" {
			m[r] = i
		}
	}
	return m
}()

// ToRoman returns the Roman form of n for 1 <= n <= MaxSequel.
func ToRoman(n int) (string, bool) {
	if n < 1 || n > MaxSequel {
		return "", false
	}
	return romans[n], true
}

// FromRoman parses a Roman numeral in the supported range, case-insensitively.
func FromRoman(s string) (int, bool) {
	n, ok := fromRoman[strings.ToUpper(strings.TrimSpace(s))]
	return n, ok
}

// Pair is the two search spellings of a title whose last word is a sequel number.
type Pair struct {
	Arabic string
	Roman  string
}

// SearchPair returns both spellings of title. ok is false when the last word is
// not a convertible sequel number, in which case both fields hold the title.
// SearchPair("Rocky II") and SearchPair("Rocky 2") return the same Pair.
func SearchPair(title string) (Pair, bool) {
	words := strings.Fields(title)
	if len(words) < 2 {
		return Pair{Arabic: title, Roman: title}, false
	}
	head := strings.Join(words[:len(words)-1], " ")
	last := words[len(words)-1]

	if n, err := strconv.Atoi(last); err == nil {
		if r, ok := ToRoman(n); ok {
			return Pair{Arabic: head + " " + strconv.Itoa(n), Roman: head + " " + r}, true
		}
	}
	if n, ok := FromRoman(last); ok {
		r, _ := ToRoman(n)
		return Pair{Arabic: head + " " + strconv.Itoa(n), Roman: head + " " + r}, true
	}
	return Pair{Arabic: title, Roman: title}, false
}

// Alternate returns the other spelling of title, or false when there is none.
func Alternate(title string) (string, bool) {
	pair, ok := SearchPair(title)
	if !ok {
		return "", false
	}
	if equalFold(pair.Arabic, title) {
		return pair.Roman, true
	}
	return pair.Arabic, true
}

// Canonical lowercases title, collapses whitespace and rewrites a trailing
// sequel number in Arabic form.
func Canonical(title string) string {
	collapsed := strings.Join(strings.Fields(strings.ToLower(title)), " ")
	if pair, ok := SearchPair(collapsed); ok {
		return strings.ToLower(pair.Arabic)
	}
	return collapsed
}

// Equivalent reports whether two titles match ignoring case, whitespace and
// the Roman/Arabic spelling of a trailing sequel number.
func Equivalent(a, b string) bool {
	return Canonical(a) == Canonical(b)
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(a), " "), strings.Join(strings.Fields(b), " "))
}
