// Package similarity scores search queries against show names for the
// catalog search endpoint.
package similarity

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Score rates how well a search query matches a show name, from 0 (no
// match) to 1 (identical after normalization). A query contained whole in
// the name outranks fuzzy neighbors, so partial searches ("expanse"
// against "The Expanse") behave the way people expect.
func Score(query, name string) float64 {
	q := normalize(query)
	n := normalize(name)
	if q == "" || n == "" {
		return 0
	}
	if q == n {
		return 1
	}

	qLen := utf8.RuneCountInString(q)
	nLen := utf8.RuneCountInString(n)

	// Containment boost. Queries shorter than 3 runes are excluded so a
	// stray letter does not outrank real fuzzy matches.
	if qLen >= 3 && strings.Contains(n, q) {
		return 0.80 + 0.20*float64(qLen)/float64(nLen)
	}

	distance := levenshtein(q, n)
	longest := max(qLen, nLen)
	return 1 - float64(distance)/float64(longest)
}

// normalize lowercases, spells out ampersands, strips punctuation and
// collapses whitespace so release-name styling does not affect scoring.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ToLower(s)
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// levenshtein computes edit distance over runes with a rolling two-row
// table.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
