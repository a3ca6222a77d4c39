// Package fuzzy provides approximate string comparison for OCR-damaged text.
package fuzzy

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the similarity a window must reach to count as a match.
const DefaultThreshold = 0.8

// Similarity returns 1 - distance/max(len(a), len(b)) measured in runes.
// Two empty strings are identical; exactly one empty string shares nothing.
func Similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 && lb == 0 {
		return 1.0
	}
	if la == 0 || lb == 0 {
		return 0.0
	}
	longest := la
	if lb > longest {
		longest = lb
	}
	return 1.0 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// Contains reports whether some window of haystack is at least threshold-similar to needle.
// Windows of len(needle)-1 .. len(needle)+1 runes are tried so that a dropped or
// inserted character still matches. An empty needle never matches.
func Contains(haystack, needle string, threshold float64) bool {
	_, ok := BestWindow(haystack, needle, threshold)
	return ok
}

// BestWindow returns the highest similarity any haystack window reaches against
// needle, and whether it meets threshold.
func BestWindow(haystack, needle string, threshold float64) (float64, bool) {
	n := []rune(needle)
	if len(n) == 0 {
		return 0, false
	}
	h := []rune(haystack)
	if len(h) == 0 {
		return 0, false
	}

	best := 0.0
	for size := len(n) - 1; size <= len(n)+1; size++ {
		if size <= 0 {
			continue
		}
		if size >= len(h) {
			if s := Similarity(string(h), needle); s > best {
				best = s
			}
			continue
		}
		for start := 0; start+size <= len(h); start++ {
			if s := Similarity(string(h[start:start+size]), needle); s > best {
				best = s
				if best == 1.0 {
					return best, true
				}
			}
		}
	}
	return best, best >= threshold
}
