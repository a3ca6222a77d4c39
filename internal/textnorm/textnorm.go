// Package textnorm normalizes free-form transaction text for matching.
//
// Receipts and statements mix full-width and half-width forms, kana variants and
// arbitrary casing. Everything that compares text (rule lookup, fuzzy matching,
// fingerprinting) goes through Normalize so that those differences never
// change a decision.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFKC, case folding, trimming and whitespace collapsing.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	// Casers carry state and must not be shared between goroutines.
	folded := cases.Fold().String(norm.NFKC.String(s))
	return strings.Join(strings.Fields(folded), " ")
}

// Join normalizes each part and joins the non-empty results with a single space.
func Join(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if n := Normalize(p); n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, " ")
}

// Prefix returns the first n runes of s.
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// ContainsAny reports whether text contains any of the keywords. Keywords are
// expected to be normalized already; the first match is returned.
func ContainsAny(text string, keywords []string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}

// NormalizeAll normalizes every keyword, dropping empties.
func NormalizeAll(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if n := Normalize(kw); n != "" {
			out = append(out, n)
		}
	}
	return out
}
