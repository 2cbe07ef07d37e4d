// Package similarity scores how closely two short texts agree, tolerating
// word reordering and differences in case and Unicode composition.
package similarity

import (
	"slices"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize composes s to NFC, upper-cases it and collapses whitespace.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	// Casers keep state between calls and are not shared.
	s = cases.Upper(language.Und).String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Tokens returns the whitespace-separated tokens of the normalized text.
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// Ratio returns the sequence-match ratio 2*M/T of two token sequences, where
// M is the number of matched elements and T the total length. Two empty
// sequences have ratio 1.
func Ratio(a, b []string) float64 {
	return difflib.NewMatcher(a, b).Ratio()
}

// TokenSortRatio compares the sorted token lists of a and b. It does not
// depend on word order.
func TokenSortRatio(a, b string) float64 {
	ta, tb := Tokens(a), Tokens(b)
	slices.Sort(ta)
	slices.Sort(tb)
	return Ratio(ta, tb)
}

// CharRatio compares a and b character by character after normalization.
func CharRatio(a, b string) float64 {
	return Ratio(runes(Normalize(a)), runes(Normalize(b)))
}

// Score is the larger of TokenSortRatio and CharRatio, in [0, 1].
func Score(a, b string) float64 {
	return max(TokenSortRatio(a, b), CharRatio(a, b))
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
