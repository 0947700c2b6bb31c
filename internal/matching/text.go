package matching

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minTokenLength drops short tokens like "a", "of" and stray initials.
const minTokenLength = 3

// fold case-folds s and strips combining accents so "Café" and "CAFE"
// compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// tokenize splits folded text on non-alphanumerics and drops short tokens.
func tokenize(s string) []string {
	raw := strings.FieldsFunc(fold(s), isSeparator)
	terms := raw[:0]
	for _, tok := range raw {
		if utf8.RuneCountInString(tok) < minTokenLength {
			continue
		}
		terms = append(terms, tok)
	}
	return terms
}

// normalizeIdentifier reduces a serial number or marking to its folded
// alphanumerics, so "SN: 12-AB/34" and "sn12ab34" are equal.
func normalizeIdentifier(s string) string {
	var b strings.Builder
	for _, r := range fold(s) {
		if !isSeparator(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// fingerprint is a term-frequency vector.
type fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// newFingerprint returns nil when text produces no tokens.
func newFingerprint(text string) *fingerprint {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}
	var sum float64
	for _, c := range counts {
		sum += c * c
	}
	return &fingerprint{tokens: counts, norm: math.Sqrt(sum)}
}

// cosine returns the cosine similarity of two fingerprints, 0 if either is
// empty.
func cosine(a, b *fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for tok, c := range a.tokens {
		if o, ok := b.tokens[tok]; ok {
			dot += c * o
		}
	}
	if dot == 0 {
		return 0
	}
	return math.Min(1, dot/(a.norm*b.norm))
}
