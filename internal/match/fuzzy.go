// Package match scores approximate string similarity on a 0-100 scale and picks the
// best candidate from a list. The weighted ratio combines a plain edit-distance ratio
// with partial (substring) and token-order-insensitive variants, scaled by how
// different the two string lengths are.
package match

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

const (
	unbaseScale = 0.95
	// partial comparisons are discounted more heavily for very unequal lengths
	partialScale     = 0.9
	longPartialScale = 0.6
)

// Process lowercases s, turns every non-alphanumeric rune into a space and trims.
func Process(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

// indelRatio is 100 * (1 - d/(len1+len2)) where d is the insert/delete distance
// (substitution costs 2).
func indelRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	dist, _, _ := levenshtein.Calculate(a, b, 0, 1, 2, 1)
	return 100 * float64(total-dist) / float64(total)
}

// Ratio is the normalized indel similarity of a and b.
func Ratio(a, b string) float64 {
	return indelRatio([]rune(a), []rune(b))
}

// PartialRatio is the best Ratio of the shorter string against any same-length
// window of the longer one, including windows that hang off either end.
func PartialRatio(a, b string) float64 {
	s, l := []rune(a), []rune(b)
	if len(s) > len(l) {
		s, l = l, s
	}
	if len(s) == 0 {
		if len(l) == 0 {
			return 100
		}
		return 0
	}
	n := len(s)
	best := 0.0
	consider := func(w []rune) bool {
		if r := indelRatio(s, w); r > best {
			best = r
		}
		return best == 100
	}
	for i := 0; i+n <= len(l); i++ {
		if consider(l[i : i+n]) {
			return 100
		}
	}
	for k := 1; k < n && k <= len(l); k++ {
		if consider(l[:k]) || consider(l[len(l)-k:]) {
			return 100
		}
	}
	return best
}

func sortedTokens(s string) []string {
	toks := strings.Fields(s)
	sort.Strings(toks)
	return toks
}

// TokenSortRatio compares a and b after sorting their words.
func TokenSortRatio(a, b string) float64 {
	return Ratio(strings.Join(sortedTokens(a), " "), strings.Join(sortedTokens(b), " "))
}

type tokenSets struct {
	sect, diffAB, diffBA []string
}

func splitTokens(a, b string) tokenSets {
	setA := make(map[string]struct{})
	for _, t := range strings.Fields(a) {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{})
	for _, t := range strings.Fields(b) {
		setB[t] = struct{}{}
	}
	var ts tokenSets
	for t := range setA {
		if _, ok := setB[t]; ok {
			ts.sect = append(ts.sect, t)
		} else {
			ts.diffAB = append(ts.diffAB, t)
		}
	}
	for t := range setB {
		if _, ok := setA[t]; !ok {
			ts.diffBA = append(ts.diffBA, t)
		}
	}
	sort.Strings(ts.sect)
	sort.Strings(ts.diffAB)
	sort.Strings(ts.diffBA)
	return ts
}

func joinNonEmpty(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// TokenSetRatio compares the shared words of a and b with each side's remainder. A
// string whose words are a subset of the other's scores 100.
func TokenSetRatio(a, b string) float64 {
	ts := splitTokens(a, b)
	if len(ts.sect) > 0 && (len(ts.diffAB) == 0 || len(ts.diffBA) == 0) {
		return 100
	}
	sect := strings.Join(ts.sect, " ")
	withA := joinNonEmpty(sect, strings.Join(ts.diffAB, " "))
	withB := joinNonEmpty(sect, strings.Join(ts.diffBA, " "))

	best := Ratio(withA, withB)
	if sect != "" {
		best = max(best, Ratio(sect, withA), Ratio(sect, withB))
	}
	return best
}

// PartialTokenRatio is the partial-match counterpart of the token ratios.
func PartialTokenRatio(a, b string) float64 {
	ts := splitTokens(a, b)
	if len(ts.sect) > 0 {
		return 100
	}
	sortRatio := PartialRatio(strings.Join(sortedTokens(a), " "), strings.Join(sortedTokens(b), " "))
	if len(ts.diffAB) == 0 || len(ts.diffBA) == 0 {
		return sortRatio
	}
	return max(sortRatio, PartialRatio(strings.Join(ts.diffAB, " "), strings.Join(ts.diffBA, " ")))
}

// WRatio is the weighted ratio of two already-processed strings, 0..100.
func WRatio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	lenRatio := float64(max(la, lb)) / float64(min(la, lb))

	score := Ratio(a, b)
	if lenRatio < 1.5 {
		token := max(TokenSortRatio(a, b), TokenSetRatio(a, b))
		return max(score, token*unbaseScale)
	}

	scale := partialScale
	if lenRatio >= 8 {
		scale = longPartialScale
	}
	score = max(score, PartialRatio(a, b)*scale)
	return max(score, PartialTokenRatio(a, b)*unbaseScale*scale)
}

// Score applies Process to both inputs and returns their WRatio.
func Score(a, b string) float64 {
	return WRatio(Process(a), Process(b))
}

// Result is the best candidate found by ExtractOne.
type Result struct {
	Choice string
	Score  float64
	Index  int
}

// ExtractOne returns the highest-scoring choice whose score is at least cutoff. Ties go
// to the earlier choice. ok is false when nothing reaches the cutoff.
func ExtractOne(query string, choices []string, cutoff float64) (Result, bool) {
	q := Process(query)
	if q == "" {
		return Result{}, false
	}
	best := Result{Index: -1}
	for i, c := range choices {
		s := WRatio(q, Process(c))
		if s >= cutoff && s > best.Score {
			best = Result{Choice: c, Score: s, Index: i}
			if s == 100 {
				break
			}
		}
	}
	return best, best.Index >= 0
}
