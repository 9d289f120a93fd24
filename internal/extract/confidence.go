package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/recipe-importer/internal/units"
)

// Thresholds decide whether directly extracted page text is good enough to use.
type Thresholds struct {
	MinChars   int
	MinWords   int
	MinUOMHits int
	// MaxFailures is how many of the three checks may fail with the page still
	// counted as confident.
	MaxFailures int
}

// DefaultThresholds: 200 chars, 30 words, 2 unit mentions, two of three must pass.
func DefaultThresholds() Thresholds {
	return Thresholds{MinChars: 200, MinWords: 30, MinUOMHits: 2, MaxFailures: 1}
}

// AnalyzePage scores text against t. Unit mentions are counted with n.
func AnalyzePage(text string, t Thresholds, n *units.Normalizer) Confidence {
	if n == nil {
		n = units.Default()
	}
	return t.Evaluate(utf8.RuneCountInString(text), len(strings.Fields(text)), n.CountUOMHits(text))
}

// Evaluate applies the two-of-three vote to already measured counts.
func (t Thresholds) Evaluate(chars, words, uomHits int) Confidence {
	c := Confidence{CharCount: chars, WordCount: words, UOMHits: uomHits}
	if c.CharCount < t.MinChars {
		c.Failures++
	}
	if c.WordCount < t.MinWords {
		c.Failures++
	}
	if c.UOMHits < t.MinUOMHits {
		c.Failures++
	}
	c.IsConfident = c.Failures <= t.MaxFailures
	return c
}
