package units

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reASCIIMixed    = regexp.MustCompile(`(\d+)[ \t]+(\d+)\s*/\s*(\d+)`)
	reASCIIFraction = regexp.MustCompile(`(\d+)\s*/\s*(\d+)`)
	reRange         = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:-|–|\bto\b)\s*(\d+(?:\.\d+)?)`)
	reNumber        = regexp.MustCompile(`\d+(?:\.\d+)?`)
	reQuantity      = regexp.MustCompile(`(?i)\d+(?:\.\d+)?(?:\s*(?:-|–|\bto\b)\s*\d+(?:\.\d+)?)?`)
	reUnitToken     = regexp.MustCompile(`^\s*([A-Za-z]+)\.?`)
	reFlOz          = regexp.MustCompile(`(?i)^\s*oz\.?`)
	reLeadingOf     = regexp.MustCompile(`(?i)^of\s+`)
	reSpaces        = regexp.MustCompile(`\s+`)
)

// Normalizer applies a Table. It is immutable and safe for concurrent use.
type Normalizer struct {
	table       Table
	mixedGlyph  []*regexp.Regexp
	prefixRe    *regexp.Regexp
	transformer func(string) string
}

// New builds a Normalizer over t.
func New(t Table) *Normalizer {
	if t.CountUnit == "" {
		t.CountUnit = "each"
	}
	n := &Normalizer{table: t, transformer: stripAccents}

	glyphs := make([]string, 0, len(t.Fractions))
	for _, f := range t.Fractions {
		q := regexp.QuoteMeta(f.Glyph)
		n.mixedGlyph = append(n.mixedGlyph, regexp.MustCompile(`(\d+)[ \t]?`+q))
		glyphs = append(glyphs, q)
	}
	// a leading run of digits / glyphs / separators, optionally "to <n>"
	class := `\d.,/\-–` + strings.Join(glyphs, "")
	n.prefixRe = regexp.MustCompile(`(?i)^\s*[\d` + strings.Join(glyphs, "") + `][` + class + `\s]*(?:to\s+[` + class + `]+\s*)?`)
	return n
}

var defaultNormalizer = New(DefaultTable())

// Default returns the shared production Normalizer.
func Default() *Normalizer { return defaultNormalizer }

// Table returns the configuration this normalizer was built with.
func (n *Normalizer) Table() Table { return n.table }

// ParseFractions replaces vulgar-fraction glyphs and ASCII a/b fractions with decimals.
// A whole number directly before a fraction is folded in ("2½" and "2 1/2" -> "2.5").
// A zero denominator leaves the original substring untouched.
func (n *Normalizer) ParseFractions(text string) string {
	for i, f := range n.table.Fractions {
		if !strings.Contains(text, f.Glyph) {
			continue
		}
		val := f.Value
		text = n.mixedGlyph[i].ReplaceAllStringFunc(text, func(m string) string {
			whole, _ := strconv.ParseFloat(reNumber.FindString(m), 64)
			return formatFloat(whole + val)
		})
		text = strings.ReplaceAll(text, f.Glyph, formatFloat(val))
	}

	text = reASCIIMixed.ReplaceAllStringFunc(text, func(m string) string {
		g := reASCIIMixed.FindStringSubmatch(m)
		whole, _ := strconv.ParseFloat(g[1], 64)
		num, _ := strconv.ParseFloat(g[2], 64)
		den, _ := strconv.ParseFloat(g[3], 64)
		if den == 0 {
			return m
		}
		return formatFloat(whole + num/den)
	})
	return reASCIIFraction.ReplaceAllStringFunc(text, func(m string) string {
		g := reASCIIFraction.FindStringSubmatch(m)
		num, _ := strconv.ParseFloat(g[1], 64)
		den, _ := strconv.ParseFloat(g[2], 64)
		if den == 0 {
			return m
		}
		return formatFloat(num / den)
	})
}

// ParseQuantityRange returns the midpoint of a range ("1-2", "1 to 2", "1–2") with
// isEstimate=true, else the first number with isEstimate=false. Text with no number
// yields (1.0, true): a placeholder, not a measurement.
func (n *Normalizer) ParseQuantityRange(text string) (float64, bool) {
	text = n.ParseFractions(text)

	if m := reRange.FindStringSubmatch(text); m != nil {
		low, _ := strconv.ParseFloat(m[1], 64)
		high, _ := strconv.ParseFloat(m[2], 64)
		return (low + high) / 2.0, true
	}
	if m := reNumber.FindString(text); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			return v, false
		}
	}
	return 1.0, true
}

// NormalizeUnit canonicalizes a unit string. Unknown units pass through cleaned but
// otherwise unchanged; an empty unit becomes the count unit.
func (n *Normalizer) NormalizeUnit(raw string) string {
	u := strings.ToLower(strings.TrimSpace(raw))
	u = strings.ReplaceAll(u, ".", "")
	u = n.transformer(u)
	u = strings.TrimSpace(reSpaces.ReplaceAllString(u, " "))
	if u == "" {
		return n.table.CountUnit
	}
	if canon, ok := n.table.Synonyms[u]; ok {
		return canon
	}
	return u
}

// Factor returns the ounces-per-unit factor and whether the unit is known.
func (n *Normalizer) Factor(unit string) (float64, bool) {
	f, ok := n.table.ToOunces[n.NormalizeUnit(unit)]
	if !ok {
		return 1.0, false
	}
	return f, true
}

// IsKnownUnit reports whether unit resolves to an entry of the conversion table.
func (n *Normalizer) IsKnownUnit(unit string) bool {
	_, ok := n.Factor(unit)
	return ok
}

// ConvertToOunces multiplies quantity by the unit's factor. Unknown units are
// treated as already being ounces (factor 1.0).
func (n *Normalizer) ConvertToOunces(quantity float64, unit string) float64 {
	f, _ := n.Factor(unit)
	return quantity * f
}

// CountUOMHits counts word-boundary unit mentions. It is a confidence signal only.
func (n *Normalizer) CountUOMHits(text string) int {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)
	count := 0
	for _, re := range n.table.UOMPatterns {
		count += len(re.FindAllStringIndex(lower, -1))
	}
	return count
}

// StripQuantityPrefix removes a leading "quantity + unit" from an ingredient line
// ("2 ½ cups of flour" -> "flour"). The unit token is only consumed when it is a
// known unit, so "2 eggs" keeps "eggs". The result may be empty.
func (n *Normalizer) StripQuantityPrefix(raw string) string {
	loc := n.prefixRe.FindStringIndex(raw)
	if loc == nil {
		return strings.TrimSpace(raw)
	}
	rest := raw[loc[1]:]
	rest = n.consumeUnit(rest)
	rest = reLeadingOf.ReplaceAllString(strings.TrimSpace(rest), "")
	return strings.TrimSpace(rest)
}

// consumeUnit drops a leading known unit token ("fl oz" counts as one) from s.
func (n *Normalizer) consumeUnit(s string) string {
	m := reUnitToken.FindStringSubmatchIndex(s)
	if m == nil {
		return s
	}
	token := s[m[2]:m[3]]
	after := s[m[1]:]
	if strings.EqualFold(token, "fl") {
		if oz := reFlOz.FindStringIndex(after); oz != nil {
			return after[oz[1]:]
		}
	}
	if n.IsKnownUnit(token) {
		return after
	}
	return s
}

// Parsed is the result of normalizing one free-text ingredient line.
type Parsed struct {
	Raw            string
	IngredientName string
	Quantity       float64
	UOM            string
	QuantityOz     float64
	Estimate       bool
}

// NormalizeIngredientText parses a free-text line such as "2 1/2 lb chicken breast".
func (n *Normalizer) NormalizeIngredientText(text string) Parsed {
	out := Parsed{Raw: text}
	parsed := n.ParseFractions(text)

	name := n.StripQuantityPrefix(text)
	if name == "" {
		name = strings.TrimSpace(text)
	}
	out.IngredientName = name

	loc := reQuantity.FindStringIndex(parsed)
	if loc == nil {
		out.Quantity, out.Estimate = 1.0, true
		out.UOM = n.table.CountUnit
		out.QuantityOz = Round(n.ConvertToOunces(out.Quantity, out.UOM), 3)
		return out
	}

	out.Quantity, out.Estimate = n.ParseQuantityRange(parsed[loc[0]:loc[1]])
	rest := parsed[loc[1]:]
	out.UOM = n.table.CountUnit
	if m := reUnitToken.FindStringSubmatchIndex(rest); m != nil {
		token := rest[m[2]:m[3]]
		after := rest[m[1]:]
		switch {
		case strings.EqualFold(token, "fl") && reFlOz.MatchString(after):
			out.UOM = "fl oz"
		case n.IsKnownUnit(token):
			out.UOM = n.NormalizeUnit(token)
		}
	}
	out.QuantityOz = Round(n.ConvertToOunces(out.Quantity, out.UOM), 3)
	return out
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// stripAccents transliterates accented letters to ASCII ("crème" -> "creme").
func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Package-level helpers over the default table.

func ParseFractions(text string) string { return defaultNormalizer.ParseFractions(text) }

func ParseQuantityRange(text string) (float64, bool) {
	return defaultNormalizer.ParseQuantityRange(text)
}

func NormalizeUnit(raw string) string { return defaultNormalizer.NormalizeUnit(raw) }

func ConvertToOunces(quantity float64, unit string) float64 {
	return defaultNormalizer.ConvertToOunces(quantity, unit)
}

func CountUOMHits(text string) int { return defaultNormalizer.CountUOMHits(text) }
