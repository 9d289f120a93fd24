// Package units canonicalizes unit-of-measure strings, parses fractions and ranges out
// of quantity text, and converts quantities to ounces. Nothing in this package returns
// an error: recipe text is uncontrolled, so every function has a deterministic fallback.
package units

import "regexp"

// Fraction is one entry of the vulgar-fraction table.
type Fraction struct {
	Glyph string
	Value float64
}

// Table is the immutable configuration a Normalizer works from. Tests may build
// alternate tables; production code uses DefaultTable.
type Table struct {
	Fractions   []Fraction
	Synonyms    map[string]string
	ToOunces    map[string]float64
	UOMPatterns []*regexp.Regexp
	// CountUnit is used when a quantity carries no recognizable unit.
	CountUnit string
}

// Volume factors assume water-like density and the count units (each, bunch, case,
// can, jar, bag, box, package, dozen) are rough kitchen averages. They are
// approximations kept for compatibility with existing costed recipes.
var defaultToOunces = map[string]float64{
	"oz": 1.0,
	"lb": 16.0,
	"g":  0.035274,
	"kg": 35.274,

	"tsp":    0.17,
	"tbsp":   0.5,
	"fl oz":  1.0,
	"cup":    8.0,
	"pint":   16.0,
	"quart":  32.0,
	"gallon": 128.0,
	"ml":     0.033814,
	"liter":  33.814,

	"dozen":   24.0,
	"each":    8.0,
	"bunch":   4.0,
	"case":    192.0,
	"can":     14.5,
	"jar":     16.0,
	"bag":     32.0,
	"box":     16.0,
	"package": 16.0,
}

var defaultSynonyms = map[string]string{
	"teaspoon": "tsp", "teaspoons": "tsp", "t": "tsp", "tsps": "tsp",
	"tablespoon": "tbsp", "tablespoons": "tbsp", "tbs": "tbsp", "tbsps": "tbsp", "tbl": "tbsp",
	"fluid ounce": "fl oz", "fluid ounces": "fl oz", "floz": "fl oz",
	"ounce": "oz", "ounces": "oz", "ozs": "oz",
	"cup": "cup", "cups": "cup", "c": "cup",
	"pint": "pint", "pints": "pint", "pt": "pint", "pts": "pint",
	"quart": "quart", "quarts": "quart", "qt": "quart", "qts": "quart",
	"gallon": "gallon", "gallons": "gallon", "gal": "gallon", "gals": "gallon",
	"milliliter": "ml", "milliliters": "ml", "millilitre": "ml", "millilitres": "ml", "mls": "ml",
	"liter": "liter", "liters": "liter", "litre": "liter", "litres": "liter", "l": "liter",

	"pound": "lb", "pounds": "lb", "lbs": "lb",
	"gram": "g", "grams": "g", "gr": "g", "gms": "g",
	"kilogram": "kg", "kilograms": "kg", "kgs": "kg", "kilo": "kg", "kilos": "kg",

	"dozen": "dozen", "doz": "dozen", "dz": "dozen",
	"each": "each", "ea": "each", "piece": "each", "pieces": "each", "pc": "each", "pcs": "each",
	"bunch": "bunch", "bunches": "bunch",
	"case": "case", "cases": "case", "cs": "case",
	"can": "can", "cans": "can",
	"jar": "jar", "jars": "jar",
	"bag": "bag", "bags": "bag",
	"box": "box", "boxes": "box",
	"package": "package", "packages": "package", "pkg": "package", "pkgs": "package", "pack": "package",
}

// Decimal values are the fixed table used for costing, not exact thirds/sixths.
var defaultFractions = []Fraction{
	{"½", 0.5}, {"⅓", 0.33}, {"⅔", 0.67}, {"¼", 0.25}, {"¾", 0.75},
	{"⅕", 0.2}, {"⅖", 0.4}, {"⅗", 0.6}, {"⅘", 0.8}, {"⅙", 0.17}, {"⅚", 0.83},
	{"⅐", 0.14}, {"⅛", 0.125}, {"⅜", 0.375}, {"⅝", 0.625}, {"⅞", 0.875},
}

var defaultUOMPatterns = compileAll(
	`\boz\b`, `\blb\b`, `\bcup\b`, `\btsp\b`, `\btbsp\b`,
	`\bgram\b`, `\bkg\b`, `\bml\b`, `\bliter\b`,
	`\bquart\b`, `\bgallon\b`, `\beach\b`, `\bbunch\b`,
	`\bcase\b`, `\bdozen\b`, `\bpint\b`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// DefaultTable returns the production conversion table. Maps are copied so callers can
// extend the result without touching the shared defaults.
func DefaultTable() Table {
	syn := make(map[string]string, len(defaultSynonyms))
	for k, v := range defaultSynonyms {
		syn[k] = v
	}
	conv := make(map[string]float64, len(defaultToOunces))
	for k, v := range defaultToOunces {
		conv[k] = v
	}
	return Table{
		Fractions:   append([]Fraction(nil), defaultFractions...),
		Synonyms:    syn,
		ToOunces:    conv,
		UOMPatterns: append([]*regexp.Regexp(nil), defaultUOMPatterns...),
		CountUnit:   "each",
	}
}
