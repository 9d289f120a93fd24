package recipe

import (
	"math"

	"github.com/joseph-ayodele/recipe-importer/constants"
	"github.com/joseph-ayodele/recipe-importer/internal/catalog"
	"github.com/joseph-ayodele/recipe-importer/internal/match"
)

// DefaultMatchThreshold is the fuzzy-search floor used when the caller passes none.
const DefaultMatchThreshold = 70

// Bands are the score tiers for confidence badges. They are independent of the
// match threshold passed to ProcessImport, which only sets the search floor.
type Bands struct {
	Auto float64 // at or above: green, auto-mapped
	Warn float64 // at or above: yellow, mapped for review
}

func DefaultBands() Bands {
	return Bands{Auto: 90, Warn: 70}
}

// Badge tiers a match score.
func (b Bands) Badge(score float64) constants.Badge {
	switch {
	case score >= b.Auto:
		return constants.BadgeGreen
	case score >= b.Warn:
		return constants.BadgeYellow
	default:
		return constants.BadgeRed
	}
}

// MapIngredient finds the best catalog product for ni. Scores are truncated to whole
// points. A match below the yellow band, or none at or above threshold, is red with
// no product.
func MapIngredient(ni NormalizedIngredient, cat *catalog.Catalog, threshold float64, bands Bands) MappedIngredient {
	out := MappedIngredient{NormalizedIngredient: ni, ConfidenceBadge: constants.BadgeRed}

	name := ni.IngredientName
	if name == "" {
		name = ni.RawName
	}
	if cat.Len() == 0 {
		return out
	}
	res, ok := match.ExtractOne(name, cat.Names(), threshold)
	if !ok {
		return out
	}

	score := math.Trunc(res.Score)
	out.MappingConfidence = score
	out.ConfidenceBadge = bands.Badge(score)
	if out.ConfidenceBadge == constants.BadgeRed {
		return out
	}
	product := cat.At(res.Index)
	mapped := product.Name
	out.MappedName = &mapped
	out.ProductInfo = &product
	return out
}
