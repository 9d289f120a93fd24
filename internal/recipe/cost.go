package recipe

import (
	"math"

	"github.com/joseph-ayodele/recipe-importer/constants"
	"github.com/joseph-ayodele/recipe-importer/internal/catalog"
	"github.com/joseph-ayodele/recipe-importer/internal/units"
)

// fallbackOzPerUnit approximates ounces per unit for products priced by anything
// other than lb or oz. It is a rough guess, not a conversion.
const fallbackOzPerUnit = 8.0

// PricePerOz prefers the product's own cost per ounce, else divides the unit price
// by 16 for lb, 1 for oz and fallbackOzPerUnit for anything else. Negative or
// non-finite prices count as 0.
func PricePerOz(p catalog.Product) float64 {
	if p.CostPerOz != nil && validPrice(*p.CostPerOz) {
		return *p.CostPerOz
	}
	if !validPrice(p.PricePerUnit) {
		return 0
	}
	switch units.NormalizeUnit(p.Unit) {
	case "lb":
		return p.PricePerUnit / 16.0
	case "oz":
		return p.PricePerUnit
	default:
		return p.PricePerUnit / fallbackOzPerUnit
	}
}

func validPrice(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

// CostIngredient prices a mapped ingredient. Unmapped ingredients cost 0. The total
// is computed from the rounded price so it always equals
// round(price_per_oz * quantity_oz, 2).
func CostIngredient(m MappedIngredient) CostedIngredient {
	out := CostedIngredient{MappedIngredient: m}
	if m.ProductInfo == nil {
		return out
	}
	out.PricePerOz = units.Round(PricePerOz(*m.ProductInfo), 4)
	out.TotalCost = units.Round(out.PricePerOz*m.QuantityOz, 2)
	return out
}

// CostIngredients prices every ingredient and returns the recipe total.
func CostIngredients(mapped []MappedIngredient) ([]CostedIngredient, float64) {
	out := make([]CostedIngredient, len(mapped))
	total := 0.0
	for i, m := range mapped {
		out[i] = CostIngredient(m)
		total += out[i].TotalCost
	}
	return out, units.Round(total, 2)
}

// ComputeStats counts badges. MatchRate is 0 for a recipe with no ingredients.
func ComputeStats(ings []CostedIngredient) MappingStats {
	s := MappingStats{Total: len(ings)}
	for _, ing := range ings {
		switch ing.ConfidenceBadge {
		case constants.BadgeGreen:
			s.AutoMapped++
		case constants.BadgeYellow:
			s.WarnMapped++
		default:
			s.Unmapped++
		}
	}
	if s.Total > 0 {
		s.MatchRate = units.Round(float64(s.AutoMapped+s.WarnMapped)/float64(s.Total)*100, 1)
	}
	return s
}
