package recipe

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/recipe-importer/internal/llm"
	"github.com/joseph-ayodele/recipe-importer/internal/units"
)

// Placeholder values for an ingredient whose quantity could not be read.
const (
	placeholderQuantity = 1.0
	placeholderUOM      = "each"
	placeholderOz       = 8.0
)

// NormalizeIngredient resolves a draft ingredient's quantity and unit. A nil quantity
// is read from the raw line instead; a quantity of any other unexpected type is an
// error.
func NormalizeIngredient(n *units.Normalizer, d llm.DraftIngredient) (ni NormalizedIngredient, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("normalize %q: panic: %v", d.RawName, r)
		}
	}()

	raw := strings.TrimSpace(d.RawName)
	ni = NormalizedIngredient{RawName: raw}

	switch q := d.Quantity.(type) {
	case nil:
		p := n.NormalizeIngredientText(raw)
		ni.Quantity, ni.Estimate, ni.UOM = p.Quantity, p.Estimate, p.UOM
		if strings.TrimSpace(d.UOM) != "" {
			ni.UOM = n.NormalizeUnit(d.UOM)
		}
	case float64:
		ni.Quantity = q
		ni.UOM = n.NormalizeUnit(d.UOM)
	case int:
		ni.Quantity = float64(q)
		ni.UOM = n.NormalizeUnit(d.UOM)
	case string:
		ni.Quantity, ni.Estimate = n.ParseQuantityRange(q)
		ni.UOM = n.NormalizeUnit(d.UOM)
	default:
		return NormalizedIngredient{}, fmt.Errorf("normalize %q: unsupported quantity type %T", raw, d.Quantity)
	}

	ni.QuantityOz = units.Round(n.ConvertToOunces(ni.Quantity, ni.UOM), 3)
	ni.IngredientName = n.StripQuantityPrefix(raw)
	if ni.IngredientName == "" {
		ni.IngredientName = raw
	}
	return ni, nil
}

// placeholder stands in for an ingredient that failed to normalize.
func placeholder(d llm.DraftIngredient) NormalizedIngredient {
	name := strings.TrimSpace(d.RawName)
	if name == "" {
		name = "Unknown"
	}
	return NormalizedIngredient{
		RawName:        name,
		IngredientName: name,
		Quantity:       placeholderQuantity,
		UOM:            placeholderUOM,
		QuantityOz:     placeholderOz,
		Estimate:       true,
	}
}

// NormalizeIngredients normalizes every draft ingredient in order. A failing
// ingredient is replaced by a placeholder and reported as a warning.
func NormalizeIngredients(n *units.Normalizer, drafts []llm.DraftIngredient, logger *slog.Logger) ([]NormalizedIngredient, []string) {
	out := make([]NormalizedIngredient, 0, len(drafts))
	var warnings []string
	for i, d := range drafts {
		ni, err := NormalizeIngredient(n, d)
		if err != nil {
			logger.Warn("importer.normalize.placeholder", "index", i, "raw_name", d.RawName, "error", err)
			warnings = append(warnings, fmt.Sprintf("ingredient %d: %v; using placeholder quantity", i+1, err))
			ni = placeholder(d)
		}
		out = append(out, ni)
	}
	return out, warnings
}
