package schema

import "github.com/joseph-ayodele/recipe-importer/constants"

const (
	MaxQuantity    = 10000
	MaxNameLength  = 200
	MaxServings    = 1000
	MaxTimeMinutes = 1440
)

var nonBlank = map[string]any{"type": "string", "minLength": 1, "pattern": `\S`}

// BuildIngredientSchema describes a costed ingredient. Mapping fields are optional so
// the same schema accepts an ingredient before it has been matched.
func BuildIngredientSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"raw_name", "quantity", "uom"},
		"properties": map[string]any{
			"raw_name":        nonBlank,
			"ingredient_name": map[string]any{"type": "string"},
			"quantity": map[string]any{
				"type":             "number",
				"exclusiveMinimum": 0,
				"maximum":          MaxQuantity,
			},
			"uom":         nonBlank,
			"quantity_oz": map[string]any{"type": "number", "minimum": 0},
			"estimate":    map[string]any{"type": "boolean"},
			"mapped_name": map[string]any{"type": []string{"string", "null"}},
			"mapping_confidence": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 100,
			},
			"confidence_badge": map[string]any{
				"enum": []any{
					string(constants.BadgeGreen),
					string(constants.BadgeYellow),
					string(constants.BadgeRed),
					nil,
				},
			},
			"price_per_oz": map[string]any{"type": "number", "minimum": 0},
			"total_cost":   map[string]any{"type": "number", "minimum": 0},
		},
	}
}

// BuildRecipeSchema describes the aggregate recipe; ingredients are checked against
// the ingredient definition.
func BuildRecipeSchema(categories []string) map[string]any {
	minutes := map[string]any{"type": "integer", "minimum": 0, "maximum": MaxTimeMinutes}
	stringList := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	enum := make([]any, len(categories))
	for i, c := range categories {
		enum[i] = c
	}

	return map[string]any{
		"$defs": map[string]any{
			"ingredient": BuildIngredientSchema(),
		},
		"type":     "object",
		"required": []string{"name", "servings", "category", "ingredients"},
		"properties": map[string]any{
			"name": map[string]any{
				"type":      "string",
				"minLength": 1,
				"maxLength": MaxNameLength,
				"pattern":   `\S`,
			},
			"description": map[string]any{"type": "string"},
			"servings":    map[string]any{"type": "integer", "minimum": 1, "maximum": MaxServings},
			"prep_time":   minutes,
			"cook_time":   minutes,
			"category":    map[string]any{"enum": enum},
			"yield_oz":    map[string]any{"type": "number", "minimum": 0},
			"portion_oz":  map[string]any{"type": "number", "minimum": 0},
			"ingredients": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    map[string]any{"$ref": "#/$defs/ingredient"},
			},
			"instructions": stringList,
			"allergens":    stringList,
			"total_cost":   map[string]any{"type": "number", "minimum": 0},
		},
	}
}
