package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildRecipeDraftSchema returns the JSON Schema the model is asked to follow. It only
// checks structure; ranges and the category enumeration are the recipe validator's job.
func BuildRecipeDraftSchema() map[string]any {
	stringList := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}

	return map[string]any{
		"type":     "object",
		"required": []string{"name", "ingredients"},
		"properties": map[string]any{
			"name":        map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"servings":    map[string]any{"type": "integer"},
			"prep_time":   map[string]any{"type": "integer"},
			"cook_time":   map[string]any{"type": "integer"},
			"category":    map[string]any{"type": "string"},
			"yield_oz":    map[string]any{"type": "number"},
			"portion_oz":  map[string]any{"type": "number"},
			"ingredients": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []string{"raw_name"},
					"properties": map[string]any{
						"raw_name": map[string]any{"type": "string"},
						"quantity": map[string]any{"type": []string{"number", "string", "null"}},
						"uom":      map[string]any{"type": []string{"string", "null"}},
					},
				},
			},
			"instructions": stringList,
			"allergens":    stringList,
		},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
