package llm

import "context"

// DraftIngredient is one ingredient as the model returned it. Quantity is left as
// decoded (float64, string such as "1-2" or "½", or nil); the recipe normalizer
// resolves it.
type DraftIngredient struct {
	RawName  string `json:"raw_name"`
	Quantity any    `json:"quantity"`
	UOM      string `json:"uom"`
}

// RecipeDraft is the structured recipe after defaults have been applied.
type RecipeDraft struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Servings     int               `json:"servings"`
	PrepTime     int               `json:"prep_time"`
	CookTime     int               `json:"cook_time"`
	Category     string            `json:"category"`
	YieldOz      float64           `json:"yield_oz"`
	PortionOz    float64           `json:"portion_oz"`
	Ingredients  []DraftIngredient `json:"ingredients"`
	Instructions []string          `json:"instructions"`
	Allergens    []string          `json:"allergens"`
}

type StructureRequest struct {
	Text           string
	SourceFilename string
	Categories     []string
}

// StructuringService turns extracted recipe text into a draft. The raw model output
// is returned alongside for auditing, also on error when available.
type StructuringService interface {
	Structure(ctx context.Context, req StructureRequest) (RecipeDraft, []byte, error)
}
