package recipe

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/recipe-importer/constants"
	"github.com/joseph-ayodele/recipe-importer/internal/catalog"
	"github.com/joseph-ayodele/recipe-importer/internal/extract"
	"github.com/joseph-ayodele/recipe-importer/internal/schema"
)

// NormalizedIngredient is a draft ingredient with its quantity resolved to a canonical
// unit and ounces. Estimate marks quantities taken from a range or a placeholder.
type NormalizedIngredient struct {
	RawName        string  `json:"raw_name"`
	IngredientName string  `json:"ingredient_name"`
	Quantity       float64 `json:"quantity"`
	UOM            string  `json:"uom"`
	QuantityOz     float64 `json:"quantity_oz"`
	Estimate       bool    `json:"estimate"`
}

// MappedIngredient adds the catalog match. MappedName and ProductInfo are set only
// for green and yellow badges.
type MappedIngredient struct {
	NormalizedIngredient
	MappedName        *string          `json:"mapped_name"`
	MappingConfidence float64          `json:"mapping_confidence"`
	ConfidenceBadge   constants.Badge  `json:"confidence_badge"`
	ProductInfo       *catalog.Product `json:"product_info"`
}

// Mapped reports whether the ingredient was matched to a product.
func (m MappedIngredient) Mapped() bool {
	return m.MappedName != nil
}

type CostedIngredient struct {
	MappedIngredient
	PricePerOz float64 `json:"price_per_oz"`
	TotalCost  float64 `json:"total_cost"`
}

// Source describes the file a recipe was imported from.
type Source struct {
	Filename    string                   `json:"filename"`
	FileType    constants.FileType       `json:"file_type"`
	FileHash    string                   `json:"file_hash"`
	FileSize    int                      `json:"file_size"`
	Pages       []extract.PageProvenance `json:"pages,omitempty"`
	TotalPages  int                      `json:"total_pages,omitempty"`
	VisionPages int                      `json:"vision_pages,omitempty"`
}

// SourceFromExtraction copies the provenance fields of an extraction result.
func SourceFromExtraction(r extract.Result) Source {
	return Source{
		Filename:    r.Filename,
		FileType:    r.FileType,
		FileHash:    r.FileHash,
		FileSize:    r.FileSize,
		Pages:       r.Pages,
		TotalPages:  r.TotalPages,
		VisionPages: r.VisionPages,
	}
}

type Audit struct {
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// RecipeRecord is the imported recipe handed to persistence. TotalCost is the sum of
// the ingredient costs.
type RecipeRecord struct {
	ID           uuid.UUID          `json:"recipe_id"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Servings     int                `json:"servings"`
	PrepTime     int                `json:"prep_time"`
	CookTime     int                `json:"cook_time"`
	Category     string             `json:"category"`
	YieldOz      float64            `json:"yield_oz"`
	PortionOz    float64            `json:"portion_oz"`
	Ingredients  []CostedIngredient `json:"ingredients"`
	Instructions []string           `json:"instructions"`
	Allergens    []string           `json:"allergens"`
	TotalCost    float64            `json:"total_cost"`
	Source       Source             `json:"source"`
	Audit        Audit              `json:"audit"`
}

type MappingStats struct {
	Total      int     `json:"total"`
	AutoMapped int     `json:"auto_mapped"`
	WarnMapped int     `json:"warn_mapped"`
	Unmapped   int     `json:"unmapped"`
	MatchRate  float64 `json:"match_rate"`
}

// ImportResult is the outcome of one ProcessImport call. On error Recipe is nil and
// Error says which stage failed.
type ImportResult struct {
	Status       constants.Status `json:"status"`
	Recipe       *RecipeRecord    `json:"recipe,omitempty"`
	Validation   schema.Report    `json:"validation"`
	MappingStats MappingStats     `json:"mapping_stats"`
	Warnings     []string         `json:"warnings,omitempty"`
	Error        string           `json:"error,omitempty"`
}

func (r ImportResult) OK() bool { return r.Status == constants.StatusSuccess }

func importError(msg string) ImportResult {
	return ImportResult{Status: constants.StatusError, Error: msg}
}
