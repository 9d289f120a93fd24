// Package recipe turns extracted recipe text into a costed, validated RecipeRecord:
// structure with the language model, normalize quantities, map ingredients onto the
// product catalog, cost them and validate the result.
package recipe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/recipe-importer/constants"
	"github.com/joseph-ayodele/recipe-importer/internal/catalog"
	"github.com/joseph-ayodele/recipe-importer/internal/common"
	"github.com/joseph-ayodele/recipe-importer/internal/llm"
	"github.com/joseph-ayodele/recipe-importer/internal/schema"
	"github.com/joseph-ayodele/recipe-importer/internal/units"
)

const defaultCreatedBy = "recipe_importer"

// Importer runs the parse/map/cost pipeline for one file at a time. It keeps no
// per-import state and is safe to share across goroutines.
type Importer struct {
	structurer llm.StructuringService
	units      *units.Normalizer
	validator  *schema.Validator
	bands      Bands
	categories []string
	createdBy  string
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Importer)

func WithBands(b Bands) Option { return func(i *Importer) { i.bands = b } }

func WithNormalizer(n *units.Normalizer) Option { return func(i *Importer) { i.units = n } }

func WithValidator(v *schema.Validator) Option { return func(i *Importer) { i.validator = v } }

func WithCreatedBy(name string) Option { return func(i *Importer) { i.createdBy = name } }

// WithClock overrides the audit timestamp source.
func WithClock(now func() time.Time) Option { return func(i *Importer) { i.now = now } }

func NewImporter(structurer llm.StructuringService, logger *slog.Logger, opts ...Option) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	imp := &Importer{
		structurer: structurer,
		units:      units.Default(),
		bands:      DefaultBands(),
		categories: constants.AsStringSlice(),
		createdBy:  defaultCreatedBy,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(imp)
	}
	if imp.validator == nil {
		imp.validator = schema.MustNew()
	}
	return imp
}

// ProcessImport structures text into a recipe and maps it onto cat. threshold is the
// fuzzy-search floor (0 means DefaultMatchThreshold); badge tiers come from the
// importer's Bands. Failures come back as Status=error, never as a Go error.
func (i *Importer) ProcessImport(ctx context.Context, text string, cat *catalog.Catalog, src Source, threshold int) ImportResult {
	start := time.Now()
	if common.FilenameFromContext(ctx) == "" && src.Filename != "" {
		ctx = common.WithFilename(ctx, src.Filename)
	}
	log := common.LoggerFrom(ctx, i.logger)
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}

	if strings.TrimSpace(text) == "" {
		log.Warn("importer.empty_text")
		return importError("No text extracted to parse")
	}
	if i.structurer == nil {
		return importError("Failed to parse recipe: no structuring service configured")
	}

	draft, _, err := i.structurer.Structure(ctx, llm.StructureRequest{
		Text:           text,
		SourceFilename: src.Filename,
		Categories:     i.categories,
	})
	if err != nil {
		log.Error("importer.structure.failed", "error", err)
		return importError(fmt.Sprintf("Failed to parse recipe: %v", err))
	}
	log.Debug("importer.structure.ok", "name", draft.Name, "ingredients", len(draft.Ingredients))

	var warnings []string

	normalized, w := NormalizeIngredients(i.units, draft.Ingredients, log)
	warnings = append(warnings, w...)

	mapped := make([]MappedIngredient, len(normalized))
	for k, ni := range normalized {
		mapped[k] = MapIngredient(ni, cat, float64(threshold), i.bands)
	}
	costed, total := CostIngredients(mapped)
	stats := ComputeStats(costed)
	log.Info("importer.map.done",
		"total", stats.Total,
		"auto", stats.AutoMapped,
		"warn", stats.WarnMapped,
		"unmapped", stats.Unmapped,
		"match_rate", stats.MatchRate,
	)

	category, ok := schema.CoerceCategory(draft.Category)
	if !ok && draft.Category != "" {
		warnings = append(warnings, fmt.Sprintf("category %q is not recognized; using %s", draft.Category, category))
	}

	rec := &RecipeRecord{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(draft.Name),
		Description:  draft.Description,
		Servings:     draft.Servings,
		PrepTime:     draft.PrepTime,
		CookTime:     draft.CookTime,
		Category:     category,
		YieldOz:      draft.YieldOz,
		PortionOz:    draft.PortionOz,
		Ingredients:  costed,
		Instructions: nonNil(draft.Instructions),
		Allergens:    nonNil(draft.Allergens),
		TotalCost:    total,
		Source:       src,
		Audit:        Audit{CreatedBy: i.createdBy, CreatedAt: i.now().UTC()},
	}

	report := i.validator.Recipe(rec)
	if !report.Valid {
		log.Warn("importer.validate.issues", "count", len(report.Issues), "error", report.Err())
	}

	log.Info("importer.done",
		"recipe_id", rec.ID,
		"total_cost", rec.TotalCost,
		"valid", report.Valid,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return ImportResult{
		Status:       constants.StatusSuccess,
		Recipe:       rec,
		Validation:   report,
		MappingStats: stats,
		Warnings:     warnings,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
