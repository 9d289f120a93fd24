// Package export renders imported recipes as an XLSX review workbook.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/recipe-importer/constants"
	"github.com/joseph-ayodele/recipe-importer/internal/batch"
	"github.com/joseph-ayodele/recipe-importer/internal/recipe"
)

const (
	SheetRecipes     = "Recipes"
	SheetIngredients = "Ingredients"
	SheetFailures    = "Failures"

	redFill = "#F8CBAD"
)

var (
	recipeHeaders = []any{
		"Recipe", "Category", "Servings", "Total Cost", "Match Rate %", "Valid", "Source File", "Recipe ID",
	}
	ingredientHeaders = []any{
		"Recipe", "Ingredient", "Raw Text", "Mapped Product", "Badge", "Confidence",
		"Qty", "UOM", "Qty (oz)", "Price/oz", "Cost", "Estimate",
	}
	failureHeaders = []any{"Source File", "Error"}
)

// Service produces XLSX bytes for review.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// entry is one recipe row; valid is nil when validation was not run.
type entry struct {
	rec       *recipe.RecipeRecord
	matchRate float64
	valid     *bool
}

// RecipesXLSX writes one Recipes row per imported recipe and one Ingredients row
// per costed ingredient. Failed files are listed on a Failures sheet.
func (s *Service) RecipesXLSX(outcomes []batch.FileOutcome) ([]byte, error) {
	var entries []entry
	var failures [][]any
	for _, o := range outcomes {
		if o.Import == nil || o.Import.Recipe == nil {
			if !o.OK() {
				failures = append(failures, []any{o.Filename, o.Error})
			}
			continue
		}
		valid := o.Import.Validation.Valid
		entries = append(entries, entry{rec: o.Import.Recipe, matchRate: o.Import.MappingStats.MatchRate, valid: &valid})
		if !o.OK() {
			failures = append(failures, []any{o.Filename, o.Error})
		}
	}
	return s.write(entries, failures)
}

// StoredRecipesXLSX exports recipes read back from the repository.
func (s *Service) StoredRecipesXLSX(recs []*recipe.RecipeRecord) ([]byte, error) {
	entries := make([]entry, 0, len(recs))
	for _, r := range recs {
		if r == nil {
			continue
		}
		entries = append(entries, entry{rec: r, matchRate: recipe.ComputeStats(r.Ingredients).MatchRate})
	}
	return s.write(entries, nil)
}

func (s *Service) write(entries []entry, failures [][]any) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetRecipes); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetIngredients); err != nil {
		return nil, err
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	red, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{redFill}},
	})
	if err != nil {
		return nil, err
	}

	if err := writeRow(f, SheetRecipes, 1, recipeHeaders, header); err != nil {
		return nil, err
	}
	if err := writeRow(f, SheetIngredients, 1, ingredientHeaders, header); err != nil {
		return nil, err
	}

	ingRow := 2
	for i, e := range entries {
		r := e.rec
		valid := ""
		if e.valid != nil {
			valid = "no"
			if *e.valid {
				valid = "yes"
			}
		}
		row := []any{
			r.Name, r.Category, r.Servings, r.TotalCost, e.matchRate, valid, r.Source.Filename, r.ID.String(),
		}
		if err := writeRow(f, SheetRecipes, i+2, row, 0); err != nil {
			return nil, err
		}

		for _, ing := range r.Ingredients {
			mapped := ""
			if ing.MappedName != nil {
				mapped = *ing.MappedName
			}
			style := 0
			if ing.ConfidenceBadge == constants.BadgeRed {
				style = red
			}
			row := []any{
				r.Name, ing.IngredientName, ing.RawName, mapped, string(ing.ConfidenceBadge), ing.MappingConfidence,
				ing.Quantity, ing.UOM, ing.QuantityOz, ing.PricePerOz, ing.TotalCost, ing.Estimate,
			}
			if err := writeRow(f, SheetIngredients, ingRow, row, style); err != nil {
				return nil, err
			}
			ingRow++
		}
	}

	if len(failures) > 0 {
		if _, err := f.NewSheet(SheetFailures); err != nil {
			return nil, err
		}
		if err := writeRow(f, SheetFailures, 1, failureHeaders, header); err != nil {
			return nil, err
		}
		for i, row := range failures {
			if err := writeRow(f, SheetFailures, i+2, row, red); err != nil {
				return nil, err
			}
		}
		_ = f.SetColWidth(SheetFailures, "A", "A", 32)
		_ = f.SetColWidth(SheetFailures, "B", "B", 80)
	}

	_ = f.SetColWidth(SheetRecipes, "A", "A", 32)
	_ = f.SetColWidth(SheetRecipes, "B", "B", 16)
	_ = f.SetColWidth(SheetRecipes, "G", "G", 32)
	_ = f.SetColWidth(SheetRecipes, "H", "H", 38)
	_ = f.SetColWidth(SheetIngredients, "A", "D", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"recipes", len(entries),
		"ingredient_rows", ingRow-2,
		"failures", len(failures),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// writeRow sets values starting at column A; a non-zero style covers the whole row.
func writeRow(f *excelize.File, sheet string, row int, values []any, style int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, first, &values); err != nil {
		return err
	}
	if style == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(values), row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}
