package recipe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/joseph-ayodele/recipe-importer/constants"
	"github.com/joseph-ayodele/recipe-importer/internal/catalog"
	"github.com/joseph-ayodele/recipe-importer/internal/llm"
	"github.com/joseph-ayodele/recipe-importer/internal/units"
)

type fakeStructurer struct {
	draft llm.RecipeDraft
	err   error
	got   llm.StructureRequest
}

func (f *fakeStructurer) Structure(_ context.Context, req llm.StructureRequest) (llm.RecipeDraft, []byte, error) {
	f.got = req
	return f.draft, nil, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(v float64) *float64 { return &v }

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Product{
		{Name: "Chicken Breast, Boneless", Unit: "lb", PricePerUnit: 3.20},
		{Name: "All Purpose Flour", Unit: "lb", PricePerUnit: 0.80},
		{Name: "Roma Tomatoes", Unit: "case", PricePerUnit: 24, CostPerOz: ptr(0.075)},
		{Name: "Whole Milk", Unit: "gallon", PricePerUnit: 4.50},
	})
}

func testDraft() llm.RecipeDraft {
	return llm.RecipeDraft{
		Name:      "Chicken Bake",
		Servings:  4,
		PrepTime:  15,
		CookTime:  40,
		Category:  "entree",
		YieldOz:   32,
		PortionOz: 8,
		Ingredients: []llm.DraftIngredient{
			{RawName: "2 1/2 lb chicken breast", Quantity: 2.5, UOM: "lb"},
			{RawName: "2 cups flour", Quantity: "2", UOM: "cups"},
			{RawName: "saffron", Quantity: nil, UOM: ""},
			{RawName: "1-2 tomatoes", Quantity: "1-2", UOM: "each"},
		},
		Instructions: []string{"Bake"},
	}
}

func TestProcessImport(t *testing.T) {
	fs := &fakeStructurer{draft: testDraft()}
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	imp := NewImporter(fs, quietLogger(), WithClock(func() time.Time { return when }), WithCreatedBy("tester"))

	src := Source{Filename: "bake.docx", FileType: constants.DOCX, FileHash: "abc"}
	res := imp.ProcessImport(context.Background(), "recipe text", testCatalog(), src, 70)
	if !res.OK() {
		t.Fatalf("status = %s: %s", res.Status, res.Error)
	}
	if fs.got.SourceFilename != "bake.docx" || len(fs.got.Categories) == 0 {
		t.Errorf("request = %+v", fs.got)
	}

	rec := res.Recipe
	if rec.Category != "Main Course" {
		t.Errorf("category = %q", rec.Category)
	}
	if rec.Audit.CreatedBy != "tester" || !rec.Audit.CreatedAt.Equal(when) {
		t.Errorf("audit = %+v", rec.Audit)
	}
	if rec.Allergens == nil {
		t.Error("allergens should be an empty list, not nil")
	}

	want := []struct {
		name     string
		qtyOz    float64
		estimate bool
		badge    constants.Badge
		mapped   string
		cost     float64
	}{
		{"chicken breast", 40, false, constants.BadgeGreen, "Chicken Breast, Boneless", 8.0},
		{"flour", 16, false, constants.BadgeGreen, "All Purpose Flour", 0.8},
		{"saffron", 8, true, constants.BadgeRed, "", 0},
		{"tomatoes", 12, true, constants.BadgeGreen, "Roma Tomatoes", 0.9},
	}
	if len(rec.Ingredients) != len(want) {
		t.Fatalf("ingredients = %d", len(rec.Ingredients))
	}
	sum := 0.0
	for k, w := range want {
		got := rec.Ingredients[k]
		if got.IngredientName != w.name || got.QuantityOz != w.qtyOz || got.Estimate != w.estimate {
			t.Errorf("[%d] normalized = %+v", k, got.NormalizedIngredient)
		}
		if got.ConfidenceBadge != w.badge {
			t.Errorf("[%d] badge = %s (score %v)", k, got.ConfidenceBadge, got.MappingConfidence)
		}
		if w.mapped == "" {
			if got.MappedName != nil || got.ProductInfo != nil {
				t.Errorf("[%d] red ingredient should not be mapped", k)
			}
		} else if got.MappedName == nil || *got.MappedName != w.mapped {
			t.Errorf("[%d] mapped = %v", k, got.MappedName)
		}
		if math.Abs(got.TotalCost-w.cost) > 1e-9 {
			t.Errorf("[%d] cost = %v, want %v", k, got.TotalCost, w.cost)
		}
		if got.TotalCost != units.Round(got.PricePerOz*got.QuantityOz, 2) {
			t.Errorf("[%d] total %v != round(%v * %v)", k, got.TotalCost, got.PricePerOz, got.QuantityOz)
		}
		sum += got.TotalCost
	}
	if math.Abs(rec.TotalCost-sum) > 1e-9 || math.Abs(rec.TotalCost-9.7) > 1e-9 {
		t.Errorf("total = %v, sum = %v", rec.TotalCost, sum)
	}

	st := res.MappingStats
	if st.Total != 4 || st.AutoMapped != 3 || st.WarnMapped != 0 || st.Unmapped != 1 || st.MatchRate != 75 {
		t.Errorf("stats = %+v", st)
	}
	if !res.Validation.Valid {
		t.Errorf("validation issues: %v", res.Validation.Issues)
	}
}

func TestProcessImport_CustomBandsGiveYellow(t *testing.T) {
	fs := &fakeStructurer{draft: testDraft()}
	imp := NewImporter(fs, quietLogger(), WithBands(Bands{Auto: 95, Warn: 70}))

	res := imp.ProcessImport(context.Background(), "text", testCatalog(), Source{Filename: "x.csv"}, 0)
	if !res.OK() {
		t.Fatal(res.Error)
	}
	flour := res.Recipe.Ingredients[1]
	if flour.ConfidenceBadge != constants.BadgeYellow || flour.MappedName == nil {
		t.Fatalf("flour = %+v", flour.MappedIngredient)
	}
	if res.MappingStats.WarnMapped == 0 {
		t.Errorf("stats = %+v", res.MappingStats)
	}
}

func TestProcessImport_StructuringFailure(t *testing.T) {
	fs := &fakeStructurer{err: errors.New("invalid JSON from model")}
	imp := NewImporter(fs, quietLogger())

	res := imp.ProcessImport(context.Background(), "text", testCatalog(), Source{Filename: "a.pdf"}, 70)
	if res.OK() || res.Recipe != nil || res.Error == "" {
		t.Fatalf("res = %+v", res)
	}
}

func TestProcessImport_EmptyText(t *testing.T) {
	imp := NewImporter(&fakeStructurer{draft: testDraft()}, quietLogger())
	if res := imp.ProcessImport(context.Background(), "  \n", testCatalog(), Source{}, 70); res.OK() {
		t.Fatal("empty text should fail")
	}
}

func TestProcessImport_NoIngredientsIsReportedNotFatal(t *testing.T) {
	d := testDraft()
	d.Ingredients = nil
	d.Category = "brunch"
	imp := NewImporter(&fakeStructurer{draft: d}, quietLogger())

	res := imp.ProcessImport(context.Background(), "text", testCatalog(), Source{}, 70)
	if !res.OK() {
		t.Fatal(res.Error)
	}
	if res.Validation.Valid {
		t.Error("recipe without ingredients should not validate")
	}
	if res.MappingStats.MatchRate != 0 || res.MappingStats.Total != 0 {
		t.Errorf("stats = %+v", res.MappingStats)
	}
	if res.Recipe.Category != "Other" || len(res.Warnings) == 0 {
		t.Errorf("category = %q warnings = %v", res.Recipe.Category, res.Warnings)
	}
}

func TestNormalizeIngredient(t *testing.T) {
	n := units.Default()
	tests := []struct {
		name  string
		in    llm.DraftIngredient
		want  NormalizedIngredient
		isErr bool
	}{
		{
			name: "free text line",
			in:   llm.DraftIngredient{RawName: "2 1/2 lb chicken breast"},
			want: NormalizedIngredient{RawName: "2 1/2 lb chicken breast", IngredientName: "chicken breast", Quantity: 2.5, UOM: "lb", QuantityOz: 40},
		},
		{
			name: "glyph string quantity",
			in:   llm.DraftIngredient{RawName: "sugar", Quantity: "½", UOM: "cup"},
			want: NormalizedIngredient{RawName: "sugar", IngredientName: "sugar", Quantity: 0.5, UOM: "cup", QuantityOz: 4},
		},
		{
			name: "unknown unit passes through",
			in:   llm.DraftIngredient{RawName: "basil", Quantity: 3.0, UOM: "sprigs"},
			want: NormalizedIngredient{RawName: "basil", IngredientName: "basil", Quantity: 3, UOM: "sprigs", QuantityOz: 3},
		},
		{
			name:  "unsupported quantity type",
			in:    llm.DraftIngredient{RawName: "salt", Quantity: true},
			isErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeIngredient(n, tt.in)
			if tt.isErr {
				if err == nil {
					t.Fatalf("want error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizeIngredients_Placeholder(t *testing.T) {
	drafts := []llm.DraftIngredient{
		{RawName: "1 cup milk", Quantity: 1.0, UOM: "cup"},
		{RawName: "mystery", Quantity: map[string]any{"x": 1}},
		{RawName: "2 eggs", Quantity: 2.0, UOM: "each"},
	}
	got, warnings := NormalizeIngredients(units.Default(), drafts, quietLogger())
	if len(got) != 3 || len(warnings) != 1 {
		t.Fatalf("got %d ingredients, %d warnings", len(got), len(warnings))
	}
	ph := got[1]
	if ph.Quantity != 1 || ph.UOM != "each" || ph.QuantityOz != 8 || !ph.Estimate || ph.RawName != "mystery" {
		t.Fatalf("placeholder = %+v", ph)
	}
	if got[2].IngredientName != "eggs" {
		t.Fatalf("eggs = %+v", got[2])
	}
}

func TestBands(t *testing.T) {
	b := DefaultBands()
	tests := []struct {
		score float64
		want  constants.Badge
	}{
		{95, constants.BadgeGreen},
		{90, constants.BadgeGreen},
		{75, constants.BadgeYellow},
		{70, constants.BadgeYellow},
		{50, constants.BadgeRed},
	}
	for _, tt := range tests {
		if got := b.Badge(tt.score); got != tt.want {
			t.Errorf("Badge(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestMapIngredient_BelowFloorIsRed(t *testing.T) {
	ni := NormalizedIngredient{RawName: "saffron", IngredientName: "saffron"}
	m := MapIngredient(ni, testCatalog(), 70, DefaultBands())
	if m.ConfidenceBadge != constants.BadgeRed || m.MappedName != nil || m.MappingConfidence != 0 {
		t.Fatalf("got %+v", m)
	}
	if m := MapIngredient(ni, catalog.New(nil), 70, DefaultBands()); m.ConfidenceBadge != constants.BadgeRed {
		t.Fatalf("empty catalog: %+v", m)
	}
}

func TestPricePerOz(t *testing.T) {
	tests := []struct {
		p    catalog.Product
		want float64
	}{
		{catalog.Product{Unit: "lb", PricePerUnit: 16}, 1},
		{catalog.Product{Unit: "LBS", PricePerUnit: 32}, 2},
		{catalog.Product{Unit: "oz", PricePerUnit: 0.3}, 0.3},
		{catalog.Product{Unit: "case", PricePerUnit: 40}, 5},
		{catalog.Product{Unit: "lb", PricePerUnit: 16, CostPerOz: ptr(0.42)}, 0.42},
		{catalog.Product{Unit: "lb", PricePerUnit: 16, CostPerOz: ptr(math.NaN())}, 1},
		{catalog.Product{Unit: "oz", PricePerUnit: math.Inf(1)}, 0},
		{catalog.Product{Unit: "lb", PricePerUnit: -4}, 0},
	}
	for _, tt := range tests {
		if got := PricePerOz(tt.p); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("PricePerOz(%+v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}
