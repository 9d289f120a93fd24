package llm

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/joseph-ayodele/recipe-importer/internal/common"
)

func TestStripCodeFences(t *testing.T) {
	tests := map[string]string{
		"```json\n{\"a\":1}\n```":          `{"a":1}`,
		"```JSON{\"a\":1}```":              `{"a":1}`,
		"```\n{\"a\":1}\n```":              `{"a":1}`,
		`{"a":1}`:                          `{"a":1}`,
		"Here you go:\n{\"a\":1}\nEnjoy!": `{"a":1}`,
	}
	for in, want := range tests {
		if got := StripCodeFences(in); got != want {
			t.Errorf("StripCodeFences(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseDraft_Defaults(t *testing.T) {
	raw := "```json\n" + `{"name":" Tomato Soup ","ingredients":[{"raw_name":"2 cups tomatoes","quantity":2,"uom":"cup"}]}` + "\n```"

	d, changes, err := ParseDraft([]byte(raw))
	if err != nil {
		t.Fatalf("ParseDraft: %v", err)
	}
	if d.Name != "Tomato Soup" || d.Servings != 4 || d.PrepTime != 0 || d.CookTime != 0 || d.Category != "Other" {
		t.Fatalf("defaults not applied: %+v", d)
	}
	if d.YieldOz != 32 || d.PortionOz != 8 {
		t.Fatalf("yield/portion = %v/%v, want 32/8", d.YieldOz, d.PortionOz)
	}
	if d.Instructions == nil || d.Allergens == nil || len(d.Instructions) != 0 {
		t.Fatalf("lists should be empty, not nil: %+v", d)
	}
	if len(d.Ingredients) != 1 || d.Ingredients[0].Quantity != 2.0 || d.Ingredients[0].UOM != "cup" {
		t.Fatalf("ingredients = %+v", d.Ingredients)
	}
	if len(changes) == 0 {
		t.Fatal("expected sanitize changes to be reported")
	}
}

func TestParseDraft_PortionFromGivenYield(t *testing.T) {
	raw := `{"name":"Stock","servings":"10 portions","yield_oz":120,"ingredients":[]}`
	d, _, err := ParseDraft([]byte(raw))
	if err != nil {
		t.Fatalf("ParseDraft: %v", err)
	}
	if d.Servings != 10 || d.PortionOz != 12 {
		t.Fatalf("servings=%d portion=%v", d.Servings, d.PortionOz)
	}
}

func TestParseDraft_Coercions(t *testing.T) {
	raw := `{
		"name": "Pancakes",
		"servings": 6.0,
		"prep_time": "15 minutes",
		"ingredients": [
			"3 eggs",
			{"raw_name": "1-2 cups milk", "quantity": "1-2", "uom": null},
			{"raw_name": "flour", "quantity": {"value": 2}},
			""
		],
		"instructions": "Mix and fry.",
		"allergens": ["eggs", 7, ""]
	}`
	d, _, err := ParseDraft([]byte(raw))
	if err != nil {
		t.Fatalf("ParseDraft: %v", err)
	}
	if d.Servings != 6 || d.PrepTime != 15 {
		t.Fatalf("servings=%d prep=%d", d.Servings, d.PrepTime)
	}
	if len(d.Ingredients) != 3 {
		t.Fatalf("ingredients = %+v", d.Ingredients)
	}
	if d.Ingredients[0].RawName != "3 eggs" || d.Ingredients[0].Quantity != nil {
		t.Errorf("text ingredient = %+v", d.Ingredients[0])
	}
	if d.Ingredients[1].Quantity != "1-2" || d.Ingredients[1].UOM != "" {
		t.Errorf("range ingredient = %+v", d.Ingredients[1])
	}
	if q, ok := d.Ingredients[2].Quantity.(string); !ok || !strings.Contains(q, "value") {
		t.Errorf("object quantity not stringified: %#v", d.Ingredients[2].Quantity)
	}
	if len(d.Instructions) != 1 || d.Instructions[0] != "Mix and fry." {
		t.Errorf("instructions = %v", d.Instructions)
	}
	if len(d.Allergens) != 2 || d.Allergens[1] != "7" {
		t.Errorf("allergens = %v", d.Allergens)
	}
}

func TestParseDraft_Errors(t *testing.T) {
	tests := []struct {
		name, raw, want string
	}{
		{"not json", "Sorry, I can't help with that.", "invalid JSON"},
		{"missing name", `{"ingredients":[]}`, "Missing required field: name"},
		{"missing ingredients", `{"name":"x"}`, "Missing required field: ingredients"},
		{"null ingredients", `{"name":"x","ingredients":null}`, "Missing required field: ingredients"},
		{"ingredients not a list", `{"name":"x","ingredients":"flour"}`, "must be a list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseDraft([]byte(tt.raw))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
			if !errors.Is(err, common.ErrStructuring) {
				t.Fatalf("err should wrap ErrStructuring: %v", err)
			}
		})
	}
}

func TestParseDraft_EmptyNamePasses(t *testing.T) {
	d, _, err := ParseDraft([]byte(`{"name":"  ","ingredients":[{"raw_name":"1 cup flour"}]}`))
	if err != nil {
		t.Fatalf("empty name should be left to recipe validation: %v", err)
	}
	if d.Name != "" || len(d.Ingredients) != 1 {
		t.Errorf("draft = %+v", d)
	}
}

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"abc", 5, "abc"},
		{"abc", 2, "ab"},
		{"1½ cups", 2, "1"}, // ½ is two bytes
		{"1½ cups", 3, "1½"},
		{"crème", 3, "cr"},
	}
	for _, tt := range tests {
		got := truncateUTF8(tt.in, tt.n)
		if got != tt.want || !utf8.ValidString(got) {
			t.Errorf("truncateUTF8(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestBuildUserPrompt_TruncatesOnRuneBoundary(t *testing.T) {
	text := strings.Repeat("a", maxPromptChars-1) + "½ cup sugar"
	p := BuildUserPrompt(text, "")
	if !utf8.ValidString(p) {
		t.Fatal("prompt is not valid UTF-8")
	}
	if strings.Contains(p, "½") {
		t.Error("rune straddling the cap should be dropped")
	}
}
