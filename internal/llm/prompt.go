package llm

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// maxPromptChars caps the recipe text sent for structuring.
const maxPromptChars = 60000

// BuildSystemPrompt is the fixed instruction for recipe structuring.
func BuildSystemPrompt(categories []string) string {
	parts := []string{
		"You are a professional recipe parser for restaurant operations.",
		"Extract the recipe from the provided text and return ONLY a JSON object, no markdown and no code fences.",
		"Parse ALL ingredients with their quantities and units, keeping the original wording in raw_name.",
		"Estimate yield_oz (total recipe yield in ounces) and portion_oz (one serving in ounces) when not stated.",
		"Split instructions into clear ordered steps.",
		"List allergens present in the ingredients (gluten, dairy, eggs, soy, nuts, shellfish, fish, sesame).",
		"Use realistic restaurant-scale quantities.",
	}
	if len(categories) > 0 {
		parts = append(parts, "category MUST be exactly one of: "+strings.Join(categories, ", ")+". If uncertain, use 'Other'.")
	}
	return strings.Join(parts, " ")
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// BuildUserPrompt wraps the extracted text with the expected output shape.
func BuildUserPrompt(text, filename string) string {
	text = truncateUTF8(text, maxPromptChars)
	var b strings.Builder
	if filename != "" {
		b.WriteString("Source file: ")
		b.WriteString(filename)
		b.WriteString("\n\n")
	}
	b.WriteString("Parse this recipe and return structured JSON:\n\n")
	b.WriteString(text)
	b.WriteString("\n\nReturn JSON in this shape:\n")
	b.WriteString(exampleDraft)
	b.WriteString("\n\nPreserve exact quantities and units from the source. ")
	b.WriteString("If yield_oz or portion_oz are not given, estimate them from servings and typical portion sizes.")
	return b.String()
}

const exampleDraft = `{
  "name": "Recipe Name",
  "description": "Brief description",
  "servings": 4,
  "prep_time": 30,
  "cook_time": 45,
  "category": "Main Course",
  "yield_oz": 64.0,
  "portion_oz": 16.0,
  "ingredients": [
    {"raw_name": "2 cups flour", "quantity": 2.0, "uom": "cup"},
    {"raw_name": "1 lb chicken", "quantity": 1.0, "uom": "lb"}
  ],
  "instructions": ["Step 1: ...", "Step 2: ..."],
  "allergens": ["gluten", "dairy"]
}`

// VisionPrompt asks for a faithful transcription of a recipe image.
func VisionPrompt(hint string) string {
	p := "Extract all text from this recipe image. Focus on the recipe name, " +
		"ingredients with quantities and units, instructions, and yield or servings. " +
		"Return the text in a readable format and preserve quantities, units and ingredient names exactly as shown."
	if hint = strings.TrimSpace(hint); hint != "" {
		return hint + "\n\n" + p
	}
	return p
}

func MustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
