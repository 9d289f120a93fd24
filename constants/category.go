package constants

import (
	"strings"
)

type Category string

const (
	MainCourse Category = "Main Course"
	Appetizer  Category = "Appetizer"
	Dessert    Category = "Dessert"
	Soup       Category = "Soup"
	Salad      Category = "Salad"
	SideDish   Category = "Side Dish"
	Beverage   Category = "Beverage"
	Sauce      Category = "Sauce"
	Dressing   Category = "Dressing"
	Marinade   Category = "Marinade"
	PrepRecipe Category = "Prep Recipe"
	Bar        Category = "Bar"
	Other      Category = "Other"
)

var allCategories = []Category{
	MainCourse,
	Appetizer,
	Dessert,
	Soup,
	Salad,
	SideDish,
	Beverage,
	Sauce,
	Dressing,
	Marinade,
	PrepRecipe,
	Bar,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize resolves a free-form label to one of the fixed categories.
// The bool is false when the label had to be coerced to Other.
func Canonicalize(input string) (Category, bool) {
	if strings.TrimSpace(input) == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]Category{
		"main":       MainCourse,
		"entree":     MainCourse,
		"entrée":     MainCourse,
		"starter":    Appetizer,
		"side":       SideDish,
		"drink":      Beverage,
		"cocktail":   Bar,
		"prep":       PrepRecipe,
		"sub-recipe": PrepRecipe,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Other, false
}
