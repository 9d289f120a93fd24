// Package schema holds the structural contract for imported recipes and their
// ingredients. Validation never fails the import: it returns a list of issues that the
// caller reports next to the recipe.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/recipe-importer/constants"
	"github.com/joseph-ayodele/recipe-importer/internal/common"
)

const resourceURL = "recipe.json"

// Issue is one failed check, addressed by a path such as "ingredients[2].quantity".
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return i.Path + ": " + i.Message
}

// Report is the validator verdict handed to the reviewer.
type Report struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"errors"`
}

// Err is nil for a valid report, else an error matching common.ErrValidation that
// lists the issues.
func (r Report) Err() error {
	if r.Valid {
		return nil
	}
	msgs := make([]string, len(r.Issues))
	for i, is := range r.Issues {
		msgs[i] = is.String()
	}
	return common.NewAppError("VALIDATION_ERROR", strings.Join(msgs, "; "), common.ErrValidation)
}

// Validator checks encoded records against the compiled recipe and ingredient schemas.
// It is safe for concurrent use.
type Validator struct {
	recipe     *jsonschema.Schema
	ingredient *jsonschema.Schema
}

// New compiles the schemas. categories is the fixed category enumeration; when empty
// the package default list is used.
func New(categories []string) (*Validator, error) {
	if len(categories) == 0 {
		categories = constants.AsStringSlice()
	}
	raw, err := json.Marshal(BuildRecipeSchema(categories))
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	recipe, err := compiler.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("compile recipe schema: %w", err)
	}
	ingredient, err := compiler.Compile(resourceURL + "#/$defs/ingredient")
	if err != nil {
		return nil, fmt.Errorf("compile ingredient schema: %w", err)
	}
	return &Validator{recipe: recipe, ingredient: ingredient}, nil
}

// MustNew is New for the default category list; it panics on a broken schema.
func MustNew() *Validator {
	v, err := New(nil)
	if err != nil {
		panic(err)
	}
	return v
}

// Recipe validates any value that encodes to the recipe JSON shape.
func (v *Validator) Recipe(rec any) Report {
	return validate(v.recipe, rec)
}

// Ingredient validates a single costed ingredient.
func (v *Validator) Ingredient(ing any) Report {
	return validate(v.ingredient, ing)
}

func validate(s *jsonschema.Schema, value any) Report {
	raw, err := json.Marshal(value)
	if err != nil {
		return Report{Issues: []Issue{{Path: "$", Message: "cannot encode: " + err.Error()}}}
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return Report{Issues: []Issue{{Path: "$", Message: "cannot decode: " + err.Error()}}}
	}

	err = s.Validate(doc)
	if err == nil {
		return Report{Valid: true}
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return Report{Issues: []Issue{{Path: "$", Message: err.Error()}}}
	}

	var issues []Issue
	collect(ve, &issues)
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
	return Report{Issues: issues}
}

// collect keeps the leaf errors; inner nodes only say "doesn't validate with".
func collect(ve *jsonschema.ValidationError, out *[]Issue) {
	if len(ve.Causes) == 0 {
		*out = append(*out, Issue{Path: FieldPath(ve.InstanceLocation), Message: ve.Message})
		return
	}
	for _, c := range ve.Causes {
		collect(c, out)
	}
}

// FieldPath turns a JSON pointer ("/ingredients/0/uom") into "ingredients[0].uom". The
// document root is "$".
func FieldPath(pointer string) string {
	if pointer == "" || pointer == "/" {
		return "$"
	}
	var b strings.Builder
	for _, seg := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		seg = strings.NewReplacer("~1", "/", "~0", "~").Replace(seg)
		if _, err := strconv.Atoi(seg); err == nil {
			b.WriteString("[" + seg + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

// CoerceCategory maps a free-form category onto the fixed enumeration. ok is false
// when the label was replaced with Other.
func CoerceCategory(label string) (string, bool) {
	cat, ok := constants.Canonicalize(label)
	return string(cat), ok
}
