package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/recipe-importer/internal/common"
)

const (
	defaultServings      = 4
	defaultCategory      = "Other"
	defaultOuncesPerServ = 8.0
)

var reFirstInt = regexp.MustCompile(`\d+`)

// StripCodeFences removes a Markdown code fence around a JSON payload and any prose
// before the first '{' or after the last '}'.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 7 && strings.EqualFold(s[:7], "```json") {
		s = s[7:]
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	s = strings.TrimSpace(s)

	if !strings.HasPrefix(s, "{") {
		if i := strings.Index(s, "{"); i >= 0 {
			s = s[i:]
		}
	}
	if !strings.HasSuffix(s, "}") {
		if i := strings.LastIndex(s, "}"); i >= 0 {
			s = s[:i+1]
		}
	}
	return s
}

// ParseDraft decodes model output into a RecipeDraft. Model output is untrusted: the
// only hard requirements are valid JSON with "name" and "ingredients"; everything
// else is defaulted or coerced, and each such change is reported.
func ParseDraft(content []byte) (RecipeDraft, []string, error) {
	cleaned := StripCodeFences(string(content))

	var m map[string]any
	if err := json.Unmarshal([]byte(cleaned), &m); err != nil {
		return RecipeDraft{}, nil, common.StructuringError("invalid JSON from model", err)
	}
	for _, f := range []string{"name", "ingredients"} {
		if v, ok := m[f]; !ok || v == nil {
			return RecipeDraft{}, nil, common.StructuringError("Missing required field: "+f, nil)
		}
	}

	changes, err := sanitizeDraft(m)
	if err != nil {
		return RecipeDraft{}, changes, err
	}

	out, err := json.Marshal(m)
	if err != nil {
		return RecipeDraft{}, changes, common.StructuringError("re-encode draft", err)
	}
	if err := ValidateJSONAgainstSchema(BuildRecipeDraftSchema(), out); err != nil {
		return RecipeDraft{}, changes, common.StructuringError("draft does not match schema", err)
	}

	var d RecipeDraft
	if err := json.Unmarshal(out, &d); err != nil {
		return RecipeDraft{}, changes, common.StructuringError("decode draft", err)
	}
	return d, changes, nil
}

// sanitizeDraft applies defaults and type coercions in place.
func sanitizeDraft(m map[string]any) ([]string, error) {
	var changes []string
	note := func(s string) { changes = append(changes, s) }

	name := strings.TrimSpace(asString(m["name"]))
	if _, isStr := m["name"].(string); !isStr {
		note("name(coerced)")
	}
	m["name"] = name

	ings, ok := m["ingredients"].([]any)
	if !ok {
		return changes, common.StructuringError("ingredients must be a list", nil)
	}
	m["ingredients"] = sanitizeIngredients(ings, note)

	if s, ok := m["description"].(string); ok {
		m["description"] = strings.TrimSpace(s)
	} else {
		if _, present := m["description"]; present {
			note("description(coerced)")
		}
		m["description"] = asString(m["description"])
	}

	cat := strings.TrimSpace(asString(m["category"]))
	if cat == "" {
		cat = defaultCategory
		note("category(default)")
	}
	m["category"] = cat

	servings, ok := asInt(m["servings"])
	if !ok {
		servings = defaultServings
		note("servings(default)")
	}
	m["servings"] = servings

	for _, k := range []string{"prep_time", "cook_time"} {
		v, ok := asInt(m[k])
		if !ok {
			v = 0
			note(k + "(default)")
		}
		m[k] = v
	}

	yield, ok := asFloat(m["yield_oz"])
	if !ok {
		yield = float64(servings) * defaultOuncesPerServ
		note("yield_oz(estimated)")
	}
	m["yield_oz"] = yield

	portion, ok := asFloat(m["portion_oz"])
	if !ok {
		portion = yield
		if servings > 0 {
			portion = yield / float64(servings)
		}
		note("portion_oz(estimated)")
	}
	m["portion_oz"] = portion

	for _, k := range []string{"instructions", "allergens"} {
		list, changed := asStringList(m[k])
		if changed {
			note(k + "(coerced)")
		}
		m[k] = list
	}
	return changes, nil
}

func sanitizeIngredients(in []any, note func(string)) []any {
	out := make([]any, 0, len(in))
	for i, el := range in {
		obj, ok := el.(map[string]any)
		if !ok {
			s := strings.TrimSpace(asString(el))
			if s == "" {
				note(fmt.Sprintf("ingredients[%d](dropped)", i))
				continue
			}
			note(fmt.Sprintf("ingredients[%d](from text)", i))
			out = append(out, map[string]any{"raw_name": s, "quantity": nil, "uom": ""})
			continue
		}
		ing := map[string]any{
			"raw_name": strings.TrimSpace(asString(obj["raw_name"])),
			"uom":      strings.TrimSpace(asString(obj["uom"])),
		}
		switch q := obj["quantity"].(type) {
		case nil, float64, string:
			ing["quantity"] = q
		default:
			ing["quantity"] = asString(q)
			note(fmt.Sprintf("ingredients[%d].quantity(coerced)", i))
		}
		out = append(out, ing)
	}
	return out
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(math.Round(t)), true
	case string:
		if m := reFirstInt.FindString(t); m != "" {
			n, err := strconv.Atoi(m)
			return n, err == nil
		}
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// asStringList returns v as a list of non-empty strings; changed is set when the
// input was anything other than a list of strings.
func asStringList(v any) ([]string, bool) {
	switch t := v.(type) {
	case nil:
		return []string{}, true
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}, true
		}
		return []string{}, true
	case []any:
		out := make([]string, 0, len(t))
		changed := false
		for _, el := range t {
			s, ok := el.(string)
			if !ok {
				changed = true
				s = asString(el)
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, changed
	}
	return []string{}, true
}
