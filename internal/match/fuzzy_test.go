package match

import (
	"math"
	"testing"
)

func TestProcess(t *testing.T) {
	tests := map[string]string{
		"  Chicken Breast, Boneless ": "chicken breast  boneless",
		"Half-&-Half":                 "half   half",
		"ÉCLAIR":                      "éclair",
		"!!!":                         "",
	}
	for in, want := range tests {
		if got := Process(in); got != want {
			t.Errorf("Process(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio("abc", "abc"); got != 100 {
		t.Errorf("identical = %v", got)
	}
	if got := Ratio("", ""); got != 100 {
		t.Errorf("empty = %v", got)
	}
	// one substitution = one delete + one insert: (8-2)/8
	if got := Ratio("abcd", "abce"); math.Abs(got-75) > 1e-9 {
		t.Errorf("abcd/abce = %v, want 75", got)
	}
}

func TestPartialRatio(t *testing.T) {
	if got := PartialRatio("onion", "yellow onion"); got != 100 {
		t.Errorf("substring = %v", got)
	}
	if got := PartialRatio("yellow onion", "onion"); got != 100 {
		t.Errorf("not symmetric: %v", got)
	}
	if got := PartialRatio("", "x"); got != 0 {
		t.Errorf("empty = %v", got)
	}
}

func TestTokenRatios(t *testing.T) {
	if got := TokenSortRatio("breast chicken", "chicken breast"); got != 100 {
		t.Errorf("token sort = %v", got)
	}
	if got := TokenSetRatio("chicken breast", "boneless chicken breast"); got != 100 {
		t.Errorf("token set subset = %v", got)
	}
	if got := TokenSetRatio("red onion", "white onion"); got >= 100 || got <= 0 {
		t.Errorf("token set partial overlap = %v", got)
	}
}

func TestWRatio(t *testing.T) {
	tests := []struct {
		a, b     string
		min, max float64
	}{
		{"yellow onion", "Yellow Onion", 100, 100},
		{"chicken breast", "Chicken Breast, Boneless", 90, 90},
		{"breast chicken", "chicken breast", 95, 95},
		{"saffron", "butter", 0, 40},
		{"", "butter", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			got := Score(tt.a, tt.b)
			if got < tt.min-1e-9 || got > tt.max+1e-9 {
				t.Fatalf("Score = %v, want in [%v, %v]", got, tt.min, tt.max)
			}
			if back := Score(tt.b, tt.a); math.Abs(back-got) > 1e-9 {
				t.Fatalf("not symmetric: %v vs %v", got, back)
			}
		})
	}
}

func TestExtractOne(t *testing.T) {
	products := []string{"Tomato Paste", "Roma Tomatoes", "Whole Milk", "Unsalted Butter"}

	r, ok := ExtractOne("tomatoes", products, 60)
	if !ok || r.Choice != "Roma Tomatoes" || r.Index != 1 {
		t.Fatalf("got %+v ok=%v", r, ok)
	}

	r, ok = ExtractOne("butter", products, 60)
	if !ok || r.Choice != "Unsalted Butter" {
		t.Fatalf("got %+v ok=%v", r, ok)
	}

	if r, ok := ExtractOne("saffron threads", products, 70); ok {
		t.Fatalf("unexpected match %+v", r)
	}
	if _, ok := ExtractOne("   ", products, 0); ok {
		t.Fatal("empty query matched")
	}
	if _, ok := ExtractOne("milk", nil, 0); ok {
		t.Fatal("empty choices matched")
	}
}

func TestExtractOne_TieGoesToFirst(t *testing.T) {
	r, ok := ExtractOne("salt", []string{"Salt", "SALT"}, 60)
	if !ok || r.Index != 0 {
		t.Fatalf("got %+v", r)
	}
}
