package catalog

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const productsCSV = "\ufeffProduct Name,Unit,Current Price per Unit,Cost per Oz,Category,Pack Size\n" +
	"All Purpose Flour,lb,\"$1,200.00\",,Dry Goods,50 lb\n" +
	"Whole Milk,gallon,4.50,0.035,Dairy,1 gal\n" +
	",oz,1.00,,,\n" +
	"Unsalted Butter,lb,not-a-price,,Dairy,\n"

func TestLoadCSV(t *testing.T) {
	c, err := LoadCSV(strings.NewReader(productsCSV))
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 3 {
		t.Fatalf("len = %d, want 3 (nameless row skipped)", c.Len())
	}
	want := []string{"All Purpose Flour", "Whole Milk", "Unsalted Butter"}
	for i, n := range c.Names() {
		if n != want[i] {
			t.Errorf("name[%d] = %q, want %q", i, n, want[i])
		}
	}

	flour := c.At(0)
	if flour.PricePerUnit != 1200 || flour.CostPerOz != nil || flour.Unit != "lb" || flour.PackSize != "50 lb" {
		t.Errorf("flour = %+v", flour)
	}
	milk, ok := c.Lookup("  whole MILK ")
	if !ok || milk.CostPerOz == nil || *milk.CostPerOz != 0.035 {
		t.Errorf("milk = %+v ok=%v", milk, ok)
	}
	if butter, _ := c.Lookup("Unsalted Butter"); butter.PricePerUnit != 0 {
		t.Errorf("unparsable price should be 0, got %v", butter.PricePerUnit)
	}
	if _, ok := c.Lookup("saffron"); ok {
		t.Error("unexpected lookup hit")
	}
}

func TestLoadCSV_NonFinitePrices(t *testing.T) {
	in := "Product Name,Unit,Current Price per Unit,Cost per Oz\nFlour,lb,nan,NaN\nSugar,lb,inf,\n"
	c, err := LoadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	flour, _ := c.Lookup("Flour")
	if flour.PricePerUnit != 0 || flour.CostPerOz != nil {
		t.Errorf("flour = %+v", flour)
	}
	if sugar, _ := c.Lookup("Sugar"); sugar.PricePerUnit != 0 {
		t.Errorf("sugar price = %v, want 0", sugar.PricePerUnit)
	}
}

func TestLoadCSV_NoNameColumn(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("Unit,Price\nlb,1\n"))
	if !errors.Is(err, ErrNoNameColumn) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]any{
		{"product", "uom", "price", "cost/oz", "sku"},
		{"Roma Tomatoes", "case", 24.0, 0.075, "T-100"},
		{"Yellow Onion", "lb", 0.89, nil, "O-7"},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}

	c, err := LoadXLSX(&buf, "")
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d", c.Len())
	}
	tom := c.At(0)
	if tom.SKU != "T-100" || tom.PricePerUnit != 24 || tom.CostPerOz == nil || *tom.CostPerOz != 0.075 {
		t.Errorf("tomatoes = %+v", tom)
	}
	if onion := c.At(1); onion.CostPerOz != nil || onion.PricePerUnit != 0.89 {
		t.Errorf("onion = %+v", onion)
	}
}

func TestNew_SkipsBlankAndKeepsFirstDuplicate(t *testing.T) {
	c := New([]Product{
		{Name: "Salt", PricePerUnit: 1},
		{Name: "  "},
		{Name: "salt", PricePerUnit: 2},
	})
	if c.Len() != 2 {
		t.Fatalf("len = %d", c.Len())
	}
	if p, _ := c.Lookup("SALT"); p.PricePerUnit != 1 {
		t.Fatalf("lookup = %+v", p)
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$1,234.50", 1234.5, true},
		{" 3 ", 3, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"-2", 0, false},
		{"nan", 0, false},
		{"NaN", 0, false},
		{"inf", 0, false},
		{"-Infinity", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseMoney(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseMoney(%q) = %v,%v", tt.in, got, ok)
		}
	}
}
