package catalog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/recipe-importer/constants"
)

var ErrNoNameColumn = errors.New("catalog: no product name column")

type column int

const (
	colName column = iota
	colUnit
	colPrice
	colCostPerOz
	colCategory
	colPackSize
	colSKU
)

var headerAliases = map[column][]string{
	colName:      {"product name", "product", "name", "item name", "item"},
	colUnit:      {"unit", "uom", "unit of measure"},
	colPrice:     {"current price per unit", "price per unit", "unit price", "current price", "price"},
	colCostPerOz: {"cost per oz", "cost/oz", "price per oz", "cost_per_oz"},
	colCategory:  {"category"},
	colPackSize:  {"pack size", "pack"},
	colSKU:       {"sku", "item code", "item number"},
}

// LoadFile loads a catalog from a .csv, .xlsx or .xls file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	switch constants.ExtOf(path) {
	case "csv":
		return LoadCSV(bytes.NewReader(data))
	case "xlsx", "xls":
		return LoadXLSX(bytes.NewReader(data), "")
	default:
		return nil, fmt.Errorf("catalog: unsupported file %s", path)
	}
}

// LoadCSV reads a product table whose first non-empty row is the header.
func LoadCSV(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse catalog csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return fromRows(rows)
}

// LoadXLSX reads the named sheet, or the first sheet when sheet is empty.
func LoadXLSX(r io.Reader, sheet string) (*Catalog, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open catalog workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return New(nil), nil
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) (*Catalog, error) {
	h := -1
	for i, row := range rows {
		if !blankRow(row) {
			h = i
			break
		}
	}
	if h < 0 {
		return New(nil), nil
	}
	cols := mapHeader(rows[h])
	if _, ok := cols[colName]; !ok {
		return nil, ErrNoNameColumn
	}

	cell := func(row []string, c column) string {
		i, ok := cols[c]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var products []Product
	for _, row := range rows[h+1:] {
		name := cell(row, colName)
		if name == "" {
			continue
		}
		p := Product{
			Name:     name,
			Unit:     cell(row, colUnit),
			Category: cell(row, colCategory),
			PackSize: cell(row, colPackSize),
			SKU:      cell(row, colSKU),
		}
		p.PricePerUnit, _ = ParseMoney(cell(row, colPrice))
		if v, ok := ParseMoney(cell(row, colCostPerOz)); ok {
			p.CostPerOz = &v
		}
		products = append(products, p)
	}
	return New(products), nil
}

func mapHeader(header []string) map[column]int {
	cols := make(map[column]int)
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for c, aliases := range headerAliases {
			if _, taken := cols[c]; taken {
				continue
			}
			for _, a := range aliases {
				if h == a {
					cols[c] = i
					break
				}
			}
		}
	}
	return cols
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseMoney parses "$1,234.50" style values. ok is false for blank, negative,
// non-finite ("nan", "inf") or unparsable input.
func ParseMoney(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
