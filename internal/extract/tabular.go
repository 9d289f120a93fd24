package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Column roles recognized in recipe spreadsheets, with the header names that map to
// each. The first matching name wins.
var headerSynonyms = []struct {
	role  string
	names []string
}{
	{"ingredient", []string{"ingredient", "ingredients", "item", "product", "name"}},
	{"quantity", []string{"quantity", "qty", "amount", "measure"}},
	{"uom", []string{"uom", "unit", "units", "measurement"}},
	{"instruction", []string{"instruction", "instructions", "step", "steps", "directions"}},
}

// table is one sheet of cells. The first non-empty row is the header.
type table struct {
	header []string
	rows   [][]string
}

func newTable(records [][]string) table {
	var t table
	for i, rec := range records {
		if rowEmpty(rec) {
			continue
		}
		t.header = rec
		t.rows = records[i+1:]
		break
	}
	return t
}

func rowEmpty(rec []string) bool {
	for _, c := range rec {
		if cellValue(c) != "" {
			return false
		}
	}
	return true
}

// cellValue trims a cell and treats spreadsheet null spellings as empty.
func cellValue(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "nan", "none", "null":
		return ""
	}
	return s
}

func cellAt(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return cellValue(rec[idx])
}

// mapColumns returns role -> column index for every recognized header.
func (t table) mapColumns() map[string]int {
	lower := make(map[string]int, len(t.header))
	for i, h := range t.header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := lower[key]; !dup {
			lower[key] = i
		}
	}
	mapped := make(map[string]int)
	for _, hs := range headerSynonyms {
		for _, name := range hs.names {
			if idx, ok := lower[name]; ok {
				mapped[hs.role] = idx
				break
			}
		}
	}
	return mapped
}

// lines renders the table as text. With an ingredient column each row becomes
// "<qty> <uom> <ingredient>"; otherwise each row is its non-empty cells space-joined.
func (t table) lines(mapped map[string]int) []string {
	var out []string
	ingCol, structured := mapped["ingredient"]
	if !structured {
		for _, rec := range t.rows {
			var cells []string
			for _, c := range rec {
				if v := cellValue(c); v != "" {
					cells = append(cells, v)
				}
			}
			if len(cells) > 0 {
				out = append(out, strings.Join(cells, " "))
			}
		}
		return out
	}

	qtyCol, hasQty := mapped["quantity"]
	uomCol, hasUOM := mapped["uom"]
	out = append(out, "INGREDIENTS:")
	for _, rec := range t.rows {
		ing := cellAt(rec, ingCol)
		if ing == "" {
			continue
		}
		parts := make([]string, 0, 3)
		if hasQty {
			if q := cellAt(rec, qtyCol); q != "" {
				parts = append(parts, q)
			}
		}
		if hasUOM {
			if u := cellAt(rec, uomCol); u != "" {
				parts = append(parts, u)
			}
		}
		out = append(out, strings.Join(append(parts, ing), " "))
	}

	if instCol, ok := mapped["instruction"]; ok {
		var steps []string
		for _, rec := range t.rows {
			if s := cellAt(rec, instCol); s != "" {
				steps = append(steps, s)
			}
		}
		if len(steps) > 0 {
			out = append(out, "INSTRUCTIONS:")
			out = append(out, steps...)
		}
	}
	return out
}

func columnNames(t table, mapped map[string]int) map[string]string {
	names := make(map[string]string, len(mapped))
	for role, idx := range mapped {
		names[role] = strings.TrimSpace(t.header[idx])
	}
	return names
}

func csvText(data []byte) (string, map[string]any, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return "", nil, fmt.Errorf("read csv: %w", err)
	}
	t := newTable(records)
	if t.header == nil {
		return "", nil, errors.New("read csv: no rows")
	}
	mapped := t.mapColumns()
	meta := map[string]any{
		"structured":     len(mapped) > 0,
		"row_count":      len(t.rows),
		"columns":        t.header,
		"mapped_columns": columnNames(t, mapped),
	}
	return strings.Join(t.lines(mapped), "\n"), meta, nil
}

// xlsxText renders every sheet under a "=== SHEET: name ===" line.
func xlsxText(data []byte) (string, map[string]any, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	var parts []string
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		parts = append(parts, fmt.Sprintf("\n=== SHEET: %s ===\n", sheet))
		t := newTable(rows)
		if t.header == nil {
			continue
		}
		parts = append(parts, t.lines(t.mapColumns())...)
	}
	meta := map[string]any{
		"sheet_count": len(sheets),
		"sheets":      sheets,
	}
	return strings.Join(parts, "\n"), meta, nil
}
