package importlog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joseph-ayodele/recipe-importer/constants"
	"github.com/joseph-ayodele/recipe-importer/internal/extract"
	"github.com/joseph-ayodele/recipe-importer/internal/recipe"
	"github.com/joseph-ayodele/recipe-importer/internal/schema"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	l := New(filepath.Join(t.TempDir(), "logs", "imports.jsonl"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	tick := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return l
}

func TestRecent_NewestFirst(t *testing.T) {
	l := newTestLog(t)
	f := FileInfo{Name: "a.pdf", Hash: "h1", SizeBytes: 10, Type: "pdf"}
	l.Upload(f, "application/pdf")
	l.Extraction(f, extract.Result{Status: constants.StatusSuccess, FileType: constants.PDF, Text: "abc", TotalPages: 2, VisionPages: 1})
	l.Save(f, "Soup", true)

	events, err := l.Recent(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("len = %d", len(events))
	}
	if events[0].EventType != EventSave || events[2].EventType != EventUpload {
		t.Fatalf("order = %s..%s", events[0].EventType, events[2].EventType)
	}
	if events[1].Details["total_pages"] != float64(2) {
		t.Errorf("extract details = %v", events[1].Details)
	}

	two, _ := l.Recent(2)
	if len(two) != 2 || two[1].EventType != EventExtract {
		t.Fatalf("limit = %+v", two)
	}
}

func TestRecent_SkipsGarbageAndMissingFile(t *testing.T) {
	l := newTestLog(t)
	if events, err := l.Recent(10); err != nil || events != nil {
		t.Fatalf("missing file: %v %v", events, err)
	}
	l.Error(FileInfo{Name: "x.xlsm"}, "extraction", strings.Repeat("e", 900))
	f, err := os.OpenFile(l.Path(), os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString("{not json\n\n")
	_ = f.Close()
	l.Save(FileInfo{Name: "y.csv"}, "Salad", false)

	events, err := l.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("len = %d", len(events))
	}
	msg, _ := events[1].Details["error_message"].(string)
	if len(msg) != 500 || events[1].File.Type != "unknown" {
		t.Errorf("error event = %+v (msg len %d)", events[1].File, len(msg))
	}
}

func TestSummary(t *testing.T) {
	l := newTestLog(t)
	pdf := FileInfo{Name: "a.pdf", Hash: "h1", Type: "pdf"}
	csv := FileInfo{Name: "b.csv", Hash: "h2", Type: "csv"}
	bad := FileInfo{Name: "c.xlsm", Type: "unknown"}

	l.Upload(pdf, "")
	l.Routing(pdf, []extract.PageProvenance{
		{PageNumber: 1, Route: constants.RouteText, Confidence: extract.Confidence{IsConfident: true}},
		{PageNumber: 2, Route: constants.RouteVision},
		{PageNumber: 3, Route: constants.RouteVision},
	})
	l.Validation(pdf, schema.Report{Valid: true})
	l.Mapping(pdf, recipe.MappingStats{Total: 3, AutoMapped: 2, Unmapped: 1, MatchRate: 66.7})
	l.Save(pdf, "Soup", true)

	l.Upload(csv, "text/csv")
	l.Save(csv, "Salad", true)
	l.Upload(pdf, "") // re-upload of the same file

	l.Upload(bad, "") // no hash: not counted as an import
	l.Error(bad, "extraction", "File type .xlsm not allowed (contains macros)")

	s, err := l.Summary()
	if err != nil {
		t.Fatal(err)
	}
	if s.TotalImports != 3 || s.UniqueFiles != 2 || s.SuccessfulImports != 2 || s.FailedImports != 1 {
		t.Errorf("summary = %+v", s)
	}
	if s.ByFileType["pdf"] != 2 || s.ByFileType["csv"] != 1 {
		t.Errorf("by type = %v", s.ByFileType)
	}
	if s.TotalPagesProcessed != 3 || s.VisionPagesUsed != 2 {
		t.Errorf("pages = %d vision = %d", s.TotalPagesProcessed, s.VisionPagesUsed)
	}
	if s.SuccessRate != 66.7 {
		t.Errorf("success rate = %v", s.SuccessRate)
	}
}

func TestNilLogIsNoop(t *testing.T) {
	var l *Log
	l.Upload(FileInfo{Name: "a"}, "")
	if s, err := l.Summary(); err != nil || s.TotalImports != 0 {
		t.Fatalf("nil summary = %+v, %v", s, err)
	}
}
