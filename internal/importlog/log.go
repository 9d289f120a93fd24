// Package importlog keeps an append-only JSONL audit trail of recipe imports. A
// failed write is logged and dropped; it never fails the import.
package importlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joseph-ayodele/recipe-importer/constants"
	"github.com/joseph-ayodele/recipe-importer/internal/extract"
	"github.com/joseph-ayodele/recipe-importer/internal/recipe"
	"github.com/joseph-ayodele/recipe-importer/internal/schema"
)

type EventType string

const (
	EventUpload   EventType = "upload"
	EventExtract  EventType = "extract"
	EventRoute    EventType = "route"
	EventParse    EventType = "parse"
	EventValidate EventType = "validate"
	EventMap      EventType = "map"
	EventSave     EventType = "save"
	EventError    EventType = "error"
)

const (
	maxErrorMessage  = 500
	maxLoggedIssues  = 5
	summaryWindow    = 1000
	unknownFileField = "unknown"
)

type FileInfo struct {
	Name      string `json:"name"`
	Hash      string `json:"hash"`
	SizeBytes int    `json:"size_bytes"`
	Type      string `json:"type"`
}

type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	EventType EventType      `json:"event_type"`
	File      FileInfo       `json:"file"`
	Details   map[string]any `json:"details"`
}

// Log appends events to a JSONL file. A nil *Log discards everything.
type Log struct {
	path   string
	mu     sync.Mutex
	now    func() time.Time
	logger *slog.Logger
}

func New(path string, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{path: path, now: time.Now, logger: logger}
}

func (l *Log) Path() string { return l.path }

// Record appends one event.
func (l *Log) Record(t EventType, f FileInfo, details map[string]any) {
	if l == nil {
		return
	}
	if f.Name == "" {
		f.Name = unknownFileField
	}
	if f.Type == "" {
		f.Type = unknownFileField
	}
	ev := Event{Timestamp: l.now(), EventType: t, File: f, Details: details}
	if err := l.append(ev); err != nil {
		l.logger.Warn("importlog.write_failed", "path", l.path, "event", t, "error", err)
	}
}

func (l *Log) append(ev Event) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	_, werr := f.Write(append(line, '\n'))
	return errors.Join(werr, f.Close())
}

func (l *Log) Upload(f FileInfo, mimeType string) {
	l.Record(EventUpload, f, map[string]any{"action": "file_uploaded", "mime_type": mimeType})
}

func (l *Log) Extraction(f FileInfo, r extract.Result) {
	d := map[string]any{
		"action":      "text_extracted",
		"status":      r.Status,
		"text_length": len(r.Text),
	}
	switch r.FileType {
	case constants.PDF:
		d["total_pages"] = r.TotalPages
		d["text_pages"] = r.TextPages
		d["vision_pages"] = r.VisionPages
	case constants.CSV:
		d["structured"] = r.Metadata["structured"]
		d["row_count"] = r.Metadata["row_count"]
	case constants.XLSX:
		d["sheet_count"] = r.Metadata["sheet_count"]
	}
	l.Record(EventExtract, f, d)
}

// Routing summarizes the per-page route decisions of a PDF.
func (l *Log) Routing(f FileInfo, pages []extract.PageProvenance) {
	routes := map[string]int{}
	var low []int
	for _, p := range pages {
		routes[string(p.Route)]++
		if !p.Confidence.IsConfident {
			low = append(low, p.PageNumber)
		}
	}
	d := map[string]any{"action": "pdf_routing", "total_pages": len(pages), "routes": routes}
	if len(low) > 0 {
		d["low_confidence_pages"] = low
	}
	l.Record(EventRoute, f, d)
}

func (l *Log) Parsing(f FileInfo, r recipe.ImportResult) {
	d := map[string]any{"action": "recipe_parsed", "status": r.Status}
	if r.Recipe != nil {
		d["recipe_name"] = r.Recipe.Name
		d["ingredient_count"] = len(r.Recipe.Ingredients)
		d["has_instructions"] = len(r.Recipe.Instructions) > 0
	}
	l.Record(EventParse, f, d)
}

func (l *Log) Validation(f FileInfo, rep schema.Report) {
	d := map[string]any{"action": "validated", "valid": rep.Valid, "error_count": len(rep.Issues)}
	if len(rep.Issues) > 0 {
		d["errors"] = rep.Issues[:min(len(rep.Issues), maxLoggedIssues)]
	}
	l.Record(EventValidate, f, d)
}

func (l *Log) Mapping(f FileInfo, s recipe.MappingStats) {
	l.Record(EventMap, f, map[string]any{
		"action":            "ingredients_mapped",
		"total_ingredients": s.Total,
		"auto_mapped":       s.AutoMapped,
		"warn_mapped":       s.WarnMapped,
		"unmapped":          s.Unmapped,
		"match_rate":        s.MatchRate,
	})
}

func (l *Log) Save(f FileInfo, recipeName string, success bool) {
	l.Record(EventSave, f, map[string]any{"action": "recipe_saved", "recipe_name": recipeName, "success": success})
}

func (l *Log) Error(f FileInfo, errType, msg string) {
	if r := []rune(msg); len(r) > maxErrorMessage {
		msg = string(r[:maxErrorMessage])
	}
	l.Record(EventError, f, map[string]any{"action": "error", "error_type": errType, "error_message": msg})
}

// Recent returns up to limit events, newest first. Unreadable lines are skipped; a
// missing file yields no events.
func (l *Log) Recent(limit int) ([]Event, error) {
	if l == nil {
		return nil, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var events []Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var ev Event
		if len(sc.Bytes()) == 0 || json.Unmarshal(sc.Bytes(), &ev) != nil {
			continue
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}
