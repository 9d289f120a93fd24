package importlog

import "github.com/joseph-ayodele/recipe-importer/internal/units"

type Summary struct {
	TotalImports        int            `json:"total_imports"`
	SuccessfulImports   int            `json:"successful_imports"`
	FailedImports       int            `json:"failed_imports"`
	ByFileType          map[string]int `json:"by_file_type"`
	TotalRecipesSaved   int            `json:"total_recipes_saved"`
	TotalPagesProcessed int            `json:"total_pages_processed"`
	VisionPagesUsed     int            `json:"vision_pages_used"`
	UniqueFiles         int            `json:"unique_files"`
	SuccessRate         float64        `json:"success_rate"`
}

// Summary aggregates the most recent events.
func (l *Log) Summary() (Summary, error) {
	events, err := l.Recent(summaryWindow)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{ByFileType: map[string]int{}}
	hashes := map[string]struct{}{}

	for _, ev := range events {
		switch ev.EventType {
		case EventUpload:
			if ev.File.Hash == "" {
				continue
			}
			hashes[ev.File.Hash] = struct{}{}
			s.TotalImports++
			s.ByFileType[ev.File.Type]++
		case EventSave:
			if ok, _ := ev.Details["success"].(bool); ok {
				s.SuccessfulImports++
				s.TotalRecipesSaved++
			}
		case EventError:
			s.FailedImports++
		case EventRoute:
			s.TotalPagesProcessed += intDetail(ev.Details["total_pages"])
			if routes, ok := ev.Details["routes"].(map[string]any); ok {
				s.VisionPagesUsed += intDetail(routes["vision"])
			}
		}
	}

	s.UniqueFiles = len(hashes)
	if s.TotalImports > 0 {
		s.SuccessRate = units.Round(float64(s.SuccessfulImports)/float64(s.TotalImports)*100, 1)
	}
	return s, nil
}

// intDetail reads a JSON-decoded number.
func intDetail(v any) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return 0
}
