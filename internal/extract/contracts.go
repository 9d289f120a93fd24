package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/recipe-importer/constants"
	"github.com/joseph-ayodele/recipe-importer/internal/common"
)

// VisionService reads text out of an image. hint is prepended to the prompt
// ("This is page 2 of a recipe document.").
type VisionService interface {
	ReadImage(ctx context.Context, image []byte, mimeType, hint string) (string, error)
}

// Confidence is the three-metric score computed for one page of extracted text.
type Confidence struct {
	CharCount   int  `json:"char_count"`
	WordCount   int  `json:"word_count"`
	UOMHits     int  `json:"uom_hits"`
	IsConfident bool `json:"is_confident"`
	Failures    int  `json:"failures"`
}

// PageProvenance records how one PDF page was read.
type PageProvenance struct {
	PageNumber int             `json:"page_number"`
	Route      constants.Route `json:"route"`
	Confidence Confidence      `json:"confidence"`
}

// Result is the outcome of extracting one upload. Failures are reported through
// Status and Error; Extract never returns a Go error.
type Result struct {
	Status   constants.Status   `json:"status"`
	Filename string             `json:"filename"`
	FileType constants.FileType `json:"file_type,omitempty"`
	FileHash string             `json:"file_hash,omitempty"`
	FileSize int                `json:"file_size"`
	Text     string             `json:"text"`

	Pages       []PageProvenance `json:"pages,omitempty"`
	TotalPages  int              `json:"total_pages,omitempty"`
	TextPages   int              `json:"text_pages,omitempty"`
	VisionPages int              `json:"vision_pages,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Error    string         `json:"error,omitempty"`
	Duration time.Duration  `json:"duration"`
}

// OK reports whether extraction succeeded.
func (r Result) OK() bool { return r.Status == constants.StatusSuccess }

// Err is nil on success, else an error matching common.ErrExtraction.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return common.ExtractionError(r.Error, nil)
}

func errorResult(filename, msg string) Result {
	return Result{Status: constants.StatusError, Filename: filename, Error: msg}
}
