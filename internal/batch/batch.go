// Package batch runs the import pipeline over a set of uploads. Every file is
// processed independently: a rejected, unreadable or panicking file is reported in its
// own outcome and the rest of the batch carries on.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/recipe-importer/constants"
	"github.com/joseph-ayodele/recipe-importer/internal/catalog"
	"github.com/joseph-ayodele/recipe-importer/internal/common"
	"github.com/joseph-ayodele/recipe-importer/internal/extract"
	"github.com/joseph-ayodele/recipe-importer/internal/importlog"
	"github.com/joseph-ayodele/recipe-importer/internal/recipe"
)

// Upload is one file handed to the batch.
type Upload struct {
	Filename string
	MimeType string
	Data     []byte
}

type Extractor interface {
	Extract(ctx context.Context, data []byte, filename, mimeType string) extract.Result
}

type Importer interface {
	ProcessImport(ctx context.Context, text string, cat *catalog.Catalog, src recipe.Source, threshold int) recipe.ImportResult
}

// Store persists imported recipes; repository.RecipeRepository satisfies it.
type Store interface {
	Save(ctx context.Context, rec *recipe.RecipeRecord) (uuid.UUID, bool, error)
}

// FileOutcome is the per-file result. Import is nil when extraction failed or no
// importer is configured.
type FileOutcome struct {
	Filename   string               `json:"filename"`
	Status     constants.Status     `json:"status"`
	Error      string               `json:"error,omitempty"`
	Extraction extract.Result       `json:"extraction"`
	Import     *recipe.ImportResult `json:"import,omitempty"`
	SavedID    uuid.UUID            `json:"saved_id"`
	Dedup      bool                 `json:"dedup,omitempty"`
	Duration   time.Duration        `json:"duration"`
}

func (o FileOutcome) OK() bool { return o.Status == constants.StatusSuccess }

type Batch struct {
	extractor Extractor
	importer  Importer
	catalog   *catalog.Catalog
	store     Store
	events    *importlog.Log
	threshold int
	workers   int
	timeout   time.Duration
	logger    *slog.Logger
}

type Option func(*Batch)

func WithWorkers(n int) Option {
	return func(b *Batch) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithFileTimeout bounds the time spent on one file, vision and model calls included.
func WithFileTimeout(d time.Duration) Option {
	return func(b *Batch) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithImporter enables recipe structuring and mapping after extraction.
func WithImporter(imp Importer, cat *catalog.Catalog, threshold int) Option {
	return func(b *Batch) {
		b.importer, b.catalog, b.threshold = imp, cat, threshold
	}
}

func WithStore(s Store) Option { return func(b *Batch) { b.store = s } }

func WithImportLog(l *importlog.Log) Option { return func(b *Batch) { b.events = l } }

func New(ex Extractor, logger *slog.Logger, opts ...Option) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Batch{
		extractor: ex,
		workers:   1,
		timeout:   5 * time.Minute,
		logger:    logger,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Run processes uploads and returns one outcome per upload, in input order.
func (b *Batch) Run(ctx context.Context, uploads []Upload) []FileOutcome {
	ctx = common.WithImportID(ctx, uuid.NewString())
	log := common.LoggerFrom(ctx, b.logger)
	log.Info("batch.start", "files", len(uploads), "workers", b.workers)
	start := time.Now()

	out := make([]FileOutcome, len(uploads))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(b.workers, max(len(uploads), 1)); w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobs {
				out[i] = b.runOne(ctx, uploads[i], workerID)
			}
		}(w + 1)
	}
	for i := range uploads {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	failed := 0
	for _, o := range out {
		if !o.OK() {
			failed++
		}
	}
	log.Info("batch.done",
		"files", len(uploads),
		"succeeded", len(uploads)-failed,
		"failed", failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}

// runOne never panics; a panic in any stage becomes an error outcome for this file.
func (b *Batch) runOne(ctx context.Context, u Upload, workerID int) (o FileOutcome) {
	start := time.Now()
	ctx = common.WithFilename(ctx, u.Filename)
	log := common.LoggerFrom(ctx, b.logger).With("worker_id", workerID)

	o = FileOutcome{Filename: u.Filename, Status: constants.StatusError}
	defer func() {
		if r := recover(); r != nil {
			log.Error("batch.file.panic", "panic", r)
			o.Status = constants.StatusError
			o.Error = fmt.Sprintf("internal error: %v", r)
		}
		o.Duration = time.Since(start)
	}()

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	info := importlog.FileInfo{
		Name:      u.Filename,
		Hash:      extract.HashContent(u.Data),
		SizeBytes: len(u.Data),
		Type:      string(constants.MapExtToType(constants.ExtOf(u.Filename))),
	}
	b.events.Upload(info, u.MimeType)

	res := b.extractor.Extract(ctx, u.Data, u.Filename, u.MimeType)
	o.Extraction = res
	b.events.Extraction(info, res)
	if res.FileType == constants.PDF && len(res.Pages) > 0 {
		b.events.Routing(info, res.Pages)
	}
	if !res.OK() {
		log.Warn("batch.file.extract_failed", "error", res.Err())
		o.Error = res.Error
		b.events.Error(info, "extraction", res.Error)
		return o
	}

	if b.importer == nil {
		o.Status = constants.StatusSuccess
		return o
	}

	ir := b.importer.ProcessImport(ctx, res.Text, b.catalog, recipe.SourceFromExtraction(res), b.threshold)
	o.Import = &ir
	b.events.Parsing(info, ir)
	if !ir.OK() {
		o.Error = ir.Error
		b.events.Error(info, "parse", ir.Error)
		return o
	}
	b.events.Validation(info, ir.Validation)
	b.events.Mapping(info, ir.MappingStats)

	if b.store != nil {
		id, dedup, err := b.store.Save(ctx, ir.Recipe)
		b.events.Save(info, ir.Recipe.Name, err == nil)
		if err != nil {
			log.Error("batch.file.save_failed", "error", err)
			o.Error = fmt.Sprintf("Failed to save recipe: %v", err)
			b.events.Error(info, "save", o.Error)
			return o
		}
		o.SavedID, o.Dedup = id, dedup
	}

	o.Status = constants.StatusSuccess
	log.Info("batch.file.ok", "elapsed_ms", time.Since(start).Milliseconds())
	return o
}
