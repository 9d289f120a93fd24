// Package extract turns an uploaded recipe file into text. PDFs are routed page by
// page between direct text extraction and a vision service.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/recipe-importer/constants"
	"github.com/joseph-ayodele/recipe-importer/internal/units"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"

	DPI           int   // rasterization DPI for low-confidence pages, default 150
	MaxPages      int   // 0 = no limit
	MaxFileBytes  int64 // 0 = no limit
	DisableRaster bool  // route low-confidence pages straight to text_fallback
	TempDir       string

	Thresholds Thresholds
}

type Extractor struct {
	cfg    Config
	runner Runner
	vision VisionService
	units  *units.Normalizer
	logger *slog.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithRunner replaces the exec-based runner for the poppler tools.
func WithRunner(r Runner) Option {
	return func(e *Extractor) { e.runner = r }
}

// WithNormalizer sets the unit table used to count UOM hits.
func WithNormalizer(n *units.Normalizer) Option {
	return func(e *Extractor) { e.units = n }
}

// NewExtractor builds an Extractor. vision may be nil, in which case images fail and
// low-confidence PDF pages fall back to their text.
func NewExtractor(cfg Config, vision VisionService, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 150
	}
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}
	e := &Extractor{
		cfg:    cfg,
		runner: execRunner{logger: logger},
		vision: vision,
		units:  units.Default(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CheckFileType is the security gate run before any bytes are parsed. Macro-enabled
// office formats are refused whatever MIME type was declared. A MIME type that
// disagrees with the extension is returned as a warning, not an error.
func CheckFileType(filename, mimeType string) (constants.FileType, string, error) {
	ext := constants.ExtOf(filename)
	if constants.IsRejectedExt(ext) {
		return "", "", fmt.Errorf("File type .%s not allowed (contains macros)", ext)
	}
	ft := constants.MapExtToType(ext)
	if ft == "" {
		return "", "", fmt.Errorf("Unsupported file type: %s", strings.ToLower(filename))
	}
	var warning string
	if want := constants.ExpectedMIME[ext]; mimeType != "" && mimeType != want &&
		!strings.HasPrefix(mimeType, "application/octet-stream") {
		warning = fmt.Sprintf("declared MIME type %q does not match .%s (expected %q)", mimeType, ext, want)
	}
	return ft, warning, nil
}

// HashContent is the hex SHA-256 of data, used for duplicate detection.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Extract reads one upload. It never returns a Go error: every failure is reported
// as Status=error with a readable message so a batch can carry on.
func (e *Extractor) Extract(ctx context.Context, data []byte, filename, mimeType string) Result {
	start := time.Now()
	log := e.logger.With("file", filename)

	ft, warning, err := CheckFileType(filename, mimeType)
	if err != nil {
		log.Warn("extract.rejected", "error", err)
		return errorResult(filename, err.Error())
	}
	if e.cfg.MaxFileBytes > 0 && int64(len(data)) > e.cfg.MaxFileBytes {
		msg := fmt.Sprintf("File too large: %d bytes exceeds limit of %d bytes", len(data), e.cfg.MaxFileBytes)
		log.Warn("extract.rejected", "error", msg)
		return errorResult(filename, msg)
	}

	res := Result{
		Status:   constants.StatusSuccess,
		Filename: filename,
		FileType: ft,
		FileHash: HashContent(data),
		FileSize: len(data),
	}
	if warning != "" {
		res.Warnings = append(res.Warnings, warning)
	}
	log.Debug("extract.start", "type", ft, "size_bytes", len(data))

	switch ft {
	case constants.DOCX:
		err = e.extractDOCX(data, &res)
	case constants.PDF:
		err = e.extractPDF(ctx, data, &res)
	case constants.CSV:
		res.Text, res.Metadata, err = csvText(data)
	case constants.XLSX:
		res.Text, res.Metadata, err = xlsxText(data)
	case constants.IMAGE:
		err = e.extractImage(ctx, data, &res)
	}
	res.Duration = time.Since(start)

	if err != nil {
		res.Status = constants.StatusError
		res.Error = fmt.Sprintf("Failed to extract %s: %v", strings.ToUpper(string(ft)), err)
		res.Text = ""
		log.Error("extract.failed", "type", ft, "error", err, "elapsed_ms", res.Duration.Milliseconds())
		return res
	}

	log.Info("extract.ok",
		"type", ft,
		"chars", len(res.Text),
		"pages", res.TotalPages,
		"vision_pages", res.VisionPages,
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res
}

func (e *Extractor) extractDOCX(data []byte, res *Result) error {
	text, paragraphs, err := docxText(data)
	if err != nil {
		return err
	}
	res.Text = text
	res.Metadata = map[string]any{
		"char_count":      len([]rune(text)),
		"word_count":      len(strings.Fields(text)),
		"paragraph_count": paragraphs,
	}
	return nil
}

func (e *Extractor) extractImage(ctx context.Context, data []byte, res *Result) error {
	clean, mime, format, bounds, err := stripMetadata(data)
	if err != nil {
		return err
	}
	if e.vision == nil {
		return fmt.Errorf("no vision service configured")
	}
	text, err := e.vision.ReadImage(ctx, clean, mime, "This is a recipe image.")
	if err != nil {
		return fmt.Errorf("vision: %w", err)
	}
	res.Text = text
	res.Metadata = map[string]any{
		"image_format": format,
		"width":        bounds.Dx(),
		"height":       bounds.Dy(),
	}
	return nil
}
