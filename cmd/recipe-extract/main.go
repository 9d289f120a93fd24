package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/recipe-importer/constants"
	"github.com/joseph-ayodele/recipe-importer/internal/common"
	"github.com/joseph-ayodele/recipe-importer/internal/extract"
	"github.com/joseph-ayodele/recipe-importer/internal/llm/openai"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "recipe-extract <file>")
		os.Exit(2)
	}
	path := os.Args[1]
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	cfg := common.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Import.FileTimeout)
	defer cancel()

	// Without a key, images fail and low-confidence pages keep their text.
	var vision extract.VisionService
	if cfg.LLM.APIKey != "" {
		vision = openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			VisionModel: cfg.LLM.VisionModel,
			Timeout:     cfg.LLM.Timeout,
			MaxRetries:  cfg.LLM.MaxRetries,
		}, logger)
	}
	ex := extract.NewExtractor(extract.Config{
		Pdftotext:     cfg.Extract.Pdftotext,
		Pdftoppm:      cfg.Extract.Pdftoppm,
		DPI:           cfg.Extract.DPI,
		MaxPages:      cfg.Extract.MaxPDFPages,
		MaxFileBytes:  int64(cfg.Extract.MaxFileMB) << 20,
		DisableRaster: cfg.Extract.DisableRaster,
	}, vision, logger)

	name := filepath.Base(path)
	start := time.Now()
	res := ex.Extract(ctx, data, name, constants.ExpectedMIME[constants.ExtOf(name)])
	dur := time.Since(start)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
	if !res.OK() {
		logger.Error("text extraction failed", "error", res.Error, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}
	logger.Info("text extraction OK",
		"file_type", res.FileType,
		"pages", res.TotalPages,
		"vision_pages", res.VisionPages,
		"bytes", len(res.Text),
		"duration_ms", dur.Milliseconds(),
	)
}
