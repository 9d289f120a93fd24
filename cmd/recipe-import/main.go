package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joseph-ayodele/recipe-importer/constants"
	"github.com/joseph-ayodele/recipe-importer/internal/catalog"
	"github.com/joseph-ayodele/recipe-importer/internal/common"
	"github.com/joseph-ayodele/recipe-importer/internal/extract"
	"github.com/joseph-ayodele/recipe-importer/internal/llm/openai"
	"github.com/joseph-ayodele/recipe-importer/internal/recipe"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 3 {
		logger.Error("usage: recipe-import <recipe-file> <catalog.csv|xlsx> [times]")
		os.Exit(2)
	}
	path, catalogPath := os.Args[1], os.Args[2]
	times := 1
	if len(os.Args) >= 4 {
		if n, err := strconv.Atoi(os.Args[3]); err == nil && n > 0 {
			times = n
		}
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(true); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}
	cat, err := catalog.LoadFile(catalogPath)
	if err != nil {
		logger.Error("load catalog", "path", catalogPath, "error", err)
		os.Exit(1)
	}

	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		VisionModel: cfg.LLM.VisionModel,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		MaxRetries:  cfg.LLM.MaxRetries,
	}, logger)
	ex := extract.NewExtractor(extract.Config{
		Pdftotext:    cfg.Extract.Pdftotext,
		Pdftoppm:     cfg.Extract.Pdftoppm,
		DPI:          cfg.Extract.DPI,
		MaxPages:     cfg.Extract.MaxPDFPages,
		MaxFileBytes: int64(cfg.Extract.MaxFileMB) << 20,
	}, client, logger)
	importer := recipe.NewImporter(client, logger, recipe.WithCreatedBy(cfg.Import.CreatedBy))

	name := filepath.Base(path)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Import.FileTimeout)
	defer cancel()
	res := ex.Extract(ctx, data, name, constants.ExpectedMIME[constants.ExtOf(name)])
	if !res.OK() {
		logger.Error("extraction failed", "error", res.Error)
		os.Exit(1)
	}

	// Repeated runs show how stable the model's structuring is for one file.
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for i := 1; i <= times; i++ {
		runCtx, cancelRun := context.WithTimeout(context.Background(), cfg.Import.FileTimeout)
		start := time.Now()
		ir := importer.ProcessImport(runCtx, res.Text, cat, recipe.SourceFromExtraction(res), cfg.Import.MatchThreshold)
		cancelRun()

		if !ir.OK() {
			logger.Error("import.run.error", "iter", i, "error", ir.Error)
			continue
		}
		logger.Info("import.run.ok",
			"iter", i,
			"valid", ir.Validation.Valid,
			"match_rate", ir.MappingStats.MatchRate,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		if err := enc.Encode(ir); err != nil {
			logger.Error("encode result", "error", err)
			os.Exit(1)
		}
	}
}
