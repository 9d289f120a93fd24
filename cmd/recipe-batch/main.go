package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joseph-ayodele/recipe-importer/constants"
	"github.com/joseph-ayodele/recipe-importer/internal/batch"
	"github.com/joseph-ayodele/recipe-importer/internal/catalog"
	"github.com/joseph-ayodele/recipe-importer/internal/common"
	"github.com/joseph-ayodele/recipe-importer/internal/export"
	"github.com/joseph-ayodele/recipe-importer/internal/extract"
	"github.com/joseph-ayodele/recipe-importer/internal/importlog"
	"github.com/joseph-ayodele/recipe-importer/internal/ingest"
	"github.com/joseph-ayodele/recipe-importer/internal/llm/openai"
	"github.com/joseph-ayodele/recipe-importer/internal/recipe"
	repo "github.com/joseph-ayodele/recipe-importer/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir         = flag.String("dir", "", "directory to import recipe files from (required)")
		catalogPath = flag.String("catalog", "", "product catalog CSV/XLSX (defaults to the products table)")
		out         = flag.String("out", "", "review XLSX path (defaults to recipes.xlsx next to --dir)")
		save        = flag.Bool("save", false, "save imported recipes to the database")
		seed        = flag.Bool("seed-catalog", false, "insert the --catalog products into the database")
		watch       = flag.Bool("watch", false, "keep watching --dir and import new files")
		workers     = flag.Int("workers", 0, "concurrent files (defaults to IMPORT_WORKERS)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "recipes.xlsx")
	}

	cfg := common.LoadConfig()
	if *workers > 0 {
		cfg.Import.Workers = *workers
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(false); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The database backs the catalog when no file is given, and the recipe store.
	var db *repo.DB
	if *catalogPath == "" || *save || *seed {
		var err error
		db, err = repo.Open(ctx, repo.Config{
			Driver:          repo.Dialect(cfg.Database.Driver),
			DSN:             cfg.Database.DSN,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			DialTimeout:     cfg.Database.DialTimeout,
		}, logger)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close(logger)
		if err := db.Migrate(ctx); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	cat, err := loadCatalog(ctx, *catalogPath, *seed, db, logger)
	if err != nil {
		logger.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}

	// Setup OpenAI client (graceful if missing)
	var opts []batch.Option
	var vision extract.VisionService
	if cfg.LLM.APIKey != "" {
		client := openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			VisionModel: cfg.LLM.VisionModel,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
			MaxRetries:  cfg.LLM.MaxRetries,
		}, logger)
		vision = client
		importer := recipe.NewImporter(client, logger, recipe.WithCreatedBy(cfg.Import.CreatedBy))
		opts = append(opts, batch.WithImporter(importer, cat, cfg.Import.MatchThreshold))
		logger.Info("OpenAI client initialized", "model", cfg.LLM.Model)
	} else {
		logger.Warn("OpenAI API key not configured, recipe structuring will be skipped")
	}

	extractor := extract.NewExtractor(extract.Config{
		Pdftotext:     cfg.Extract.Pdftotext,
		Pdftoppm:      cfg.Extract.Pdftoppm,
		DPI:           cfg.Extract.DPI,
		MaxPages:      cfg.Extract.MaxPDFPages,
		MaxFileBytes:  int64(cfg.Extract.MaxFileMB) << 20,
		DisableRaster: cfg.Extract.DisableRaster,
		Thresholds: extract.Thresholds{
			MinChars:    cfg.Extract.MinChars,
			MinWords:    cfg.Extract.MinWords,
			MinUOMHits:  cfg.Extract.MinUOMHits,
			MaxFailures: extract.DefaultThresholds().MaxFailures,
		},
	}, vision, logger)

	opts = append(opts,
		batch.WithWorkers(cfg.Import.Workers),
		batch.WithFileTimeout(cfg.Import.FileTimeout),
		batch.WithImportLog(importlog.New(cfg.Log.ImportLogPath, logger)),
	)
	if *save {
		opts = append(opts, batch.WithStore(repo.NewRecipeRepository(db, logger)))
	}
	runner := batch.New(extractor, logger, opts...)
	exporter := export.NewService(logger)

	uploads, stats, err := ingest.ReadDirectory(*dir, true)
	if err != nil {
		logger.Error("failed to read directory", "error", err)
		os.Exit(1)
	}
	logger.Info("ingestion complete",
		"files", len(uploads),
		"scanned", stats.Scanned,
		"rejected", stats.Rejected,
		"failed", stats.Failed,
	)

	outcomes := runner.Run(ctx, uploads)
	if err := writeExport(exporter, outcomes, *out); err != nil {
		logger.Error("failed to write export", "error", err)
		os.Exit(1)
	}
	printSummary(outcomes, *out)

	if *watch {
		if err := watchLoop(ctx, *dir, runner, exporter, outcomes, *out, logger); err != nil {
			logger.Error("watch failed", "error", err)
			os.Exit(1)
		}
	}
}

func loadCatalog(ctx context.Context, path string, seed bool, db *repo.DB, logger *slog.Logger) (*catalog.Catalog, error) {
	if path == "" {
		return repo.NewProductRepository(db, logger).Snapshot(ctx)
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	logger.Info("catalog.loaded", "source", path, "products", cat.Len())
	if seed {
		if err := repo.NewProductRepository(db, logger).Insert(ctx, cat.Products()); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// watchLoop imports each new file as its own batch and rewrites the export after it.
func watchLoop(ctx context.Context, dir string, runner *batch.Batch, exporter *export.Service, outcomes []batch.FileOutcome, out string, logger *slog.Logger) error {
	events, errs, err := ingest.Watch(ctx, ingest.WatchConfig{
		Roots:      []string{dir},
		SkipHidden: true,
		Debounce:   500 * time.Millisecond,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	logger.Info("watching for new files", "dir", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watch error", "error", err)
		case path, ok := <-events:
			if !ok {
				return nil
			}
			u, err := ingest.LoadFile(path)
			if err != nil {
				logger.Warn("failed to read new file", "path", path, "error", err)
				continue
			}
			outcomes = append(outcomes, runner.Run(ctx, []batch.Upload{u})...)
			if err := writeExport(exporter, outcomes, out); err != nil {
				logger.Error("failed to write export", "error", err)
			}
		}
	}
}

func writeExport(exporter *export.Service, outcomes []batch.FileOutcome, out string) error {
	b, err := exporter.RecipesXLSX(outcomes)
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0o644)
}

func printSummary(outcomes []batch.FileOutcome, out string) {
	var imported, deduped, failed int
	for _, o := range outcomes {
		switch {
		case o.Status != constants.StatusSuccess:
			failed++
		case o.Dedup:
			deduped++
		default:
			imported++
		}
	}
	fmt.Printf("Recipe import complete!\n")
	fmt.Printf("- Files: %d\n", len(outcomes))
	fmt.Printf("- Imported: %d\n", imported)
	fmt.Printf("- Already saved: %d\n", deduped)
	fmt.Printf("- Failures: %d\n", failed)
	for _, o := range outcomes {
		if o.Status != constants.StatusSuccess {
			fmt.Printf("  %s: %s\n", o.Filename, o.Error)
		}
	}
	fmt.Printf("- Output: %s\n", out)
}
