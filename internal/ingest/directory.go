package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/recipe-importer/constants"
	"github.com/joseph-ayodele/recipe-importer/internal/batch"
)

// ReadDirectory walks root in lexical order and loads every candidate file. Files
// that cannot be read are counted and logged; they never stop the walk.
func ReadDirectory(root string, skipHidden bool) ([]batch.Upload, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var uploads []batch.Upload
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			slog.Warn("ingest.walk_error", "path", path, "error", walkErr)
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if !Candidate(path) {
			return nil
		}
		stats.Matched++

		u, err := LoadFile(path)
		if err != nil {
			slog.Warn("ingest.read_failed", "path", path, "error", err)
			stats.Failed++
			return nil
		}
		if constants.IsRejectedExt(constants.ExtOf(path)) {
			stats.Rejected++
		}
		uploads = append(uploads, u)
		return nil
	})
	if err != nil {
		return uploads, stats, fmt.Errorf("walk: %w", err)
	}
	slog.Info("ingest.directory.read",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"rejected", stats.Rejected,
		"failed", stats.Failed,
	)
	return uploads, stats, nil
}
