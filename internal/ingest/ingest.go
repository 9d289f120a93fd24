// Package ingest discovers recipe source files on disk and turns them into batch
// uploads, either by walking a directory once or by watching it for changes.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/recipe-importer/constants"
	"github.com/joseph-ayodele/recipe-importer/internal/batch"
)

// DirStats summarizes a directory read.
type DirStats struct {
	Scanned  uint32
	Matched  uint32
	Rejected uint32
	Failed   uint32
}

// LoadFile reads one file into an upload. The MIME type is the one browsers send for
// the extension, empty when the extension is unknown.
func LoadFile(path string) (batch.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return batch.Upload{}, fmt.Errorf("read %s: %w", path, err)
	}
	name := filepath.Base(path)
	return batch.Upload{
		Filename: name,
		MimeType: constants.ExpectedMIME[constants.ExtOf(name)],
		Data:     data,
	}, nil
}
