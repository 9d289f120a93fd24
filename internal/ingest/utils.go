package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/recipe-importer/constants"
)

// Candidate reports whether a path should be handed to the extractor: supported
// types, and macro-enabled types so the rejection shows up in the batch report.
func Candidate(path string) bool {
	ext := constants.ExtOf(path)
	return constants.MapExtToType(ext) != "" || constants.IsRejectedExt(ext)
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
