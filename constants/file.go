package constants

import (
	"path/filepath"
	"strings"
)

// FileType is the extraction family a file belongs to.
type FileType string

const (
	DOCX  FileType = "docx"
	PDF   FileType = "pdf"
	CSV   FileType = "csv"
	XLSX  FileType = "xlsx"
	IMAGE FileType = "image"
)

// AllowedExtensions maps the supported upload extensions (lowercased, sans '.') to
// their extraction family. .xls goes through the XLSX reader.
var AllowedExtensions = map[string]FileType{
	"docx": DOCX,
	"pdf":  PDF,
	"csv":  CSV,
	"xlsx": XLSX,
	"xls":  XLSX,
	"png":  IMAGE,
	"jpg":  IMAGE,
	"jpeg": IMAGE,
}

// RejectedExtensions carry macro/active content and are refused before extraction.
var RejectedExtensions = map[string]struct{}{
	"xlsm": {},
	"docm": {},
	"xlsb": {},
}

// ExpectedMIME lists the MIME type browsers normally send for each extension.
var ExpectedMIME = map[string]string{
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"pdf":  "application/pdf",
	"csv":  "text/csv",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"xls":  "application/vnd.ms-excel",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ExtOf returns the normalized extension of a filename.
func ExtOf(filename string) string {
	return NormalizeExt(filepath.Ext(filename))
}

// MapExtToType returns the extraction family for ext, or "" if unsupported.
func MapExtToType(ext string) FileType {
	return AllowedExtensions[NormalizeExt(ext)]
}

// IsRejectedExt reports whether ext is a macro-enabled office format.
func IsRejectedExt(ext string) bool {
	_, ok := RejectedExtensions[NormalizeExt(ext)]
	return ok
}
