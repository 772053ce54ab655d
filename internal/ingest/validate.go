// Package ingest validates uploaded files and parses comparable sales out of
// them.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// MaxFileSize is the largest accepted upload, in bytes.
const MaxFileSize = 10 << 20

// MaxFilenameLength is the longest accepted file name.
const MaxFilenameLength = 255

// ErrInvalidFile is wrapped by every rejection from ValidateFile.
var ErrInvalidFile = errors.New("invalid file")

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".csv":  true,
	".xlsx": true,
	".xls":  true,
	".txt":  true,
}

var allowedMIMETypes = []string{
	"application/pdf",
	"text/csv",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-excel",
	"text/plain",
}

var executableExtensions = []string{
	".exe", ".bat", ".cmd", ".sh", ".js", ".vbs", ".ps1", ".jar", ".com", ".scr",
}

// ValidateFile checks an upload's name, size and declared MIME type before
// its contents are read.
func ValidateFile(name string, size int64, mimeType string) error {
	if size <= 0 {
		return fmt.Errorf("%w: file is empty", ErrInvalidFile)
	}
	if size > MaxFileSize {
		return fmt.Errorf("%w: file is %d bytes, limit is %d", ErrInvalidFile, size, MaxFileSize)
	}

	base := filepath.Base(name)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return fmt.Errorf("%w: file name is required", ErrInvalidFile)
	}
	if len(base) > MaxFilenameLength {
		return fmt.Errorf("%w: file name longer than %d characters", ErrInvalidFile, MaxFilenameLength)
	}

	lower := strings.ToLower(base)
	for _, exe := range executableExtensions {
		if strings.HasSuffix(lower, exe) || strings.Contains(lower, exe+".") {
			return fmt.Errorf("%w: executable file type %s", ErrInvalidFile, exe)
		}
	}

	ext := filepath.Ext(lower)
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: extension %q not allowed", ErrInvalidFile, ext)
	}
	if inner := filepath.Ext(strings.TrimSuffix(lower, ext)); isTypeExtension(inner) {
		return fmt.Errorf("%w: double extension %s%s", ErrInvalidFile, inner, ext)
	}

	mt := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	if !slices.Contains(allowedMIMETypes, mt) {
		return fmt.Errorf("%w: content type %q not allowed", ErrInvalidFile, mimeType)
	}

	return nil
}

// isTypeExtension reports whether ext looks like a file type: a dot followed
// only by letters. Version and date segments such as ".v2" or ".2024" do not.
func isTypeExtension(ext string) bool {
	if len(ext) < 2 {
		return false
	}
	for _, r := range ext[1:] {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
