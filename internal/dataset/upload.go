package dataset

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"pipewiz/internal/errors"
	"pipewiz/ports"
)

var validExtensions = []string{".csv", ".xls", ".xlsx"}

// Sniffed content types accepted for a dataset. Parents are checked too, so
// text/csv also passes as text/plain.
var validMimeTypes = []string{
	"text/csv",
	"text/plain",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-excel",
	"application/x-ole-storage",
	"application/zip",
}

// ValidateUpload checks a dataset before it is sent anywhere: extension,
// size, then sniffed content type. head is the first bytes of the file.
func ValidateUpload(filename string, size int64, head []byte, maxBytes int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !hasValidExtension(ext) {
		return errors.InvalidInput(fmt.Sprintf("unsupported file type %q: only .csv, .xls and .xlsx files are allowed", ext))
	}
	if size > maxBytes {
		return errors.InvalidInput(fmt.Sprintf("file size (%.1f MB) exceeds the %.1f MB limit",
			float64(size)/(1<<20), float64(maxBytes)/(1<<20)))
	}
	if size == 0 {
		return errors.InvalidInput(fmt.Sprintf("%s is empty", filepath.Base(filename)))
	}

	detected := mimetype.Detect(head)
	for m := detected; m != nil; m = m.Parent() {
		for _, allowed := range validMimeTypes {
			if m.Is(allowed) {
				return nil
			}
		}
	}
	return errors.InvalidInput(fmt.Sprintf("%s does not look like a spreadsheet (detected %s)", filepath.Base(filename), detected.String()))
}

// OpenUpload reads and validates a dataset file from disk.
func OpenUpload(path string, maxBytes int64) (ports.Upload, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.Upload{}, errors.InvalidInput(fmt.Sprintf("cannot open %s: %v", path, err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return ports.Upload{}, errors.InvalidInput(fmt.Sprintf("cannot stat %s: %v", path, err))
	}
	if info.IsDir() {
		return ports.Upload{}, errors.InvalidInput(fmt.Sprintf("%s is a directory", path))
	}

	// Oversized files are rejected without being read.
	if info.Size() > maxBytes {
		return ports.Upload{}, ValidateUpload(path, info.Size(), nil, maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return ports.Upload{}, errors.InvalidInput(fmt.Sprintf("cannot read %s: %v", path, err))
	}
	if err := ValidateUpload(path, int64(len(data)), data, maxBytes); err != nil {
		return ports.Upload{}, err
	}

	return ports.Upload{
		Filename: filepath.Base(path),
		Size:     int64(len(data)),
		Content:  bytes.NewReader(data),
	}, nil
}

func hasValidExtension(ext string) bool {
	for _, v := range validExtensions {
		if ext == v {
			return true
		}
	}
	return false
}
