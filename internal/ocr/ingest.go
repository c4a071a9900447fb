package ocr

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/claimlens/claimlens/internal/model"
)

// ReadDocument loads one document from disk. The format comes from the file
// extension; unsupported extensions fail before any bytes are read.
func ReadDocument(path string) (*model.Document, error) {
	format, err := model.FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", model.ErrUnsupportedFormat, path)
	}

	// Images are always one page; a PDF's count is unknown until the
	// extraction service reports it.
	pageCount := 1
	if format == model.FormatPDF {
		pageCount = 0
	}

	return &model.Document{
		ID:        uuid.NewString(),
		Name:      filepath.Base(path),
		Format:    format,
		Bytes:     data,
		PageCount: pageCount,
	}, nil
}

// ListDocuments returns the supported document paths directly under dir,
// sorted for deterministic batch order.
func ListDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read documents dir: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, err := model.FormatFromPath(entry.Name()); err != nil {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
