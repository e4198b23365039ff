// Package reader provides row sources: adapters that extract raw
// tabular records from external files for the pipeline.
package reader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kursadbilgin/freight-etl/internal/domain"
	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned when a source file extension has no
// registered row source.
var ErrUnsupportedFormat = errors.New("unsupported source format")

// RowSource extracts the raw rows of one bounded batch. A failure here
// is fatal for the run; the orchestrator classifies it as extraction
// failure.
type RowSource interface {
	Extract(ctx context.Context, source string) ([]domain.RawRow, error)
}

// ForPath picks a row source by file extension.
func ForPath(path string, logger *zap.Logger) (RowSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return NewCSVSource(logger), nil
	case ".xlsx":
		return NewXLSXSource(logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// normalizeHeader maps raw header cells to canonical column names.
func normalizeHeader(cells []string) []string {
	normalized := make([]string, len(cells))
	for i, cell := range cells {
		normalized[i] = strings.ToLower(strings.TrimSpace(cell))
	}
	return normalized
}

func rowFromCells(header []string, cells []string) domain.RawRow {
	row := make(domain.RawRow, len(header))
	for i, name := range header {
		if name == "" {
			continue
		}
		if i < len(cells) {
			row[name] = cells[i]
		} else {
			row[name] = ""
		}
	}
	return row
}
