package reader

import (
	"context"
	"fmt"

	"github.com/kursadbilgin/freight-etl/internal/domain"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// XLSXSource extracts rows from the first sheet of an Excel workbook.
type XLSXSource struct {
	logger *zap.Logger
}

func NewXLSXSource(logger *zap.Logger) *XLSXSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &XLSXSource{logger: logger}
}

func (s *XLSXSource) Extract(ctx context.Context, source string) ([]domain.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}

	workbook, err := excelize.OpenFile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrExtraction, source, err)
	}
	defer workbook.Close() //nolint:errcheck

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", domain.ErrExtraction, source)
	}

	records, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %s of %s: %v", domain.ErrExtraction, sheets[0], source, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrExtraction, source)
	}

	header := normalizeHeader(records[0])
	rows := make([]domain.RawRow, 0, len(records)-1)
	for _, cells := range records[1:] {
		rows = append(rows, rowFromCells(header, cells))
	}

	s.logger.Info("extracted xlsx rows",
		zap.String("source", source),
		zap.String("sheet", sheets[0]),
		zap.Int("rows", len(rows)),
	)

	return rows, nil
}
