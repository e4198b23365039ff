package reader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kursadbilgin/freight-etl/internal/domain"
	"go.uber.org/zap"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// CSVSource extracts rows from a local CSV file. The first record is
// the header; ragged rows are tolerated, missing cells read as empty.
type CSVSource struct {
	logger *zap.Logger
}

func NewCSVSource(logger *zap.Logger) *CSVSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVSource{logger: logger}
}

func (s *CSVSource) Extract(ctx context.Context, source string) ([]domain.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}

	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrExtraction, source, err)
	}
	defer file.Close() //nolint:errcheck

	buffered := bufio.NewReader(file)
	if err := stripBOM(buffered); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrExtraction, source, err)
	}

	reader := csv.NewReader(buffered)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headerCells, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrExtraction, source)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header of %s: %v", domain.ErrExtraction, source, err)
	}
	header := normalizeHeader(headerCells)

	var rows []domain.RawRow
	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", domain.ErrExtraction, source, err)
		}
		rows = append(rows, rowFromCells(header, cells))
	}

	s.logger.Info("extracted csv rows",
		zap.String("source", source),
		zap.Int("rows", len(rows)),
	)

	return rows, nil
}

func stripBOM(r *bufio.Reader) error {
	peeked, err := r.Peek(len(byteOrderMark))
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if bytes.Equal(peeked, byteOrderMark) {
		if _, err := r.Discard(len(byteOrderMark)); err != nil {
			return err
		}
	}
	return nil
}
