package reader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kursadbilgin/freight-etl/internal/domain"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shipments.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}
	return path
}

func TestCSVSourceExtract(t *testing.T) {
	t.Parallel()

	path := writeTempCSV(t, "GUID,Origin,Destination,cost,revenue,shipping_date,delivery_date\n"+
		"abc123,NY,LA,1200.50,1800.00,2024-01-15,2024-01-18\n"+
		"def456,SF,CHI,300,500,2024-02-01,2024-02-04\n")

	rows, err := NewCSVSource(nil).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Get(domain.FieldGUID) != "abc123" {
		t.Fatalf("guid = %q, want abc123", rows[0].Get(domain.FieldGUID))
	}
	// header cells are normalized to lowercase
	if rows[1].Get(domain.FieldOrigin) != "SF" {
		t.Fatalf("origin = %q, want SF", rows[1].Get(domain.FieldOrigin))
	}
}

func TestCSVSourceExtractBOM(t *testing.T) {
	t.Parallel()

	path := writeTempCSV(t, "\xEF\xBB\xBFguid,origin\nX1,NY\n")

	rows, err := NewCSVSource(nil).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if rows[0].Get(domain.FieldGUID) != "X1" {
		t.Fatalf("guid = %q, want X1 (BOM should be stripped)", rows[0].Get(domain.FieldGUID))
	}
}

func TestCSVSourceExtractRaggedRow(t *testing.T) {
	t.Parallel()

	path := writeTempCSV(t, "guid,origin,destination\nX1,NY\n")

	rows, err := NewCSVSource(nil).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if rows[0].Get(domain.FieldDestination) != "" {
		t.Fatal("missing trailing cell should read as empty")
	}
}

func TestCSVSourceExtractFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.csv") },
		},
		{
			name: "empty file",
			path: func(t *testing.T) string { return writeTempCSV(t, "") },
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewCSVSource(nil).Extract(context.Background(), tt.path(t))
			if !errors.Is(err, domain.ErrExtraction) {
				t.Fatalf("Extract() error = %v, want ErrExtraction", err)
			}
		})
	}
}

func TestForPath(t *testing.T) {
	t.Parallel()

	if _, err := ForPath("batch.csv", nil); err != nil {
		t.Fatalf("ForPath(csv) error = %v", err)
	}
	if _, err := ForPath("batch.XLSX", nil); err != nil {
		t.Fatalf("ForPath(xlsx) error = %v", err)
	}
	if _, err := ForPath("batch.parquet", nil); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatal("ForPath(parquet) should be unsupported")
	}
}
