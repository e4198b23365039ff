// Package storage provides the object-store boundary the pipeline
// loads validated batches through, plus record encoders and the
// partitioned key scheme.
package storage

import (
	"context"
	"fmt"

	"github.com/kursadbilgin/freight-etl/internal/domain"
)

// ObjectStore exposes the container/key primitives behind the sink.
// Keys use forward slashes regardless of backend.
type ObjectStore interface {
	Upload(ctx context.Context, container, key string, data []byte) error
	Download(ctx context.Context, container, key string) ([]byte, error)
	List(ctx context.Context, container, prefix string) ([]string, error)
	CreateContainer(ctx context.Context, container string) error
}

// Sink persists a validated batch to a destination container. A
// failure here is fatal for the run; nothing is retried by the core.
type Sink interface {
	Save(ctx context.Context, shipments []*domain.Shipment, destination string) error
}

// PartitionKey builds the destination object key for one partition,
// e.g. shipments/year=2024/month=01/9f1c...e2.csv. Deterministic pure
// string formatting so destination keys stay stable and
// range-queryable.
func PartitionKey(prefix string, year, month int, batchID, ext string) string {
	return fmt.Sprintf("%s/year=%d/month=%02d/%s.%s", prefix, year, month, batchID, ext)
}
