package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/kursadbilgin/freight-etl/internal/domain"
	"go.uber.org/zap"
)

// BatchSink writes a validated batch through an ObjectStore, one
// object per year/month partition. Every Save runs under a fresh batch
// id, so a re-run adds new objects instead of overwriting earlier ones.
type BatchSink struct {
	store      ObjectStore
	encoder    Encoder
	prefix     string
	logger     *zap.Logger
	newBatchID func() string
}

func NewBatchSink(store ObjectStore, encoder Encoder, prefix string, logger *zap.Logger) (*BatchSink, error) {
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if encoder == nil {
		return nil, fmt.Errorf("encoder is required")
	}
	if prefix == "" {
		return nil, fmt.Errorf("key prefix is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BatchSink{
		store:      store,
		encoder:    encoder,
		prefix:     prefix,
		logger:     logger,
		newBatchID: uuid.NewString,
	}, nil
}

type partition struct {
	year  int
	month int
}

func (s *BatchSink) Save(ctx context.Context, shipments []*domain.Shipment, destination string) error {
	if err := s.store.CreateContainer(ctx, destination); err != nil {
		return fmt.Errorf("%w: create container %s: %v", domain.ErrLoad, destination, err)
	}

	groups := make(map[partition][]*domain.Shipment)
	for _, shipment := range shipments {
		p := partition{year: shipment.Year, month: shipment.Month}
		groups[p] = append(groups[p], shipment)
	}

	partitions := make([]partition, 0, len(groups))
	for p := range groups {
		partitions = append(partitions, p)
	}
	sort.Slice(partitions, func(i, j int) bool {
		if partitions[i].year != partitions[j].year {
			return partitions[i].year < partitions[j].year
		}
		return partitions[i].month < partitions[j].month
	})

	batchID := s.newBatchID()
	for _, p := range partitions {
		data, err := s.encoder.Encode(groups[p])
		if err != nil {
			return fmt.Errorf("%w: encode partition %d-%02d: %v", domain.ErrLoad, p.year, p.month, err)
		}

		key := PartitionKey(s.prefix, p.year, p.month, batchID, s.encoder.Format().Ext())
		if err := s.store.Upload(ctx, destination, key, data); err != nil {
			return fmt.Errorf("%w: upload %s/%s: %v", domain.ErrLoad, destination, key, err)
		}

		s.logger.Info("partition written",
			zap.String("destination", destination),
			zap.String("key", key),
			zap.Int("records", len(groups[p])),
		)
	}

	return nil
}
