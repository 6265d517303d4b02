package property

import (
	"context"
	"fmt"

	"realestate_backend/internal/common"
	"realestate_backend/internal/platform/messaging"

	"go.uber.org/zap"
)

// IndexSyncer applies property change events to the search index.
type IndexSyncer struct {
	repo    Repository
	indexer Indexer
	logger  *zap.Logger
}

func NewIndexSyncer(repo Repository, indexer Indexer, logger *zap.Logger) *IndexSyncer {
	return &IndexSyncer{repo: repo, indexer: indexer, logger: logger.Named("property_index_syncer")}
}

// Handle is a messaging.Handler.
func (s *IndexSyncer) Handle(ctx context.Context, ev messaging.Event) error {
	if !s.indexer.Enabled() {
		return nil
	}
	if ev.Action == messaging.ActionDelete {
		return s.indexer.Delete(ctx, ev.PropertyID)
	}

	p, err := s.repo.FindByID(ctx, ev.PropertyID)
	if err != nil {
		if common.IsNotFound(err) {
			// deleted after the event was published
			return s.indexer.Delete(ctx, ev.PropertyID)
		}
		return fmt.Errorf("failed to load property %s for indexing: %w", ev.PropertyID, err)
	}
	return s.indexer.Index(ctx, p)
}

// SyncAll re-indexes every property in batches and returns how many were indexed.
func (s *IndexSyncer) SyncAll(ctx context.Context, batchSize int) (int, error) {
	if !s.indexer.Enabled() {
		return 0, fmt.Errorf("search index is not configured")
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	var (
		after   int64
		synced  int
		failed  int
		batchNo = 1
	)
	for {
		batch, err := s.repo.ListAfter(ctx, after, batchSize)
		if err != nil {
			return synced, fmt.Errorf("failed to fetch batch %d: %w", batchNo, err)
		}
		if len(batch) == 0 {
			break
		}

		rejected, err := s.indexer.BulkIndex(ctx, batch)
		if err != nil {
			s.logger.Error("Bulk request failed", zap.Int("batch", batchNo), zap.Error(err))
			failed += len(batch)
		} else {
			synced += len(batch) - rejected
			failed += rejected
		}
		s.logger.Info("Batch processed", zap.Int("batch", batchNo), zap.Int("count", len(batch)))

		after = batch[len(batch)-1].PropertyIndex
		batchNo++
	}

	s.logger.Info("Property synchronization finished", zap.Int("synced", synced), zap.Int("failed", failed))
	if failed > 0 {
		return synced, fmt.Errorf("%d properties failed to sync", failed)
	}
	return synced, nil
}
