package service

import (
	"context"
	"strings"

	"bin_monitoring/internal/logger"
	"bin_monitoring/internal/metrics"
	"bin_monitoring/internal/models"
	"bin_monitoring/internal/repository"
)

// CollectionResult is the committed outcome of one collection.
type CollectionResult struct {
	Bin    models.Bin              `json:"bin"`
	Record models.CollectionRecord `json:"collectionHistory"`
	// ClosedRequests is 1 when a PENDING request was fulfilled, 0 otherwise.
	ClosedRequests int64 `json:"closedRequests"`
}

type CollectionService struct {
	repos   *repository.Repository
	locks   *binLocker
	notify  notifier
	metrics *metrics.Metrics
	log     *logger.Logger
}

func NewCollectionService(repos *repository.Repository, locks *binLocker, n notifier, m *metrics.Metrics, log *logger.Logger) *CollectionService {
	return &CollectionService{repos: repos, locks: locks, notify: n, metrics: m, log: log}
}

// CompleteCollection empties the bin, appends a CollectionRecord and fulfils any PENDING request
// in one transaction. Nothing is published unless all three commit.
func (s *CollectionService) CompleteCollection(ctx context.Context, binID, collectorID int64, note string) (CollectionResult, error) {
	unlock := s.locks.Lock(binID)
	defer unlock()

	var res CollectionResult
	err := s.repos.Tx.Do(ctx, func(ctx context.Context) error {
		bin, err := s.repos.Bins.Get(ctx, binID)
		if err != nil {
			return binErr("load bin", binID, err)
		}

		at := now()
		if err := s.repos.Bins.MarkCollected(ctx, binID, at); err != nil {
			return binErr("reset bin", binID, err)
		}
		rec, err := s.repos.Records.Append(ctx, models.CollectionRecord{
			BinID:       binID,
			CollectorID: collectorID,
			Note:        strings.TrimSpace(note),
			CollectedAt: at,
		})
		if err != nil {
			return storeErr("append collection record", err)
		}
		closed, err := s.repos.Requests.ClosePending(ctx, binID, models.RequestFulfilled, at)
		if err != nil {
			return storeErr("fulfil pending request", err)
		}

		bin.FillLevel = 0
		bin.Status = models.StatusEmpty
		bin.LastCollectedAt = &at
		bin.UpdatedAt = at
		res = CollectionResult{Bin: bin, Record: rec, ClosedRequests: closed}
		return nil
	})
	if err != nil {
		s.log.Errorw("collection_failed", "bin_id", binID, "collector_id", collectorID, "err", err)
		return CollectionResult{}, txErr("complete collection", err)
	}

	s.metrics.CollectionCompleted()
	s.log.Infow("collection_completed",
		"bin_id", binID,
		"collector_id", collectorID,
		"record_id", res.Record.ID,
		"closed_requests", res.ClosedRequests,
	)
	s.notify.sensorUpdate(res.Bin)
	return res, nil
}

// CompleteCollectionForOwner collects the owner's current bin.
func (s *CollectionService) CompleteCollectionForOwner(ctx context.Context, ownerID, collectorID int64, note string) (CollectionResult, error) {
	bin, err := s.repos.Bins.GetByOwner(ctx, ownerID)
	if err != nil {
		return CollectionResult{}, ownerErr(ownerID, err)
	}
	return s.CompleteCollection(ctx, bin.ID, collectorID, note)
}

// CollectionHistory lists the bin's collection records, newest first.
func (s *CollectionService) CollectionHistory(ctx context.Context, binID int64) ([]models.CollectionRecord, error) {
	if _, err := s.repos.Bins.Get(ctx, binID); err != nil {
		return nil, binErr("load bin", binID, err)
	}
	recs, err := s.repos.Records.ListByBin(ctx, binID)
	if err != nil {
		return nil, storeErr("list collection records", err)
	}
	return recs, nil
}
