package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bin_monitoring/internal/logger"
	"bin_monitoring/internal/metrics"
	"bin_monitoring/internal/models"
	"bin_monitoring/internal/repository"
)

const archiveTimeout = 3 * time.Second

// BinResolver maps a device without an explicit binId to a bin.
type BinResolver interface {
	Resolve(ctx context.Context, deviceID string) (int64, error)
}

// IngestResult is what one accepted reading changed.
type IngestResult struct {
	Reading        ReadingResult             `json:"reading"`
	Stored         models.SensorReading      `json:"stored"`
	Request        *models.CollectionRequest `json:"request,omitempty"`
	RequestCreated bool                      `json:"requestCreated"`
}

// IngestService runs the reading pipeline: parse, resolve, apply, request if FULL, publish.
type IngestService struct {
	repos    *repository.Repository
	bins     *BinStateService
	alerts   *AlertService
	locks    *binLocker
	resolver BinResolver
	archive  repository.ReadingArchive
	metrics  *metrics.Metrics
	log      *logger.Logger
}

func NewIngestService(
	repos *repository.Repository,
	bins *BinStateService,
	alerts *AlertService,
	locks *binLocker,
	resolver BinResolver,
	archive repository.ReadingArchive,
	m *metrics.Metrics,
	log *logger.Logger,
) *IngestService {
	if archive == nil {
		archive = repository.NopArchive{}
	}
	return &IngestService{
		repos:    repos,
		bins:     bins,
		alerts:   alerts,
		locks:    locks,
		resolver: resolver,
		archive:  archive,
		metrics:  m,
		log:      log,
	}
}

// Ingest parses one raw line from deviceID and feeds it through the pipeline.
// Bad input is logged and returned as an error; it never panics.
func (s *IngestService) Ingest(ctx context.Context, deviceID string, raw []byte) (IngestResult, error) {
	r, err := ParseReading(raw)
	if err != nil {
		s.dropped(deviceID, 0, err)
		return IngestResult{}, err
	}
	return s.IngestReading(ctx, deviceID, r)
}

// IngestReading feeds an already parsed reading through the pipeline.
func (s *IngestService) IngestReading(ctx context.Context, deviceID string, r models.Reading) (IngestResult, error) {
	if r.FillLevel < MinFill || r.FillLevel > MaxFill {
		err := fmt.Errorf("%w: %d", ErrFillOutOfRange, r.FillLevel)
		s.dropped(deviceID, 0, err)
		return IngestResult{}, err
	}

	binID, err := s.resolve(ctx, deviceID, r.BinID)
	if err != nil {
		s.dropped(deviceID, 0, err)
		return IngestResult{}, err
	}

	res, err := s.apply(ctx, binID, deviceID, r)
	if err != nil {
		s.dropped(deviceID, binID, err)
		return IngestResult{}, err
	}

	s.metrics.Reading(metrics.ReadingAccepted)
	s.log.Debugw("reading_accepted",
		"bin_id", binID,
		"device_id", deviceID,
		"fill_level", r.FillLevel,
		"status", res.Reading.Current,
	)
	s.archiveReading(ctx, res.Stored)
	return res, nil
}

// ApplyReading stores fill for binID through the same pipeline as device input, so a FULL
// result still opens the collection request.
func (s *IngestService) ApplyReading(ctx context.Context, binID int64, r models.Reading, deviceID string) (IngestResult, error) {
	r.BinID = &binID
	return s.IngestReading(ctx, deviceID, r)
}

// apply holds the bin lock across the transaction and the publish, so events leave in commit order.
func (s *IngestService) apply(ctx context.Context, binID int64, deviceID string, r models.Reading) (IngestResult, error) {
	unlock := s.locks.Lock(binID)
	defer unlock()

	var res IngestResult
	err := s.repos.Tx.Do(ctx, func(ctx context.Context) error {
		rr, stored, err := s.bins.applyLocked(ctx, binID, r, deviceID)
		if err != nil {
			return err
		}
		res.Reading, res.Stored = rr, stored

		if rr.Current != models.StatusFull {
			return nil
		}
		req, created, err := s.alerts.requestLocked(ctx, binID, AlertParams{
			Reason:   reasonBinFull,
			Priority: models.PriorityHigh,
		})
		if err != nil {
			return err
		}
		res.Request, res.RequestCreated = &req, created
		return nil
	})
	if err != nil {
		return IngestResult{}, txErr("ingest reading", err)
	}

	s.bins.notify.sensorUpdate(res.Reading.Bin)
	if res.Request != nil {
		s.alerts.recorded(*res.Request, res.RequestCreated)
	}
	return res, nil
}

func (s *IngestService) resolve(ctx context.Context, deviceID string, explicit *int64) (int64, error) {
	if explicit != nil {
		return *explicit, nil
	}
	if s.resolver == nil {
		return 0, fmt.Errorf("device %q has no bin mapping: %w", deviceID, ErrBinNotFound)
	}
	id, err := s.resolver.Resolve(ctx, deviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("device %q: %w", deviceID, ErrBinNotFound)
		}
		return 0, storeErr("resolve device", err)
	}
	return id, nil
}

func (s *IngestService) archiveReading(ctx context.Context, r models.SensorReading) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	if err := s.archive.Archive(ctx, r); err != nil {
		s.log.Warnw("reading_archive_failed", "bin_id", r.BinID, "err", err)
	}
}

func (s *IngestService) dropped(deviceID string, binID int64, err error) {
	result := metrics.ReadingFailed
	switch {
	case errors.Is(err, ErrMalformedReading):
		result = metrics.ReadingMalformed
	case errors.Is(err, ErrFillOutOfRange):
		result = metrics.ReadingRejected
	case errors.Is(err, ErrBinNotFound):
		result = metrics.ReadingNotFound
	}
	s.metrics.Reading(result)

	if result == metrics.ReadingFailed {
		s.log.Errorw("reading_store_failed", "device_id", deviceID, "bin_id", binID, "err", err)
		return
	}
	s.log.Warnw("reading_dropped", "device_id", deviceID, "bin_id", binID, "reason", result, "err", err)
}
