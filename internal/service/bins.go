package service

import (
	"context"
	"fmt"
	"strings"

	"bin_monitoring/internal/logger"
	"bin_monitoring/internal/models"
	"bin_monitoring/internal/repository"
)

// ReadingResult reports the status transition caused by one reading.
type ReadingResult struct {
	Previous models.BinStatus `json:"previousStatus"`
	Current  models.BinStatus `json:"status"`
	Bin      models.Bin       `json:"bin"`
}

// BecameFull is true when the reading moved the bin into FULL.
func (r ReadingResult) BecameFull() bool {
	return r.Current == models.StatusFull && r.Previous != models.StatusFull
}

// BinStateService owns reads and writes of a bin's fill level and status.
type BinStateService struct {
	repos      *repository.Repository
	classifier Classifier
	notify     notifier
	log        *logger.Logger
}

func NewBinStateService(repos *repository.Repository, c Classifier, n notifier, log *logger.Logger) *BinStateService {
	return &BinStateService{repos: repos, classifier: c, notify: n, log: log}
}

// applyLocked expects the bin lock held and ctx bound to a transaction.
func (s *BinStateService) applyLocked(ctx context.Context, binID int64, r models.Reading, deviceID string) (ReadingResult, models.SensorReading, error) {
	bin, err := s.repos.Bins.Get(ctx, binID)
	if err != nil {
		return ReadingResult{}, models.SensorReading{}, binErr("load bin", binID, err)
	}

	ts := now()
	recordedAt := ts
	if r.Timestamp != nil {
		recordedAt = r.Timestamp.UTC()
	}
	status := s.classifier.Classify(r.FillLevel)

	if err := s.repos.Bins.UpdateFill(ctx, binID, r.FillLevel, status, ts); err != nil {
		return ReadingResult{}, models.SensorReading{}, binErr("update fill", binID, err)
	}
	stored, err := s.repos.Readings.Append(ctx, models.SensorReading{
		BinID:       binID,
		DeviceID:    deviceID,
		FillLevel:   r.FillLevel,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		RecordedAt:  recordedAt,
	})
	if err != nil {
		return ReadingResult{}, models.SensorReading{}, storeErr("append reading", err)
	}

	prev := bin.Status
	bin.FillLevel = r.FillLevel
	bin.Status = status
	bin.UpdatedAt = ts
	return ReadingResult{Previous: prev, Current: status, Bin: bin}, stored, nil
}

func (s *BinStateService) GetBin(ctx context.Context, id int64) (models.Bin, error) {
	b, err := s.repos.Bins.Get(ctx, id)
	if err != nil {
		return models.Bin{}, binErr("get bin", id, err)
	}
	return b, nil
}

// GetBinByOwner returns the owner's most recently registered bin.
func (s *BinStateService) GetBinByOwner(ctx context.Context, ownerID int64) (models.Bin, error) {
	b, err := s.repos.Bins.GetByOwner(ctx, ownerID)
	if err != nil {
		return models.Bin{}, ownerErr(ownerID, err)
	}
	return b, nil
}

func (s *BinStateService) ListBins(ctx context.Context) ([]models.Bin, error) {
	bins, err := s.repos.Bins.List(ctx)
	if err != nil {
		return nil, storeErr("list bins", err)
	}
	return bins, nil
}

// RegisterBin creates an EMPTY bin with fill level 0.
func (s *BinStateService) RegisterBin(ctx context.Context, nb models.NewBin) (models.Bin, error) {
	if nb.OwnerID <= 0 {
		return models.Bin{}, fmt.Errorf("%w: ownerId must be positive", ErrInvalidBin)
	}
	nb.Location = strings.TrimSpace(nb.Location)

	b, err := s.repos.Bins.Create(ctx, nb, now())
	if err != nil {
		return models.Bin{}, storeErr("create bin", err)
	}
	s.log.Infow("bin_registered", "bin_id", b.ID, "owner_id", b.OwnerID)
	return b, nil
}
