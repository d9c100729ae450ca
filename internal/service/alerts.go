package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bin_monitoring/internal/logger"
	"bin_monitoring/internal/metrics"
	"bin_monitoring/internal/models"
	"bin_monitoring/internal/repository"
)

const (
	reasonBinFull   = "bin reported full"
	reasonUserAlert = "owner requested collection"
)

// AlertParams describes who asks for a collection and why. Nil RequestedBy means the device triggered it.
type AlertParams struct {
	RequestedBy *int64
	CompanyID   *int64
	Reason      string
	Priority    models.Priority
}

// AlertService keeps at most one PENDING collection request per bin.
type AlertService struct {
	repos   *repository.Repository
	locks   *binLocker
	notify  notifier
	metrics *metrics.Metrics
	log     *logger.Logger
}

func NewAlertService(repos *repository.Repository, locks *binLocker, n notifier, m *metrics.Metrics, log *logger.Logger) *AlertService {
	return &AlertService{repos: repos, locks: locks, notify: n, metrics: m, log: log}
}

// RequestCollectionIfNeeded returns the bin's PENDING request, creating it when none exists.
// created is false when an existing request was returned.
func (s *AlertService) RequestCollectionIfNeeded(ctx context.Context, binID int64, p AlertParams) (models.CollectionRequest, bool, error) {
	p, err := p.normalize()
	if err != nil {
		return models.CollectionRequest{}, false, err
	}

	unlock := s.locks.Lock(binID)
	defer unlock()

	var (
		req     models.CollectionRequest
		created bool
	)
	err = s.repos.Tx.Do(ctx, func(ctx context.Context) error {
		if _, err := s.repos.Bins.Get(ctx, binID); err != nil {
			return binErr("load bin", binID, err)
		}
		var err error
		req, created, err = s.requestLocked(ctx, binID, p)
		return err
	})
	if err != nil {
		return models.CollectionRequest{}, false, txErr("request collection", err)
	}
	s.recorded(req, created)
	return req, created, nil
}

// requestLocked expects the bin lock held and ctx bound to a transaction.
func (s *AlertService) requestLocked(ctx context.Context, binID int64, p AlertParams) (models.CollectionRequest, bool, error) {
	existing, err := s.repos.Requests.GetPending(ctx, binID)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return models.CollectionRequest{}, false, storeErr("get pending request", err)
	}

	req, created, err := s.repos.Requests.CreatePending(ctx, models.CollectionRequest{
		BinID:       binID,
		RequestedBy: p.RequestedBy,
		CompanyID:   p.CompanyID,
		Reason:      p.Reason,
		Priority:    p.Priority,
		Status:      models.RequestPending,
		CreatedAt:   now(),
	})
	if err != nil {
		return models.CollectionRequest{}, false, storeErr("create pending request", err)
	}
	if created {
		return req, true, nil
	}

	// Lost to a writer outside this process; hand back the winner's row.
	existing, err = s.repos.Requests.GetPending(ctx, binID)
	if err != nil {
		return models.CollectionRequest{}, false, storeErr("get pending request after conflict", err)
	}
	return existing, false, nil
}

func (s *AlertService) recorded(req models.CollectionRequest, created bool) {
	s.metrics.CollectionRequest(created)
	if !created {
		s.log.Infow("collection_request_deduplicated", "bin_id", req.BinID, "request_id", req.ID)
		return
	}
	s.log.Infow("collection_requested",
		"bin_id", req.BinID,
		"request_id", req.ID,
		"priority", req.Priority,
		"device_triggered", req.RequestedBy == nil,
	)
	s.notify.request(models.EventCollectionRequested, req)
}

// HasPending reports whether binID has an open request and returns it when it does.
func (s *AlertService) HasPending(ctx context.Context, binID int64) (models.CollectionRequest, bool, error) {
	if _, err := s.repos.Bins.Get(ctx, binID); err != nil {
		return models.CollectionRequest{}, false, binErr("load bin", binID, err)
	}
	req, err := s.repos.Requests.GetPending(ctx, binID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.CollectionRequest{}, false, nil
		}
		return models.CollectionRequest{}, false, storeErr("get pending request", err)
	}
	return req, true, nil
}

// CancelPending moves the bin's PENDING request to CANCELLED.
func (s *AlertService) CancelPending(ctx context.Context, binID int64) (models.CollectionRequest, error) {
	unlock := s.locks.Lock(binID)
	defer unlock()

	var req models.CollectionRequest
	err := s.repos.Tx.Do(ctx, func(ctx context.Context) error {
		if _, err := s.repos.Bins.Get(ctx, binID); err != nil {
			return binErr("load bin", binID, err)
		}
		var err error
		req, err = s.repos.Requests.GetPending(ctx, binID)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("bin %d: %w", binID, ErrNoPendingRequest)
		}
		if err != nil {
			return storeErr("get pending request", err)
		}
		at := now()
		if _, err := s.repos.Requests.ClosePending(ctx, binID, models.RequestCancelled, at); err != nil {
			return storeErr("cancel pending request", err)
		}
		req.Status = models.RequestCancelled
		req.ClosedAt = &at
		return nil
	})
	if err != nil {
		return models.CollectionRequest{}, txErr("cancel request", err)
	}
	s.log.Infow("collection_request_cancelled", "bin_id", binID, "request_id", req.ID)
	s.notify.request(models.EventCollectionCancelled, req)
	return req, nil
}

func (p AlertParams) normalize() (AlertParams, error) {
	p.Reason = strings.TrimSpace(p.Reason)
	if p.Reason == "" {
		p.Reason = reasonUserAlert
	}
	switch p.Priority {
	case "":
		p.Priority = models.PriorityNormal
	case models.PriorityNormal, models.PriorityHigh, models.PriorityUrgent:
	default:
		return p, fmt.Errorf("%w: unknown priority %q", ErrInvalidRequest, p.Priority)
	}
	return p, nil
}
