package service

import (
	"context"
	"errors"
	"time"

	"bin_monitoring/internal/models"
	"bin_monitoring/internal/repository"
)

// ReadingFilter selects a bin's reading history.
type ReadingFilter struct {
	BinID int64
	From  time.Time // inclusive; zero means no lower bound
	To    time.Time // inclusive; zero means no upper bound
	Limit int       // <= 0 means the repository default
}

var ErrInvalidTimeRange = errors.New("invalid time range: from must be <= to")

type ReadingHistoryService struct {
	repos *repository.Repository
}

func NewReadingHistoryService(repos *repository.Repository) *ReadingHistoryService {
	return &ReadingHistoryService{repos: repos}
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func normalizeAndValidateFilter(f ReadingFilter) (ReadingFilter, error) {
	f.From = normalizeToUTC(f.From)
	f.To = normalizeToUTC(f.To)
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return ReadingFilter{}, ErrInvalidTimeRange
	}
	if f.Limit < 0 {
		f.Limit = 0
	}
	return f, nil
}

func (s *ReadingHistoryService) ListReadings(ctx context.Context, f ReadingFilter) ([]models.SensorReading, error) {
	f, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	if _, err := s.repos.Bins.Get(ctx, f.BinID); err != nil {
		return nil, binErr("load bin", f.BinID, err)
	}
	out, err := s.repos.Readings.List(ctx, f.BinID, f.From, f.To, f.Limit)
	if err != nil {
		return nil, storeErr("list readings", err)
	}
	return out, nil
}
