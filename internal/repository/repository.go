package repository

import (
	"context"
	"errors"
	"time"

	"bin_monitoring/internal/models"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

type BinRepo interface {
	Create(ctx context.Context, b models.NewBin, now time.Time) (models.Bin, error)
	Get(ctx context.Context, id int64) (models.Bin, error)
	GetByOwner(ctx context.Context, ownerID int64) (models.Bin, error)
	Latest(ctx context.Context) (models.Bin, error)
	List(ctx context.Context) ([]models.Bin, error)
	UpdateFill(ctx context.Context, id int64, fill int, status models.BinStatus, at time.Time) error
	MarkCollected(ctx context.Context, id int64, at time.Time) error
}

type ReadingRepo interface {
	Append(ctx context.Context, r models.SensorReading) (models.SensorReading, error)
	List(ctx context.Context, binID int64, from, to time.Time, limit int) ([]models.SensorReading, error)
}

type RequestRepo interface {
	// CreatePending inserts a PENDING request. created is false when another PENDING row already exists.
	CreatePending(ctx context.Context, req models.CollectionRequest) (out models.CollectionRequest, created bool, err error)
	GetPending(ctx context.Context, binID int64) (models.CollectionRequest, error)
	ClosePending(ctx context.Context, binID int64, status models.RequestStatus, at time.Time) (int64, error)
}

type RecordRepo interface {
	Append(ctx context.Context, rec models.CollectionRecord) (models.CollectionRecord, error)
	ListByBin(ctx context.Context, binID int64) ([]models.CollectionRecord, error)
}

// Transactor runs fn as one atomic unit. Repositories called with the ctx passed to fn join it.
type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type Repository struct {
	Bins     BinRepo
	Readings ReadingRepo
	Requests RequestRepo
	Records  RecordRepo
	Tx       Transactor
}

func NewRepository(db *sqlx.DB, timeout time.Duration) *Repository {
	return &Repository{
		Bins:     NewBinSQL(db),
		Readings: NewReadingSQL(db),
		Requests: NewRequestSQL(db),
		Records:  NewRecordSQL(db),
		Tx:       NewTxManager(db, timeout),
	}
}
