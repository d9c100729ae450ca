package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bin_monitoring/internal/models"

	"github.com/jmoiron/sqlx"
)

type BinSQL struct {
	db *sqlx.DB
}

func NewBinSQL(db *sqlx.DB) *BinSQL {
	return &BinSQL{db: db}
}

var _ BinRepo = (*BinSQL)(nil)

const (
	binColumns = `id, owner_id, location, latitude, longitude, fill_level, status, last_collected_at, created_at, updated_at`

	insertBinSQL = `
		INSERT INTO bins (owner_id, location, latitude, longitude, fill_level, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, 'EMPTY', ?, ?)
		RETURNING ` + binColumns

	selectBinByIDSQL    = `SELECT ` + binColumns + ` FROM bins WHERE id = ?`
	selectBinByOwnerSQL = `SELECT ` + binColumns + ` FROM bins WHERE owner_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`
	selectLatestBinSQL  = `SELECT ` + binColumns + ` FROM bins ORDER BY created_at DESC, id DESC LIMIT 1`
	selectBinsSQL       = `SELECT ` + binColumns + ` FROM bins ORDER BY id ASC`

	updateFillSQL    = `UPDATE bins SET fill_level = ?, status = ?, updated_at = ? WHERE id = ?`
	markCollectedSQL = `UPDATE bins SET fill_level = 0, status = 'EMPTY', last_collected_at = ?, updated_at = ? WHERE id = ?`
)

func (r *BinSQL) Create(ctx context.Context, b models.NewBin, now time.Time) (models.Bin, error) {
	q := conn(ctx, r.db)
	ts := utc(now)

	var out models.Bin
	err := sqlx.GetContext(ctx, q, &out, q.Rebind(insertBinSQL),
		b.OwnerID, b.Location, b.Latitude, b.Longitude, ts, ts)
	if err != nil {
		return models.Bin{}, fmt.Errorf("insert bin for owner %d: %w", b.OwnerID, err)
	}
	return normalizeBin(out), nil
}

func (r *BinSQL) Get(ctx context.Context, id int64) (models.Bin, error) {
	return r.getOne(ctx, selectBinByIDSQL, id)
}

// GetByOwner returns the owner's most recently created bin.
func (r *BinSQL) GetByOwner(ctx context.Context, ownerID int64) (models.Bin, error) {
	return r.getOne(ctx, selectBinByOwnerSQL, ownerID)
}

// Latest returns the most recently created bin.
func (r *BinSQL) Latest(ctx context.Context) (models.Bin, error) {
	return r.getOne(ctx, selectLatestBinSQL)
}

func (r *BinSQL) getOne(ctx context.Context, query string, args ...any) (models.Bin, error) {
	q := conn(ctx, r.db)
	var b models.Bin
	if err := sqlx.GetContext(ctx, q, &b, q.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Bin{}, ErrNotFound
		}
		return models.Bin{}, err
	}
	return normalizeBin(b), nil
}

func (r *BinSQL) List(ctx context.Context) ([]models.Bin, error) {
	q := conn(ctx, r.db)
	bins := make([]models.Bin, 0, 32)
	if err := sqlx.SelectContext(ctx, q, &bins, q.Rebind(selectBinsSQL)); err != nil {
		return nil, err
	}
	for i := range bins {
		bins[i] = normalizeBin(bins[i])
	}
	return bins, nil
}

func (r *BinSQL) UpdateFill(ctx context.Context, id int64, fill int, status models.BinStatus, at time.Time) error {
	q := conn(ctx, r.db)
	res, err := q.ExecContext(ctx, q.Rebind(updateFillSQL), fill, string(status), utc(at), id)
	if err != nil {
		return fmt.Errorf("update fill of bin %d: %w", id, err)
	}
	return expectOneRow(res)
}

// MarkCollected resets the bin to EMPTY/0 and stamps last_collected_at.
func (r *BinSQL) MarkCollected(ctx context.Context, id int64, at time.Time) error {
	q := conn(ctx, r.db)
	ts := utc(at)
	res, err := q.ExecContext(ctx, q.Rebind(markCollectedSQL), ts, ts, id)
	if err != nil {
		return fmt.Errorf("reset bin %d: %w", id, err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func normalizeBin(b models.Bin) models.Bin {
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	if b.LastCollectedAt != nil {
		t := b.LastCollectedAt.UTC()
		b.LastCollectedAt = &t
	}
	return b
}
