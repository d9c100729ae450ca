package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bin_monitoring/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type RequestSQL struct {
	db *sqlx.DB
}

func NewRequestSQL(db *sqlx.DB) *RequestSQL { return &RequestSQL{db: db} }

var _ RequestRepo = (*RequestSQL)(nil)

const (
	requestColumns = `id, bin_id, requested_by, company_id, reason, priority, status, created_at, closed_at`

	// The partial unique index idx_collection_requests_one_pending is the conflict target.
	insertPendingSQL = `
		INSERT INTO collection_requests (bin_id, requested_by, company_id, reason, priority, status, created_at)
		VALUES (?, ?, ?, ?, ?, 'PENDING', ?)
		ON CONFLICT (bin_id) WHERE status = 'PENDING' DO NOTHING
		RETURNING ` + requestColumns

	selectPendingSQL = `SELECT ` + requestColumns + ` FROM collection_requests WHERE bin_id = ? AND status = 'PENDING'`

	closePendingSQL = `UPDATE collection_requests SET status = ?, closed_at = ? WHERE bin_id = ? AND status = 'PENDING'`

	pqUniqueViolation = "23505"
)

func (r *RequestSQL) CreatePending(ctx context.Context, req models.CollectionRequest) (models.CollectionRequest, bool, error) {
	q := conn(ctx, r.db)
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	var out models.CollectionRequest
	err := sqlx.GetContext(ctx, q, &out, q.Rebind(insertPendingSQL),
		req.BinID, req.RequestedBy, req.CompanyID, req.Reason, string(priority), utc(req.CreatedAt))
	switch {
	case err == nil:
		return normalizeRequest(out), true, nil
	case errors.Is(err, sql.ErrNoRows), isUniqueViolation(err):
		return models.CollectionRequest{}, false, nil
	default:
		return models.CollectionRequest{}, false, fmt.Errorf("insert pending request for bin %d: %w", req.BinID, err)
	}
}

func (r *RequestSQL) GetPending(ctx context.Context, binID int64) (models.CollectionRequest, error) {
	q := conn(ctx, r.db)
	var out models.CollectionRequest
	if err := sqlx.GetContext(ctx, q, &out, q.Rebind(selectPendingSQL), binID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CollectionRequest{}, ErrNotFound
		}
		return models.CollectionRequest{}, err
	}
	return normalizeRequest(out), nil
}

// ClosePending moves the bin's PENDING request (if any) to status and returns the rows touched.
func (r *RequestSQL) ClosePending(ctx context.Context, binID int64, status models.RequestStatus, at time.Time) (int64, error) {
	q := conn(ctx, r.db)
	res, err := q.ExecContext(ctx, q.Rebind(closePendingSQL), string(status), utc(at), binID)
	if err != nil {
		return 0, fmt.Errorf("close pending request for bin %d: %w", binID, err)
	}
	return res.RowsAffected()
}

// isUniqueViolation recognises duplicate-key errors from both supported drivers.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func normalizeRequest(r models.CollectionRequest) models.CollectionRequest {
	r.CreatedAt = r.CreatedAt.UTC()
	if r.ClosedAt != nil {
		t := r.ClosedAt.UTC()
		r.ClosedAt = &t
	}
	return r
}
