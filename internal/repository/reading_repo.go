package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bin_monitoring/internal/models"

	"github.com/jmoiron/sqlx"
)

type ReadingSQL struct {
	db *sqlx.DB
}

func NewReadingSQL(db *sqlx.DB) *ReadingSQL { return &ReadingSQL{db: db} }

var _ ReadingRepo = (*ReadingSQL)(nil)

const (
	readingColumns = `id, bin_id, device_id, fill_level, temperature, humidity, recorded_at`

	insertReadingSQL = `
		INSERT INTO sensor_readings (bin_id, device_id, fill_level, temperature, humidity, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING ` + readingColumns

	defaultReadingLimit = 500
)

// Append inserts a reading. A zero RecordedAt is set to now.
func (r *ReadingSQL) Append(ctx context.Context, rd models.SensorReading) (models.SensorReading, error) {
	q := conn(ctx, r.db)
	var out models.SensorReading
	err := sqlx.GetContext(ctx, q, &out, q.Rebind(insertReadingSQL),
		rd.BinID,
		strings.TrimSpace(rd.DeviceID),
		rd.FillLevel,
		rd.Temperature,
		rd.Humidity,
		utc(rd.RecordedAt),
	)
	if err != nil {
		return models.SensorReading{}, fmt.Errorf("insert reading for bin %d: %w", rd.BinID, err)
	}
	out.RecordedAt = out.RecordedAt.UTC()
	return out, nil
}

// List returns a bin's readings in [from, to] (zero bounds are open), newest first.
func (r *ReadingSQL) List(ctx context.Context, binID int64, from, to time.Time, limit int) ([]models.SensorReading, error) {
	conds := []string{"bin_id = ?"}
	args := []any{binID}

	if !from.IsZero() {
		conds = append(conds, "recorded_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "recorded_at <= ?")
		args = append(args, to.UTC())
	}
	if limit <= 0 || limit > defaultReadingLimit {
		limit = defaultReadingLimit
	}
	args = append(args, limit)

	query := `SELECT ` + readingColumns + ` FROM sensor_readings WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY recorded_at DESC, id DESC LIMIT ?`

	q := conn(ctx, r.db)
	out := make([]models.SensorReading, 0, 64)
	if err := sqlx.SelectContext(ctx, q, &out, q.Rebind(query), args...); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].RecordedAt = out[i].RecordedAt.UTC()
	}
	return out, nil
}
