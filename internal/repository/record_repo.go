package repository

import (
	"context"
	"fmt"

	"bin_monitoring/internal/models"

	"github.com/jmoiron/sqlx"
)

type RecordSQL struct {
	db *sqlx.DB
}

func NewRecordSQL(db *sqlx.DB) *RecordSQL { return &RecordSQL{db: db} }

var _ RecordRepo = (*RecordSQL)(nil)

const (
	recordColumns = `id, bin_id, collector_id, note, collected_at`

	insertRecordSQL = `
		INSERT INTO collection_records (bin_id, collector_id, note, collected_at)
		VALUES (?, ?, ?, ?)
		RETURNING ` + recordColumns

	selectRecordsByBinSQL = `SELECT ` + recordColumns + ` FROM collection_records WHERE bin_id = ? ORDER BY collected_at DESC, id DESC`
)

func (r *RecordSQL) Append(ctx context.Context, rec models.CollectionRecord) (models.CollectionRecord, error) {
	q := conn(ctx, r.db)
	var out models.CollectionRecord
	err := sqlx.GetContext(ctx, q, &out, q.Rebind(insertRecordSQL),
		rec.BinID, rec.CollectorID, rec.Note, utc(rec.CollectedAt))
	if err != nil {
		return models.CollectionRecord{}, fmt.Errorf("insert collection record for bin %d: %w", rec.BinID, err)
	}
	out.CollectedAt = out.CollectedAt.UTC()
	return out, nil
}

func (r *RecordSQL) ListByBin(ctx context.Context, binID int64) ([]models.CollectionRecord, error) {
	q := conn(ctx, r.db)
	out := make([]models.CollectionRecord, 0, 16)
	if err := sqlx.SelectContext(ctx, q, &out, q.Rebind(selectRecordsByBinSQL), binID); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].CollectedAt = out[i].CollectedAt.UTC()
	}
	return out, nil
}
