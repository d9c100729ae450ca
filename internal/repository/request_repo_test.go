package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"bin_monitoring/internal/models"
	"bin_monitoring/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

var requestCols = []string{"id", "bin_id", "requested_by", "company_id", "reason", "priority", "status", "created_at", "closed_at"}

func TestRequestSQL_CreatePending_Created(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewRequestSQL(db)

	ts := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (bin_id) WHERE status = 'PENDING' DO NOTHING")).
		WithArgs(int64(1), nil, nil, "bin full", "NORMAL", ts).
		WillReturnRows(sqlmock.NewRows(requestCols).
			AddRow(10, 1, nil, nil, "bin full", "NORMAL", "PENDING", ts, nil))

	got, created, err := repo.CreatePending(context.Background(), models.CollectionRequest{
		BinID:     1,
		Reason:    "bin full",
		CreatedAt: ts,
	})
	if err != nil {
		t.Fatalf("CreatePending() error = %v", err)
	}
	if !created || got.ID != 10 || got.Status != models.RequestPending {
		t.Fatalf("unexpected result: created=%v req=%+v", created, got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRequestSQL_CreatePending_ConflictYieldsNotCreated(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewRequestSQL(db)

	// DO NOTHING returns no row.
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO collection_requests")).
		WillReturnRows(sqlmock.NewRows(requestCols))

	_, created, err := repo.CreatePending(context.Background(), models.CollectionRequest{BinID: 1})
	if err != nil {
		t.Fatalf("CreatePending() error = %v", err)
	}
	if created {
		t.Fatalf("expected created=false on conflict")
	}
}

func TestRequestSQL_CreatePending_UniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"postgres", &pq.Error{Code: "23505"}},
		{"sqlite", errors.New("constraint failed: UNIQUE constraint failed: collection_requests.bin_id (2067)")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := repository.NewRequestSQL(db)

			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO collection_requests")).WillReturnError(tt.err)

			_, created, err := repo.CreatePending(context.Background(), models.CollectionRequest{BinID: 2})
			if err != nil || created {
				t.Fatalf("expected (false, nil), got (%v, %v)", created, err)
			}
		})
	}
}

func TestRequestSQL_CreatePending_OtherErrorPropagates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewRequestSQL(db)

	boom := errors.New("disk I/O error")
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO collection_requests")).WillReturnError(boom)

	_, _, err := repo.CreatePending(context.Background(), models.CollectionRequest{BinID: 2})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped %v, got %v", boom, err)
	}
}

func TestRequestSQL_GetPending_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewRequestSQL(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE bin_id = ? AND status = 'PENDING'")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(requestCols))

	if _, err := repo.GetPending(context.Background(), 5); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRequestSQL_ClosePending_ReturnsRowsAffected(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewRequestSQL(db)

	at := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE collection_requests SET status = ?, closed_at = ?")).
		WithArgs("FULFILLED", at, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.ClosePending(context.Background(), 5, models.RequestFulfilled, at)
	if err != nil {
		t.Fatalf("ClosePending() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("rows = %d, want 1", n)
	}
}
