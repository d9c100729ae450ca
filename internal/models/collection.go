package models

import "time"

type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestFulfilled RequestStatus = "FULFILLED"
	RequestCancelled RequestStatus = "CANCELLED"
)

type Priority string

const (
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// CollectionRequest records intent to empty a bin. At most one per bin is PENDING.
type CollectionRequest struct {
	ID          int64         `json:"id" db:"id"`
	BinID       int64         `json:"bin_id" db:"bin_id"`
	RequestedBy *int64        `json:"requested_by,omitempty" db:"requested_by"` // nil when device-triggered
	CompanyID   *int64        `json:"company_id,omitempty" db:"company_id"`
	Reason      string        `json:"reason" db:"reason"`
	Priority    Priority      `json:"priority" db:"priority"`
	Status      RequestStatus `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	ClosedAt    *time.Time    `json:"closed_at,omitempty" db:"closed_at"`
}

// CollectionRecord is the append-only history entry for a completed collection.
type CollectionRecord struct {
	ID          int64     `json:"id" db:"id"`
	BinID       int64     `json:"bin_id" db:"bin_id"`
	CollectorID int64     `json:"collector_id" db:"collector_id"`
	Note        string    `json:"note" db:"note"`
	CollectedAt time.Time `json:"collected_at" db:"collected_at"`
}
