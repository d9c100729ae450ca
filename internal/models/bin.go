package models

import "time"

// BinStatus is the three-way classification of a bin's fill level.
type BinStatus string

const (
	StatusEmpty   BinStatus = "EMPTY"
	StatusPartial BinStatus = "PARTIAL"
	StatusFull    BinStatus = "FULL"
)

// Bin is the current state of a tracked waste bin.
type Bin struct {
	ID              int64      `json:"id" db:"id"`
	OwnerID         int64      `json:"owner_id" db:"owner_id"`
	Location        string     `json:"location" db:"location"`
	Latitude        *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude       *float64   `json:"longitude,omitempty" db:"longitude"`
	FillLevel       int        `json:"fill_level" db:"fill_level"` // 0-100
	Status          BinStatus  `json:"status" db:"status"`
	LastCollectedAt *time.Time `json:"last_collected_at,omitempty" db:"last_collected_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// NewBin is the registration payload for a bin; fill level starts at 0.
type NewBin struct {
	OwnerID   int64
	Location  string
	Latitude  *float64
	Longitude *float64
}
