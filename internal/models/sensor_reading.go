package models

import "time"

// SensorReading is an append-only log row, one per accepted reading.
type SensorReading struct {
	ID          int64     `json:"id" db:"id"`
	BinID       int64     `json:"bin_id" db:"bin_id"`
	DeviceID    string    `json:"device_id,omitempty" db:"device_id"`
	FillLevel   int       `json:"fill_level" db:"fill_level"`
	Temperature *float64  `json:"temperature,omitempty" db:"temperature"`
	Humidity    *float64  `json:"humidity,omitempty" db:"humidity"`
	RecordedAt  time.Time `json:"recorded_at" db:"recorded_at"`
}

// Reading is a parsed, validated measurement that has not been persisted yet.
type Reading struct {
	BinID       *int64     `json:"binId,omitempty"`
	FillLevel   int        `json:"fillLevel"`
	Temperature *float64   `json:"temperature,omitempty"`
	Humidity    *float64   `json:"humidity,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}
