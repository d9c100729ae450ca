package models

import "time"

// Event types pushed to live subscribers.
const (
	EventSensorUpdate        = "sensorUpdate"
	EventCollectionRequested = "collectionRequested"
	EventCollectionCancelled = "collectionCancelled"
	EventSnapshot            = "snapshot"
)

// Event is a state change fanned out to dashboards.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	BinID      int64     `json:"binId"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data,omitempty"`
}

// SensorUpdate is the payload of a sensorUpdate event.
type SensorUpdate struct {
	BinID     int64     `json:"binId"`
	FillLevel int       `json:"fillLevel"`
	Status    BinStatus `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
