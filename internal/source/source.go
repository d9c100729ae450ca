// Package source feeds raw device readings into the ingest pipeline.
package source

import (
	"context"

	"bin_monitoring/internal/service"
)

// Sink receives one raw reading from a device. The ingest service satisfies it.
type Sink interface {
	Ingest(ctx context.Context, deviceID string, raw []byte) (service.IngestResult, error)
}

// Source produces readings until ctx is done.
type Source interface {
	Name() string
	Run(ctx context.Context, sink Sink) error
}
