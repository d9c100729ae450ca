package repository

import (
	"context"
	"fmt"
	"strconv"

	"bin_monitoring/internal/models"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// ReadingArchive mirrors accepted readings into a time-series store.
type ReadingArchive interface {
	Archive(ctx context.Context, r models.SensorReading) error
	Close()
}

const readingMeasurement = "bin_fill"

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxArchive writes one point per reading with the blocking write API.
type InfluxArchive struct {
	client influxdb2.Client
	writer pointWriter
}

func NewInfluxArchive(url, token, org, bucket string) *InfluxArchive {
	client := influxdb2.NewClient(url, token)
	return &InfluxArchive{
		client: client,
		writer: client.WriteAPIBlocking(org, bucket),
	}
}

var _ ReadingArchive = (*InfluxArchive)(nil)

func (a *InfluxArchive) Archive(ctx context.Context, r models.SensorReading) error {
	if err := a.writer.WritePoint(ctx, readingPoint(r)); err != nil {
		return fmt.Errorf("write influx point for bin %d: %w", r.BinID, err)
	}
	return nil
}

func (a *InfluxArchive) Close() {
	if a.client != nil {
		a.client.Close()
	}
}

func readingPoint(r models.SensorReading) *write.Point {
	tags := map[string]string{"bin_id": strconv.FormatInt(r.BinID, 10)}
	if r.DeviceID != "" {
		tags["device_id"] = r.DeviceID
	}
	fields := map[string]any{"fill_level": r.FillLevel}
	if r.Temperature != nil {
		fields["temperature"] = *r.Temperature
	}
	if r.Humidity != nil {
		fields["humidity"] = *r.Humidity
	}
	return influxdb2.NewPoint(readingMeasurement, tags, fields, r.RecordedAt)
}

// NopArchive discards readings; used when influx.url is unset.
type NopArchive struct{}

func (NopArchive) Archive(context.Context, models.SensorReading) error { return nil }
func (NopArchive) Close()                                              {}
