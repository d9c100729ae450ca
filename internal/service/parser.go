package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"bin_monitoring/internal/models"
)

// wireReading is the device payload before validation.
type wireReading struct {
	BinID       *int64   `json:"binId"`
	FillLevel   *float64 `json:"fillLevel"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Timestamp   *string  `json:"timestamp"`
}

// ParseReading accepts a JSON object or a bare number. Fractional fill levels are rounded
// half away from zero before the 0..100 range check.
func ParseReading(raw []byte) (models.Reading, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return models.Reading{}, fmt.Errorf("%w: empty input", ErrMalformedReading)
	}

	var w wireReading
	if raw[0] == '{' {
		if err := json.Unmarshal(raw, &w); err != nil {
			return models.Reading{}, fmt.Errorf("%w: %v", ErrMalformedReading, err)
		}
		if w.FillLevel == nil {
			return models.Reading{}, fmt.Errorf("%w: fillLevel is required", ErrMalformedReading)
		}
	} else {
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return models.Reading{}, fmt.Errorf("%w: %q is not a number", ErrMalformedReading, truncate(raw, 32))
		}
		w.FillLevel = &f
	}
	return w.validate()
}

func (w wireReading) validate() (models.Reading, error) {
	f := *w.FillLevel
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return models.Reading{}, fmt.Errorf("%w: fillLevel is not finite", ErrMalformedReading)
	}
	fill := math.Round(f)
	if fill < MinFill || fill > MaxFill {
		return models.Reading{}, fmt.Errorf("%w: %v", ErrFillOutOfRange, f)
	}
	if w.BinID != nil && *w.BinID <= 0 {
		return models.Reading{}, fmt.Errorf("%w: binId must be positive", ErrMalformedReading)
	}

	out := models.Reading{
		BinID:       w.BinID,
		FillLevel:   int(fill),
		Temperature: finiteOrNil(w.Temperature),
		Humidity:    finiteOrNil(w.Humidity),
	}
	if w.Timestamp != nil && *w.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, *w.Timestamp)
		if err != nil {
			return models.Reading{}, fmt.Errorf("%w: timestamp: %v", ErrMalformedReading, err)
		}
		ts = ts.UTC()
		out.Timestamp = &ts
	}
	return out, nil
}

func finiteOrNil(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
