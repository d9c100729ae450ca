package service

import (
	"fmt"

	"bin_monitoring/internal/config"
	"bin_monitoring/internal/models"
)

const (
	MinFill = 0
	MaxFill = 100
)

// DefaultThresholds: EMPTY below 40, PARTIAL from 40, FULL from 80.
var DefaultThresholds = config.Thresholds{Partial: 40, Full: 80}

// Classifier maps a fill level to a BinStatus. It is the only place the cutoffs are applied.
type Classifier struct {
	partial int
	full    int
}

func NewClassifier(t config.Thresholds) (Classifier, error) {
	if err := t.Validate(); err != nil {
		return Classifier{}, fmt.Errorf("classifier: %w", err)
	}
	return Classifier{partial: t.Partial, full: t.Full}, nil
}

func (c Classifier) Classify(fill int) models.BinStatus {
	switch {
	case fill >= c.full:
		return models.StatusFull
	case fill >= c.partial:
		return models.StatusPartial
	default:
		return models.StatusEmpty
	}
}
