package source

import (
	"context"
	"fmt"
	"strings"

	"bin_monitoring/internal/models"
	"bin_monitoring/internal/repository"
)

type LatestBinFinder interface {
	Latest(ctx context.Context) (models.Bin, error)
}

// DeviceResolver maps device ids to bins for readings that carry no binId.
// With fallbackLatest set, unmapped devices report for the most recently created bin.
type DeviceResolver struct {
	devices        map[string]int64
	fallbackLatest bool
	bins           LatestBinFinder
}

// NewDeviceResolver matches device ids case-insensitively.
func NewDeviceResolver(devices map[string]int64, fallbackLatest bool, bins LatestBinFinder) *DeviceResolver {
	m := make(map[string]int64, len(devices))
	for k, v := range devices {
		m[strings.ToLower(k)] = v
	}
	return &DeviceResolver{devices: m, fallbackLatest: fallbackLatest, bins: bins}
}

func (r *DeviceResolver) Resolve(ctx context.Context, deviceID string) (int64, error) {
	if id, ok := r.devices[strings.ToLower(deviceID)]; ok {
		return id, nil
	}
	if !r.fallbackLatest || r.bins == nil {
		return 0, fmt.Errorf("device %q is not mapped: %w", deviceID, repository.ErrNotFound)
	}
	b, err := r.bins.Latest(ctx)
	if err != nil {
		return 0, err
	}
	return b.ID, nil
}
