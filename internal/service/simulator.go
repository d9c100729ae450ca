package service

import (
	"context"
	"math/rand"
	"time"

	"bin_monitoring/internal/logger"
	"bin_monitoring/internal/models"
	"bin_monitoring/internal/repository"
)

// ----------- Simulation constants -----------
const (
	SimulatorDeviceID = "simulator"
	MinFillStep       = 1    // % per tick
	MaxFillStep       = 6    // % per tick
	AmbientC          = 18.0 // °C inside a closed bin
	TempJitterC       = 1.5  // ± °C per reading
)

// SimulatorService feeds synthetic readings for every registered bin through the ingest pipeline.
type SimulatorService struct {
	repos  *repository.Repository
	ingest *IngestService
	rnd    *rand.Rand
	log    *logger.Logger
}

func NewSimulatorService(repos *repository.Repository, ingest *IngestService, seed int64, log *logger.Logger) *SimulatorService {
	return &SimulatorService{
		repos:  repos,
		ingest: ingest,
		rnd:    rand.New(rand.NewSource(seed)),
		log:    log,
	}
}

// Run ticks at the given interval until ctx is canceled.
func (s *SimulatorService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.step(ctx)
		}
	}
}

// step advances each bin that is not already at capacity and returns how many readings were accepted.
func (s *SimulatorService) step(ctx context.Context) int {
	bins, err := s.repos.Bins.List(ctx)
	if err != nil {
		s.log.Warnw("simulator_list_failed", "err", err)
		return 0
	}

	accepted := 0
	for _, b := range bins {
		if b.FillLevel >= MaxFill {
			// Stays full until collected.
			continue
		}
		r := models.Reading{
			FillLevel:   s.nextFill(b.FillLevel),
			Temperature: s.temperature(),
		}
		if _, err := s.ingest.ApplyReading(ctx, b.ID, r, SimulatorDeviceID); err != nil {
			continue
		}
		accepted++
	}
	return accepted
}

func (s *SimulatorService) nextFill(current int) int {
	next := current + MinFillStep + s.rnd.Intn(MaxFillStep-MinFillStep+1)
	if next > MaxFill {
		return MaxFill
	}
	return next
}

func (s *SimulatorService) temperature() *float64 {
	t := AmbientC + (s.rnd.Float64()*2-1)*TempJitterC
	return &t
}
