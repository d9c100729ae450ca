package service

import (
	"context"
	"time"

	"bin_monitoring/internal/config"
	"bin_monitoring/internal/logger"
	"bin_monitoring/internal/metrics"
	"bin_monitoring/internal/models"
	"bin_monitoring/internal/repository"
)

type Authorization interface {
	ParseToken(accessToken string) (Principal, error)
	IssueToken(userID int64, role string) (string, error)
}

// BinState exposes the authoritative fill level and status of each bin.
// Fill levels change only through ReadingIngest and Collection.
type BinState interface {
	GetBin(ctx context.Context, id int64) (models.Bin, error)
	GetBinByOwner(ctx context.Context, ownerID int64) (models.Bin, error)
	ListBins(ctx context.Context) ([]models.Bin, error)
	RegisterBin(ctx context.Context, nb models.NewBin) (models.Bin, error)
}

// Alerts coordinates the single PENDING collection request per bin.
type Alerts interface {
	RequestCollectionIfNeeded(ctx context.Context, binID int64, p AlertParams) (models.CollectionRequest, bool, error)
	HasPending(ctx context.Context, binID int64) (models.CollectionRequest, bool, error)
	CancelPending(ctx context.Context, binID int64) (models.CollectionRequest, error)
}

type Collection interface {
	CompleteCollection(ctx context.Context, binID, collectorID int64, note string) (CollectionResult, error)
	CompleteCollectionForOwner(ctx context.Context, ownerID, collectorID int64, note string) (CollectionResult, error)
	CollectionHistory(ctx context.Context, binID int64) ([]models.CollectionRecord, error)
}

type ReadingHistory interface {
	ListReadings(ctx context.Context, f ReadingFilter) ([]models.SensorReading, error)
}

// ReadingIngest is the sink reading sources and the manual HTTP endpoint write to.
type ReadingIngest interface {
	Ingest(ctx context.Context, deviceID string, raw []byte) (IngestResult, error)
	IngestReading(ctx context.Context, deviceID string, r models.Reading) (IngestResult, error)
	ApplyReading(ctx context.Context, binID int64, r models.Reading, deviceID string) (IngestResult, error)
}

// Simulator runs the background loop that fakes device readings.
// Stop via context cancellation in main() for graceful shutdown.
type Simulator interface {
	Run(ctx context.Context, tick time.Duration)
}

type Service struct {
	BinState
	Alerts
	Collection
	ReadingHistory
	ReadingIngest
	Simulator
	Authorization
}

// Deps are the collaborators NewService wires into the sub-services.
type Deps struct {
	Repos      *repository.Repository
	Hub        Publisher
	Thresholds config.Thresholds
	Resolver   BinResolver
	Archive    repository.ReadingArchive
	Metrics    *metrics.Metrics
	Log        *logger.Logger
	SigningKey string
	TokenTTL   time.Duration
}

// NewService wires the repository layer into concrete services. Every bin-mutating
// service shares one per-bin lock table.
func NewService(d Deps) (*Service, error) {
	classifier, err := NewClassifier(d.Thresholds)
	if err != nil {
		return nil, err
	}
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}

	locks := newBinLocker()
	n := notifier{hub: d.Hub, log: log.Named("hub")}

	bins := NewBinStateService(d.Repos, classifier, n, log.Named("bins"))
	alerts := NewAlertService(d.Repos, locks, n, d.Metrics, log.Named("alerts"))
	ingest := NewIngestService(d.Repos, bins, alerts, locks, d.Resolver, d.Archive, d.Metrics, log.Named("ingest"))

	return &Service{
		BinState:       bins,
		Alerts:         alerts,
		Collection:     NewCollectionService(d.Repos, locks, n, d.Metrics, log.Named("collection")),
		ReadingHistory: NewReadingHistoryService(d.Repos),
		ReadingIngest:  ingest,
		Simulator:      NewSimulatorService(d.Repos, ingest, time.Now().UnixNano(), log.Named("simulator")),
		Authorization:  NewAuthService(d.SigningKey, d.TokenTTL),
	}, nil
}
