package handlers

import (
	"context"
	"net/http"
	"sync"

	"bin_monitoring/internal/models"
	"bin_monitoring/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	principal service.Principal
	parseErr  error

	lastParseToken string
}

func (m *mockAuth) ParseToken(token string) (service.Principal, error) {
	m.lastParseToken = token
	return m.principal, m.parseErr
}

func (m *mockAuth) IssueToken(userID int64, role string) (string, error) {
	return "token", nil
}

type mockBins struct {
	bins        []models.Bin
	err         error
	registerErr error
	lastNew     models.NewBin
}

func (m *mockBins) GetBin(ctx context.Context, id int64) (models.Bin, error) {
	if m.err != nil {
		return models.Bin{}, m.err
	}
	for _, b := range m.bins {
		if b.ID == id {
			return b, nil
		}
	}
	return models.Bin{}, service.ErrBinNotFound
}

func (m *mockBins) GetBinByOwner(ctx context.Context, ownerID int64) (models.Bin, error) {
	for _, b := range m.bins {
		if b.OwnerID == ownerID {
			return b, nil
		}
	}
	return models.Bin{}, service.ErrBinNotFound
}

func (m *mockBins) ListBins(ctx context.Context) ([]models.Bin, error) {
	return m.bins, m.err
}

func (m *mockBins) RegisterBin(ctx context.Context, nb models.NewBin) (models.Bin, error) {
	m.lastNew = nb
	if m.registerErr != nil {
		return models.Bin{}, m.registerErr
	}
	return models.Bin{ID: 99, OwnerID: nb.OwnerID, Location: nb.Location, Status: models.StatusEmpty}, nil
}

// mockAlerts behaves like the real coordinator: the first request per bin is created, later ones are returned.
type mockAlerts struct {
	mu       sync.Mutex
	pending  map[int64]models.CollectionRequest
	err      error
	lastSeen service.AlertParams
	nextID   int64
}

func newMockAlerts() *mockAlerts {
	return &mockAlerts{pending: make(map[int64]models.CollectionRequest)}
}

func (m *mockAlerts) RequestCollectionIfNeeded(ctx context.Context, binID int64, p service.AlertParams) (models.CollectionRequest, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSeen = p
	if m.err != nil {
		return models.CollectionRequest{}, false, m.err
	}
	if req, ok := m.pending[binID]; ok {
		return req, false, nil
	}
	m.nextID++
	req := models.CollectionRequest{
		ID:          m.nextID,
		BinID:       binID,
		RequestedBy: p.RequestedBy,
		CompanyID:   p.CompanyID,
		Reason:      p.Reason,
		Priority:    p.Priority,
		Status:      models.RequestPending,
	}
	m.pending[binID] = req
	return req, true, nil
}

func (m *mockAlerts) HasPending(ctx context.Context, binID int64) (models.CollectionRequest, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.CollectionRequest{}, false, m.err
	}
	req, ok := m.pending[binID]
	return req, ok, nil
}

func (m *mockAlerts) CancelPending(ctx context.Context, binID int64) (models.CollectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.pending[binID]
	if !ok {
		return models.CollectionRequest{}, service.ErrNoPendingRequest
	}
	delete(m.pending, binID)
	req.Status = models.RequestCancelled
	return req, nil
}

// fulfil mimics the collection handler closing the request.
func (m *mockAlerts) fulfil(binID int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pending[binID]; !ok {
		return 0
	}
	delete(m.pending, binID)
	return 1
}

type mockCollection struct {
	bins   *mockBins
	alerts *mockAlerts
	err    error

	lastOwner     int64
	lastCollector int64
	lastNote      string
	records       []models.CollectionRecord
}

func (m *mockCollection) CompleteCollection(ctx context.Context, binID, collectorID int64, note string) (service.CollectionResult, error) {
	if m.err != nil {
		return service.CollectionResult{}, m.err
	}
	bin, err := m.bins.GetBin(ctx, binID)
	if err != nil {
		return service.CollectionResult{}, err
	}
	bin.FillLevel = 0
	bin.Status = models.StatusEmpty
	rec := models.CollectionRecord{ID: int64(len(m.records) + 1), BinID: binID, CollectorID: collectorID, Note: note}
	m.records = append(m.records, rec)
	closed := int64(0)
	if m.alerts != nil {
		closed = m.alerts.fulfil(binID)
	}
	return service.CollectionResult{Bin: bin, Record: rec, ClosedRequests: closed}, nil
}

func (m *mockCollection) CompleteCollectionForOwner(ctx context.Context, ownerID, collectorID int64, note string) (service.CollectionResult, error) {
	m.lastOwner, m.lastCollector, m.lastNote = ownerID, collectorID, note
	if m.err != nil {
		return service.CollectionResult{}, m.err
	}
	bin, err := m.bins.GetBinByOwner(ctx, ownerID)
	if err != nil {
		return service.CollectionResult{}, err
	}
	return m.CompleteCollection(ctx, bin.ID, collectorID, note)
}

func (m *mockCollection) CollectionHistory(ctx context.Context, binID int64) ([]models.CollectionRecord, error) {
	return m.records, m.err
}

type mockHistory struct {
	resp []models.SensorReading
	err  error
	last service.ReadingFilter
}

func (m *mockHistory) ListReadings(ctx context.Context, f service.ReadingFilter) ([]models.SensorReading, error) {
	m.last = f
	return m.resp, m.err
}

type mockIngest struct {
	res        service.IngestResult
	err        error
	lastDevice string
	lastRaw    string
}

func (m *mockIngest) Ingest(ctx context.Context, deviceID string, raw []byte) (service.IngestResult, error) {
	m.lastDevice, m.lastRaw = deviceID, string(raw)
	return m.res, m.err
}

func (m *mockIngest) IngestReading(ctx context.Context, deviceID string, r models.Reading) (service.IngestResult, error) {
	m.lastDevice = deviceID
	return m.res, m.err
}

func (m *mockIngest) ApplyReading(ctx context.Context, binID int64, r models.Reading, deviceID string) (service.IngestResult, error) {
	return m.IngestReading(ctx, deviceID, r)
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
