package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"bin_monitoring/internal/models"
	"bin_monitoring/internal/repository"
)

// memStore is an in-memory repository. Each Do records undo steps and replays them when fn
// fails. Transactions are not serialized against each other; only the service's bin locks do that.
type memStore struct {
	mu sync.Mutex

	nextID   int64
	bins     map[int64]models.Bin
	readings []models.SensorReading
	requests []models.CollectionRequest
	records  []models.CollectionRecord

	fail map[string]error

	// getHook runs before every Bins.Get, outside mu. Set it before starting goroutines.
	getHook func(binID int64)
	// open and maxOpen count transactions per bin, keyed by the first bin each one loads.
	open    map[int64]int
	maxOpen map[int64]int
}

type memTxKey struct{}

type memTxState struct {
	undo []func()
	bin  int64
}

func newMemStore() *memStore {
	return &memStore{
		bins:    make(map[int64]models.Bin),
		fail:    make(map[string]error),
		open:    make(map[int64]int),
		maxOpen: make(map[int64]int),
	}
}

func (m *memStore) repos() *repository.Repository {
	return &repository.Repository{
		Bins:     memBins{m},
		Readings: memReadings{m},
		Requests: memRequests{m},
		Records:  memRecords{m},
		Tx:       memTx{m},
	}
}

func (m *memStore) failOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[op] = err
}

func (m *memStore) check(op string) error {
	if err, ok := m.fail[op]; ok {
		return err
	}
	return nil
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

// onRollback registers undo for the transaction bound to ctx. Callers hold mu.
func (m *memStore) onRollback(ctx context.Context, undo func()) {
	if st, ok := ctx.Value(memTxKey{}).(*memTxState); ok {
		st.undo = append(st.undo, undo)
	}
}

// enter marks the transaction in ctx as working on binID. Callers hold mu.
func (m *memStore) enter(ctx context.Context, binID int64) {
	st, ok := ctx.Value(memTxKey{}).(*memTxState)
	if !ok || st.bin != 0 {
		return
	}
	st.bin = binID
	m.open[binID]++
	if m.open[binID] > m.maxOpen[binID] {
		m.maxOpen[binID] = m.open[binID]
	}
}

// maxConcurrentTx is the most transactions that were ever open at once on binID.
func (m *memStore) maxConcurrentTx(binID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxOpen[binID]
}

func (m *memStore) addBin(ownerID int64, fill int, status models.BinStatus) models.Bin {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts := time.Now().UTC()
	b := models.Bin{ID: m.id(), OwnerID: ownerID, FillLevel: fill, Status: status, CreatedAt: ts, UpdatedAt: ts}
	m.bins[b.ID] = b
	return b
}

func (m *memStore) bin(id int64) models.Bin {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bins[id]
}

func (m *memStore) requestsFor(binID int64) []models.CollectionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CollectionRequest
	for _, r := range m.requests {
		if r.BinID == binID {
			out = append(out, r)
		}
	}
	return out
}

func (m *memStore) recordsFor(binID int64) []models.CollectionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CollectionRecord
	for _, r := range m.records {
		if r.BinID == binID {
			out = append(out, r)
		}
	}
	return out
}

// fillsFor lists the fill level of each stored reading of binID in insertion order.
func (m *memStore) fillsFor(binID int64) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int
	for _, r := range m.readings {
		if r.BinID == binID {
			out = append(out, r.FillLevel)
		}
	}
	return out
}

func (m *memStore) readingCount(binID int64) int {
	return len(m.fillsFor(binID))
}

type memTx struct{ m *memStore }

func (t memTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(memTxKey{}).(*memTxState); ok {
		return fn(ctx)
	}

	st := &memTxState{}
	err := fn(context.WithValue(ctx, memTxKey{}, st))

	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if err == nil {
		err = t.m.check("tx.commit")
	}
	if err != nil {
		for i := len(st.undo) - 1; i >= 0; i-- {
			st.undo[i]()
		}
	}
	if st.bin != 0 {
		t.m.open[st.bin]--
	}
	return err
}

type memBins struct{ m *memStore }

func (r memBins) Create(ctx context.Context, nb models.NewBin, now time.Time) (models.Bin, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check("bins.create"); err != nil {
		return models.Bin{}, err
	}
	b := models.Bin{
		ID: r.m.id(), OwnerID: nb.OwnerID, Location: nb.Location,
		Latitude: nb.Latitude, Longitude: nb.Longitude,
		Status: models.StatusEmpty, CreatedAt: now, UpdatedAt: now,
	}
	r.m.bins[b.ID] = b
	r.m.onRollback(ctx, func() { delete(r.m.bins, b.ID) })
	return b, nil
}

func (r memBins) Get(ctx context.Context, id int64) (models.Bin, error) {
	if r.m.getHook != nil {
		r.m.getHook(id)
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check("bins.get"); err != nil {
		return models.Bin{}, err
	}
	r.m.enter(ctx, id)
	b, ok := r.m.bins[id]
	if !ok {
		return models.Bin{}, repository.ErrNotFound
	}
	return b, nil
}

func (r memBins) GetByOwner(_ context.Context, ownerID int64) (models.Bin, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var (
		best  models.Bin
		found bool
	)
	for _, b := range r.m.bins {
		if b.OwnerID == ownerID && (!found || b.ID > best.ID) {
			best, found = b, true
		}
	}
	if !found {
		return models.Bin{}, repository.ErrNotFound
	}
	return best, nil
}

func (r memBins) Latest(_ context.Context) (models.Bin, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var best models.Bin
	for _, b := range r.m.bins {
		if b.ID > best.ID {
			best = b
		}
	}
	if best.ID == 0 {
		return models.Bin{}, repository.ErrNotFound
	}
	return best, nil
}

func (r memBins) List(_ context.Context) ([]models.Bin, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check("bins.list"); err != nil {
		return nil, err
	}
	out := make([]models.Bin, 0, len(r.m.bins))
	for _, b := range r.m.bins {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memBins) UpdateFill(ctx context.Context, id int64, fill int, status models.BinStatus, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check("bins.update_fill"); err != nil {
		return err
	}
	b, ok := r.m.bins[id]
	if !ok {
		return repository.ErrNotFound
	}
	prev := b
	b.FillLevel, b.Status, b.UpdatedAt = fill, status, at
	r.m.bins[id] = b
	r.m.onRollback(ctx, func() { r.m.bins[id] = prev })
	return nil
}

func (r memBins) MarkCollected(ctx context.Context, id int64, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check("bins.mark_collected"); err != nil {
		return err
	}
	b, ok := r.m.bins[id]
	if !ok {
		return repository.ErrNotFound
	}
	prev := b
	b.FillLevel, b.Status, b.UpdatedAt = 0, models.StatusEmpty, at
	b.LastCollectedAt = &at
	r.m.bins[id] = b
	r.m.onRollback(ctx, func() { r.m.bins[id] = prev })
	return nil
}

type memReadings struct{ m *memStore }

func (r memReadings) Append(ctx context.Context, rd models.SensorReading) (models.SensorReading, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check("readings.append"); err != nil {
		return models.SensorReading{}, err
	}
	rd.ID = r.m.id()
	r.m.readings = append(r.m.readings, rd)
	r.m.onRollback(ctx, func() {
		r.m.readings = removeByID(r.m.readings, rd.ID, func(x models.SensorReading) int64 { return x.ID })
	})
	return rd, nil
}

func (r memReadings) List(_ context.Context, binID int64, from, to time.Time, limit int) ([]models.SensorReading, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.SensorReading
	for i := len(r.m.readings) - 1; i >= 0; i-- {
		rd := r.m.readings[i]
		if rd.BinID != binID || (!from.IsZero() && rd.RecordedAt.Before(from)) || (!to.IsZero() && rd.RecordedAt.After(to)) {
			continue
		}
		out = append(out, rd)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type memRequests struct{ m *memStore }

func (r memRequests) CreatePending(ctx context.Context, req models.CollectionRequest) (models.CollectionRequest, bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check("requests.create"); err != nil {
		return models.CollectionRequest{}, false, err
	}
	for _, existing := range r.m.requests {
		if existing.BinID == req.BinID && existing.Status == models.RequestPending {
			return models.CollectionRequest{}, false, nil
		}
	}
	req.ID = r.m.id()
	req.Status = models.RequestPending
	r.m.requests = append(r.m.requests, req)
	r.m.onRollback(ctx, func() {
		r.m.requests = removeByID(r.m.requests, req.ID, func(x models.CollectionRequest) int64 { return x.ID })
	})
	return req, true, nil
}

func (r memRequests) GetPending(_ context.Context, binID int64) (models.CollectionRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check("requests.get_pending"); err != nil {
		return models.CollectionRequest{}, err
	}
	for _, req := range r.m.requests {
		if req.BinID == binID && req.Status == models.RequestPending {
			return req, nil
		}
	}
	return models.CollectionRequest{}, repository.ErrNotFound
}

func (r memRequests) ClosePending(ctx context.Context, binID int64, status models.RequestStatus, at time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check("requests.close"); err != nil {
		return 0, err
	}
	var n int64
	for i, req := range r.m.requests {
		if req.BinID == binID && req.Status == models.RequestPending {
			r.m.requests[i].Status = status
			r.m.requests[i].ClosedAt = &at
			n++
			prev := req
			r.m.onRollback(ctx, func() {
				for j := range r.m.requests {
					if r.m.requests[j].ID == prev.ID {
						r.m.requests[j] = prev
					}
				}
			})
		}
	}
	return n, nil
}

type memRecords struct{ m *memStore }

func (r memRecords) Append(ctx context.Context, rec models.CollectionRecord) (models.CollectionRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check("records.append"); err != nil {
		return models.CollectionRecord{}, err
	}
	rec.ID = r.m.id()
	r.m.records = append(r.m.records, rec)
	r.m.onRollback(ctx, func() {
		r.m.records = removeByID(r.m.records, rec.ID, func(x models.CollectionRecord) int64 { return x.ID })
	})
	return rec, nil
}

func (r memRecords) ListByBin(_ context.Context, binID int64) ([]models.CollectionRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.CollectionRecord
	for i := len(r.m.records) - 1; i >= 0; i-- {
		if r.m.records[i].BinID == binID {
			out = append(out, r.m.records[i])
		}
	}
	return out, nil
}

func removeByID[T any](rows []T, id int64, key func(T) int64) []T {
	out := rows[:0]
	for _, row := range rows {
		if key(row) != id {
			out = append(out, row)
		}
	}
	return out
}

// recordingHub captures published events.
type recordingHub struct {
	mu     sync.Mutex
	events []models.Event
}

func (h *recordingHub) Publish(ev models.Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	return 1
}

func (h *recordingHub) ofType(typ string) []models.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []models.Event
	for _, ev := range h.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (h *recordingHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

type mapResolver map[string]int64

func (r mapResolver) Resolve(_ context.Context, deviceID string) (int64, error) {
	if id, ok := r[deviceID]; ok {
		return id, nil
	}
	return 0, repository.ErrNotFound
}

type recordingArchive struct {
	mu   sync.Mutex
	got  []models.SensorReading
	err  error
	done bool
}

func (a *recordingArchive) Archive(_ context.Context, r models.SensorReading) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.got = append(a.got, r)
	return a.err
}

func (a *recordingArchive) Close() { a.done = true }

var errBoom = errors.New("boom")
