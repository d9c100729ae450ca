package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"bin_monitoring/internal/models"
)

func TestRequestCollectionIfNeeded_Idempotent(t *testing.T) {
	h := newHarness(t, nil)
	ctx := testCtx(t)
	bin := h.store.addBin(1, 92, models.StatusFull)
	user := int64(1)

	first, created, err := h.svc.RequestCollectionIfNeeded(ctx, bin.ID, AlertParams{RequestedBy: &user, Reason: " please empty "})
	if err != nil || !created {
		t.Fatalf("first call: created=%v err=%v", created, err)
	}
	if first.Reason != "please empty" || first.Priority != models.PriorityNormal {
		t.Fatalf("params not normalized: %+v", first)
	}

	second, created, err := h.svc.RequestCollectionIfNeeded(ctx, bin.ID, AlertParams{RequestedBy: &user})
	if err != nil || created {
		t.Fatalf("second call: created=%v err=%v", created, err)
	}
	if second.ID != first.ID {
		t.Fatalf("second call returned request %d, want %d", second.ID, first.ID)
	}
	if n := len(h.store.requestsFor(bin.ID)); n != 1 {
		t.Fatalf("request rows = %d, want 1", n)
	}
	if n := len(h.hub.ofType(models.EventCollectionRequested)); n != 1 {
		t.Fatalf("collectionRequested events = %d, want 1", n)
	}
}

func TestRequestCollectionIfNeeded_ConcurrentCallersShareOneRequest(t *testing.T) {
	h := newHarness(t, nil)
	ctx := testCtx(t)
	bin := h.store.addBin(1, 100, models.StatusFull)
	h.store.getHook = func(int64) { time.Sleep(100 * time.Microsecond) }

	const callers = 25
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = map[int64]int{}
		creates int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, created, err := h.svc.RequestCollectionIfNeeded(ctx, bin.ID, AlertParams{})
			if err != nil {
				t.Errorf("RequestCollectionIfNeeded: %v", err)
				return
			}
			mu.Lock()
			ids[req.ID]++
			if created {
				creates++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if creates != 1 || len(ids) != 1 {
		t.Fatalf("creates=%d distinct ids=%d, want 1/1", creates, len(ids))
	}
	if n := len(h.store.requestsFor(bin.ID)); n != 1 {
		t.Fatalf("request rows = %d, want 1", n)
	}
	if n := h.store.maxConcurrentTx(bin.ID); n != 1 {
		t.Fatalf("%d transactions overlapped on one bin", n)
	}
}

func TestRequestCollectionIfNeeded_Errors(t *testing.T) {
	h := newHarness(t, nil)
	ctx := testCtx(t)
	bin := h.store.addBin(1, 10, models.StatusEmpty)

	if _, _, err := h.svc.RequestCollectionIfNeeded(ctx, 404, AlertParams{}); !errors.Is(err, ErrBinNotFound) {
		t.Fatalf("unknown bin err = %v", err)
	}
	if _, _, err := h.svc.RequestCollectionIfNeeded(ctx, bin.ID, AlertParams{Priority: "ASAP"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("bad priority err = %v", err)
	}

	h.store.failOn("requests.get_pending", errBoom)
	if _, _, err := h.svc.RequestCollectionIfNeeded(ctx, bin.ID, AlertParams{}); !errors.Is(err, ErrStore) {
		t.Fatalf("store failure err = %v", err)
	}
}

func TestRequestCollectionIfNeeded_NonFullBinAllowed(t *testing.T) {
	h := newHarness(t, nil)
	bin := h.store.addBin(1, 50, models.StatusPartial)

	req, created, err := h.svc.RequestCollectionIfNeeded(testCtx(t), bin.ID, AlertParams{Priority: models.PriorityUrgent})
	if err != nil || !created || req.Priority != models.PriorityUrgent {
		t.Fatalf("manual alert on PARTIAL bin: req=%+v created=%v err=%v", req, created, err)
	}
}

func TestHasPendingAndCancel(t *testing.T) {
	h := newHarness(t, nil)
	ctx := testCtx(t)
	bin := h.store.addBin(1, 90, models.StatusFull)

	if _, ok, err := h.svc.HasPending(ctx, bin.ID); err != nil || ok {
		t.Fatalf("fresh bin: pending=%v err=%v", ok, err)
	}
	if _, err := h.svc.CancelPending(ctx, bin.ID); !errors.Is(err, ErrNoPendingRequest) {
		t.Fatalf("cancel without pending err = %v", err)
	}

	first, _, _ := h.svc.RequestCollectionIfNeeded(ctx, bin.ID, AlertParams{})
	got, ok, err := h.svc.HasPending(ctx, bin.ID)
	if err != nil || !ok || got.ID != first.ID {
		t.Fatalf("HasPending = %+v/%v/%v", got, ok, err)
	}

	cancelled, err := h.svc.CancelPending(ctx, bin.ID)
	if err != nil {
		t.Fatalf("CancelPending: %v", err)
	}
	if cancelled.Status != models.RequestCancelled || cancelled.ClosedAt == nil {
		t.Fatalf("cancelled = %+v", cancelled)
	}
	if _, ok, _ := h.svc.HasPending(ctx, bin.ID); ok {
		t.Fatal("request still pending after cancel")
	}
	if len(h.hub.ofType(models.EventCollectionCancelled)) != 1 {
		t.Fatal("missing collectionCancelled event")
	}

	next, created, err := h.svc.RequestCollectionIfNeeded(ctx, bin.ID, AlertParams{})
	if err != nil || !created || next.ID == first.ID {
		t.Fatalf("new request after cancel: %+v created=%v err=%v", next, created, err)
	}

	if _, _, err := h.svc.HasPending(ctx, 12345); !errors.Is(err, ErrBinNotFound) {
		t.Fatalf("HasPending unknown bin err = %v", err)
	}
}
