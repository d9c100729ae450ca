package service

import (
	"context"
	"testing"
	"time"

	"bin_monitoring/internal/metrics"
	"bin_monitoring/internal/repository"
)

type harness struct {
	store   *memStore
	hub     *recordingHub
	archive *recordingArchive
	metrics *metrics.Metrics
	svc     *Service
}

// newHarness builds a Service over a fresh memStore. wrap may swap individual repositories.
func newHarness(t *testing.T, resolver BinResolver, wrap ...func(*repository.Repository)) *harness {
	t.Helper()
	h := &harness{
		store:   newMemStore(),
		hub:     &recordingHub{},
		archive: &recordingArchive{},
		metrics: metrics.New(),
	}
	repos := h.store.repos()
	for _, w := range wrap {
		w(repos)
	}
	svc, err := NewService(Deps{
		Repos:      repos,
		Hub:        h.hub,
		Thresholds: DefaultThresholds,
		Resolver:   resolver,
		Archive:    h.archive,
		Metrics:    h.metrics,
		SigningKey: testSigningKey,
		TokenTTL:   time.Hour,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	h.svc = svc
	return h
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
