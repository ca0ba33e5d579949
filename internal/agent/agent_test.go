package agent

import (
	"os"
	"sync"
	"testing"
	"time"

	"AppPulse/internal/config"
	"AppPulse/internal/model"
)

func testConfig(t *testing.T) *config.Config {
	tmpDir, err := os.MkdirTemp("", "agent_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	cfg := &config.Config{}
	cfg.Agent.Application = "testapp"
	cfg.Agent.StorageRootPath = tmpDir
	cfg.Agent.SnapshotInterval = "1h"
	return cfg
}

// captureWriter records the batches it receives.
type captureWriter struct {
	mu      sync.Mutex
	batches []model.SnapshotBatch
}

func (w *captureWriter) Write(batch model.SnapshotBatch) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batches = append(w.batches, batch)
	return nil
}

func (w *captureWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.batches)
}

func TestAgentPersistsAndRestoresCounters(t *testing.T) {
	cfg := testConfig(t)

	first, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := first.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	first.Registry().RecordRequest("http", 42*time.Millisecond)
	first.Registry().RecordRequest("http", 10*time.Millisecond)
	first.Registry().RecordError("http")
	first.Registry().RecordRequest("sql", 5*time.Millisecond)

	// Stop writes the final snapshots.
	first.Stop()

	second, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := second.Start(); err != nil {
		t.Fatalf("Start of second agent failed: %v", err)
	}
	defer second.Stop()

	httpCounter := second.Registry().Counter("http")
	if httpCounter.RequestsCount() != 2 || httpCounter.ErrorsCount() != 1 {
		t.Errorf("Restored http counter has %d requests and %d errors, want 2 and 1",
			httpCounter.RequestsCount(), httpCounter.ErrorsCount())
	}
	sqlCounter := second.Registry().Counter("sql")
	if sqlCounter.RequestsCount() != 1 {
		t.Errorf("Restored sql counter has %d requests, want 1", sqlCounter.RequestsCount())
	}
}

func TestAgentShipsBatchesToWriters(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	w := &captureWriter{}
	a.AddWriter(w)

	if err := a.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	a.Registry().RecordRequest("http", time.Millisecond)
	a.Stop()

	if w.count() != 1 {
		t.Fatalf("Expected 1 shipped batch, got %d", w.count())
	}
	batch := w.batches[0]
	if batch.Application != "testapp" {
		t.Errorf("Batch application = %q, want testapp", batch.Application)
	}
	if len(batch.Counters) != 1 || batch.Counters[0].StorageName != "http" {
		t.Errorf("Unexpected batch counters: %+v", batch.Counters)
	}
}

func TestAgentEmptyCountersAreNotShipped(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	w := &captureWriter{}
	a.AddWriter(w)

	if err := a.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	// Registered but never exercised.
	a.Registry().Counter("unused")
	a.Stop()

	if w.count() != 0 {
		t.Errorf("Expected no shipped batches for idle counters, got %d", w.count())
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Agent.SnapshotInterval = "soon"
	if _, err := New(cfg); err == nil {
		t.Error("Expected an error for an invalid snapshot_interval")
	}

	cfg = testConfig(t)
	cfg.Agent.ObsoleteStatsDays = "-5"
	if _, err := New(cfg); err == nil {
		t.Error("Expected an error for an invalid obsolete_stats_days")
	}
}

func TestRegistryLazyCreation(t *testing.T) {
	r := NewRegistry("testapp")

	c1 := r.Counter("http")
	c2 := r.Counter("http")
	if c1 != c2 {
		t.Error("Counter should return the same instance for the same storage name")
	}

	r.RecordRequest("sql", time.Millisecond)
	r.RecordError("jsp")

	snapshots := r.Snapshots()
	if len(snapshots) != 3 {
		t.Fatalf("Expected 3 snapshots, got %d", len(snapshots))
	}
	// Ordered by storage name.
	if snapshots[0].StorageName != "http" || snapshots[1].StorageName != "jsp" || snapshots[2].StorageName != "sql" {
		t.Errorf("Snapshots not ordered by storage name: %+v", snapshots)
	}
}
