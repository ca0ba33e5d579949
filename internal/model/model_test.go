package model

import (
	"testing"
	"time"
)

func TestCounterRecording(t *testing.T) {
	c := NewCounter("testapp", "http")

	c.AddRequest(100 * time.Millisecond)
	c.AddRequest(300 * time.Millisecond)
	c.AddRequest(50 * time.Millisecond)
	c.AddError()

	if c.RequestsCount() != 3 {
		t.Errorf("RequestsCount = %d, want 3", c.RequestsCount())
	}
	if c.ErrorsCount() != 1 {
		t.Errorf("ErrorsCount = %d, want 1", c.ErrorsCount())
	}

	snap := c.Snapshot()
	if snap.DurationsSumMillis != 450 {
		t.Errorf("DurationsSumMillis = %d, want 450", snap.DurationsSumMillis)
	}
	if snap.MaxDurationMillis != 300 {
		t.Errorf("MaxDurationMillis = %d, want 300", snap.MaxDurationMillis)
	}
}

func TestCounterSnapshotRoundTrip(t *testing.T) {
	c := NewCounter("testapp", "sql")
	c.AddRequest(20 * time.Millisecond)
	c.AddError()

	restored := NewCounterFromSnapshot(c.Snapshot())

	if restored.Application() != "testapp" || restored.StorageName() != "sql" {
		t.Errorf("Restored identity %s/%s, want testapp/sql", restored.Application(), restored.StorageName())
	}
	if restored.RequestsCount() != c.RequestsCount() {
		t.Errorf("Restored requests %d, want %d", restored.RequestsCount(), c.RequestsCount())
	}
	if restored.ErrorsCount() != c.ErrorsCount() {
		t.Errorf("Restored errors %d, want %d", restored.ErrorsCount(), c.ErrorsCount())
	}
	if restored.Snapshot() != c.Snapshot() {
		t.Error("Snapshot of restored counter differs from the original")
	}
}

func TestCounterConcurrentUse(t *testing.T) {
	c := NewCounter("testapp", "http")

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			for j := 0; j < 250; j++ {
				c.AddRequest(time.Millisecond)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	if c.RequestsCount() != 1000 {
		t.Errorf("RequestsCount = %d, want 1000", c.RequestsCount())
	}
}
