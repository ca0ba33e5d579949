package model

import (
	"sync"
	"time"
)

// Counter aggregates request and error statistics for one instrumented
// component of an application (e.g. "http", "sql", "services"). It is safe
// for concurrent use.
type Counter struct {
	mu                 sync.RWMutex
	application        string
	storageName        string
	startTime          time.Time
	requests           int64
	errors             int64
	durationsSumMillis int64
	maxDurationMillis  int64
}

// NewCounter creates an empty counter for the given application and storage name.
func NewCounter(application, storageName string) *Counter {
	return &Counter{
		application: application,
		storageName: storageName,
		startTime:   time.Now(),
	}
}

// NewCounterFromSnapshot rebuilds a counter from a previously taken snapshot.
func NewCounterFromSnapshot(s CounterSnapshot) *Counter {
	return &Counter{
		application:        s.Application,
		storageName:        s.StorageName,
		startTime:          s.StartTime,
		requests:           s.Requests,
		errors:             s.Errors,
		durationsSumMillis: s.DurationsSumMillis,
		maxDurationMillis:  s.MaxDurationMillis,
	}
}

// Application returns the name of the application this counter belongs to.
func (c *Counter) Application() string {
	return c.application
}

// StorageName returns the name under which this counter is persisted.
func (c *Counter) StorageName() string {
	return c.storageName
}

// AddRequest records one completed request and its duration.
func (c *Counter) AddRequest(duration time.Duration) {
	millis := duration.Milliseconds()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests++
	c.durationsSumMillis += millis
	if millis > c.maxDurationMillis {
		c.maxDurationMillis = millis
	}
}

// AddError records one failed request.
func (c *Counter) AddError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors++
}

// RequestsCount returns the number of requests recorded so far.
func (c *Counter) RequestsCount() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.requests
}

// ErrorsCount returns the number of errors recorded so far.
func (c *Counter) ErrorsCount() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errors
}

// Snapshot returns a consistent copy of the counter's current state.
func (c *Counter) Snapshot() CounterSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CounterSnapshot{
		Application:        c.application,
		StorageName:        c.storageName,
		StartTime:          c.startTime,
		Requests:           c.requests,
		Errors:             c.errors,
		DurationsSumMillis: c.durationsSumMillis,
		MaxDurationMillis:  c.maxDurationMillis,
	}
}

// CounterSnapshot is the serializable state of a Counter at one point in
// time. It is the unit of persistence and of transport to the collector.
type CounterSnapshot struct {
	Application        string    `json:"application"`
	StorageName        string    `json:"storage_name"`
	StartTime          time.Time `json:"start_time"`
	Requests           int64     `json:"requests"`
	Errors             int64     `json:"errors"`
	DurationsSumMillis int64     `json:"durations_sum_millis"`
	MaxDurationMillis  int64     `json:"max_duration_millis"`
}

// SystemStats is a point-in-time sample of the agent process's resource usage.
type SystemStats struct {
	CPUPercent float64 `json:"cpu_percent"`
	RSSBytes   uint64  `json:"rss_bytes"`
	Goroutines int     `json:"goroutines"`
}

// SnapshotBatch groups the snapshots of all counters of one application,
// taken at the same instant.
type SnapshotBatch struct {
	Application string            `json:"application"`
	Timestamp   time.Time         `json:"timestamp"`
	Counters    []CounterSnapshot `json:"counters"`
	System      *SystemStats      `json:"system,omitempty"`
}
