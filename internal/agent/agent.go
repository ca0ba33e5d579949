// Package agent runs the periodic snapshot loop: it restores persisted
// counters at startup, purges obsolete snapshot files, and on every tick
// writes the current counter state to local storage and any configured
// snapshot writers.
package agent

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"AppPulse/internal/config"
	"AppPulse/internal/forwarder"
	"AppPulse/internal/model"
	"AppPulse/internal/storage"
	"AppPulse/internal/sysstats"
)

// Agent owns the counter registry of one application and the goroutine
// that periodically persists and forwards its snapshots.
type Agent struct {
	cfg      *config.Config
	registry *Registry
	writers  []model.Writer
	pub      *forwarder.Publisher
	sampler  *sysstats.Sampler
	interval time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates an agent from the configuration. The NATS publisher and the
// system-stats sampler are only wired when enabled in the config.
func New(cfg *config.Config) (*Agent, error) {
	interval, err := time.ParseDuration(cfg.Agent.SnapshotInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot_interval: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("snapshot_interval must be a positive duration")
	}
	// Surface a broken retention policy at startup, not at the first purge.
	if _, err := storage.RetentionDays(cfg); err != nil {
		return nil, err
	}

	a := &Agent{
		cfg:      cfg,
		registry: NewRegistry(cfg.Agent.Application),
		interval: interval,
		stopChan: make(chan struct{}),
	}

	if cfg.Agent.NATS.Enabled {
		pub, err := forwarder.NewPublisher(cfg.Agent.NATS)
		if err != nil {
			return nil, fmt.Errorf("failed to create snapshot publisher: %w", err)
		}
		a.pub = pub
		a.writers = append(a.writers, pub)
	}

	if cfg.Agent.SystemStats {
		sampler, err := sysstats.NewSampler()
		if err != nil {
			return nil, fmt.Errorf("failed to create system stats sampler: %w", err)
		}
		a.sampler = sampler
	}

	return a, nil
}

// Registry returns the counter registry for instrumentation call sites.
func (a *Agent) Registry() *Registry {
	return a.registry
}

// AddWriter registers an additional snapshot writer.
func (a *Agent) AddWriter(w model.Writer) {
	a.writers = append(a.writers, w)
}

// Start restores persisted counters, purges obsolete snapshot files and
// launches the snapshot loop.
func (a *Agent) Start() error {
	if err := a.restore(); err != nil {
		return err
	}

	retained, err := storage.PurgeObsoleteSnapshots(a.cfg, a.cfg.Agent.Application)
	if err != nil {
		return err
	}
	log.Printf("Purged obsolete snapshots, %d bytes of snapshot data retained on disk.", retained)

	a.wg.Add(1)
	go a.run()
	log.Printf("Agent started for application '%s', snapshot interval %s.", a.cfg.Agent.Application, a.interval)
	return nil
}

// Stop halts the snapshot loop and writes a final snapshot of every counter.
func (a *Agent) Stop() {
	close(a.stopChan)
	a.wg.Wait()
	a.snapshotAll()
	if a.pub != nil {
		a.pub.Close()
	}
	log.Println("Agent stopped.")
}

func (a *Agent) run() {
	defer a.wg.Done()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.snapshotAll()
		case <-a.stopChan:
			return
		}
	}
}

// snapshotAll persists every counter to its snapshot file and ships the
// batch to the configured writers. Individual failures are logged and do
// not stop the loop.
func (a *Agent) snapshotAll() {
	counters := a.registry.Counters()
	batch := model.SnapshotBatch{
		Application: a.cfg.Agent.Application,
		Timestamp:   time.Now(),
	}

	for _, counter := range counters {
		snap := counter.Snapshot()
		// Never-exercised counters are neither persisted nor shipped.
		if snap.Requests > 0 || snap.Errors > 0 {
			batch.Counters = append(batch.Counters, snap)
		}

		size, written, err := storage.NewCounterStorage(a.cfg, counter).WriteSnapshot()
		if err != nil {
			log.Printf("Error writing snapshot for counter '%s': %v", counter.StorageName(), err)
			continue
		}
		if written {
			log.Printf("Wrote snapshot for counter '%s' (%d bytes serialized).", counter.StorageName(), size)
		}
	}

	if a.sampler != nil {
		stats, err := a.sampler.Sample()
		if err != nil {
			log.Printf("Error sampling system stats: %v", err)
		} else {
			batch.System = &stats
		}
	}

	if len(batch.Counters) == 0 {
		return
	}
	for _, w := range a.writers {
		if err := w.Write(batch); err != nil {
			log.Printf("Error shipping snapshot batch: %v", err)
		}
	}
}

// restore reloads every persisted counter of this application into the
// registry. A missing storage directory is the expected first-run state.
func (a *Agent) restore() error {
	dir := a.cfg.StorageDirectory(a.cfg.Agent.Application)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to list storage directory '%s': %w", dir, err)
	}

	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), storage.SnapshotSuffix) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), storage.SnapshotSuffix)
		counter, err := storage.ReadSnapshot(a.cfg, a.cfg.Agent.Application, name)
		if err != nil {
			log.Printf("Error restoring counter '%s': %v", name, err)
			continue
		}
		if counter == nil {
			continue
		}
		a.registry.Restore(counter)
		log.Printf("Restored counter '%s' (%d requests, %d errors).", name, counter.RequestsCount(), counter.ErrorsCount())
	}
	return nil
}
