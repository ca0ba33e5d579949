// Package storage persists counter snapshots as gzip-compressed files and
// enforces the retention policy that removes obsolete ones.
package storage

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"AppPulse/internal/config"
	"AppPulse/internal/model"
)

const (
	// SnapshotSuffix is the extension of all counter snapshot files.
	SnapshotSuffix = ".ser.gz"

	defaultObsoleteStatsDays = 365
)

// storageDisabled is a process-wide switch. It is set once at startup and
// never cleared; there is deliberately no way to re-enable storage.
var storageDisabled atomic.Bool

// DisableStorage suppresses all snapshot reads and writes for the rest of
// the process lifetime, for environments that manage state themselves.
func DisableStorage() {
	storageDisabled.Store(true)
}

// CounterStorage handles saving and loading one counter's snapshot file.
type CounterStorage struct {
	cfg     *config.Config
	counter *model.Counter
}

// NewCounterStorage creates a storage handle for the given counter.
func NewCounterStorage(cfg *config.Config, counter *model.Counter) *CounterStorage {
	return &CounterStorage{cfg: cfg, counter: counter}
}

// filePath resolves <storageDirectory(application)>/<storageName>.ser.gz.
func (s *CounterStorage) filePath() string {
	dir := s.cfg.StorageDirectory(s.counter.Application())
	return filepath.Join(dir, s.counter.StorageName()+SnapshotSuffix)
}

// WriteSnapshot serializes the counter to its snapshot file. It returns the
// uncompressed serialized size, a pessimistic estimate of the counter's
// memory footprint. written is false when the write was skipped: either
// storage is disabled, or the counter has recorded nothing yet and no file
// exists (no point littering the disk with empty snapshots). An existing
// file is always rewritten, even for an empty counter.
func (s *CounterStorage) WriteSnapshot() (size int64, written bool, err error) {
	if storageDisabled.Load() {
		return 0, false, nil
	}
	path := s.filePath()
	_, statErr := os.Stat(path)
	exists := statErr == nil
	if s.counter.RequestsCount() == 0 && s.counter.ErrorsCount() == 0 && !exists {
		return 0, false, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, false, fmt.Errorf("snapshot directory can't be created: %s: %w", dir, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create snapshot file '%s': %w", path, err)
	}

	gz := gzip.NewWriter(file)
	// Count the bytes entering the compressor, not the compressed output.
	counting := &countingWriter{w: gz}
	if err := gob.NewEncoder(counting).Encode(s.counter.Snapshot()); err != nil {
		gz.Close()
		file.Close()
		return 0, false, fmt.Errorf("failed to encode counter snapshot '%s': %w", path, err)
	}
	if err := gz.Close(); err != nil {
		file.Close()
		return 0, false, fmt.Errorf("failed to flush snapshot file '%s': %w", path, err)
	}
	if err := file.Close(); err != nil {
		return 0, false, fmt.Errorf("failed to close snapshot file '%s': %w", path, err)
	}
	return counting.n, true, nil
}

// ReadSnapshot loads a previously written counter snapshot. It returns
// (nil, nil) when storage is disabled or no snapshot file exists, which is
// the expected state on a first run. A file that cannot be decompressed or
// decoded is an error, not an absence.
func ReadSnapshot(cfg *config.Config, application, storageName string) (*model.Counter, error) {
	if storageDisabled.Load() {
		return nil, nil
	}
	path := filepath.Join(cfg.StorageDirectory(application), storageName+SnapshotSuffix)

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open snapshot file '%s': %w", path, err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot file '%s': %w", path, err)
	}
	defer gz.Close()

	var snap model.CounterSnapshot
	if err := gob.NewDecoder(gz).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode counter snapshot '%s': %w", path, err)
	}
	return model.NewCounterFromSnapshot(snap), nil
}

// PurgeObsoleteSnapshots deletes snapshot files older than the retention
// window and returns the total size, in bytes, of snapshot data still on
// disk afterwards. Deletion failures are non-fatal: the file is simply
// counted as still present, so the caller keeps visibility into disk usage.
// A missing or unreadable storage directory means there is nothing to purge.
// The only error is an invalid retention configuration.
func PurgeObsoleteSnapshots(cfg *config.Config, application string) (int64, error) {
	days, err := RetentionDays(cfg)
	if err != nil {
		return 0, err
	}
	// One extra day so a file is only purged once the full window has
	// elapsed, whatever the time of day it was written.
	cutoff := time.Now().AddDate(0, 0, -(days + 1))

	dir := cfg.StorageDirectory(application)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, nil
	}

	var retained int64
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), SnapshotSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		deleted := false
		if info.ModTime().Before(cutoff) {
			deleted = os.Remove(filepath.Join(dir, entry.Name())) == nil
		}
		if !deleted {
			retained += info.Size()
		}
	}
	return retained, nil
}

// RetentionDays returns the number of days a snapshot file is kept before
// it is considered obsolete. An unset parameter defaults to 365; a value
// that is not a positive integer is a configuration error and fails fast
// rather than silently falling back to the default.
func RetentionDays(cfg *config.Config) (int, error) {
	raw := cfg.Agent.ObsoleteStatsDays
	if raw == "" {
		return defaultObsoleteStatsDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid obsolete_stats_days value %q: %w", raw, err)
	}
	if days <= 0 {
		return 0, fmt.Errorf("obsolete_stats_days must be > 0, got %d (365 recommended)", days)
	}
	return days, nil
}

// countingWriter counts the bytes written through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
