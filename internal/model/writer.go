package model

// Writer defines a generic interface for shipping a batch of counter
// snapshots to a store (local files, ClickHouse, a message bus, ...).
type Writer interface {
	// Write persists one snapshot batch. Implementations must not retain
	// the batch after returning.
	Write(batch SnapshotBatch) error
}
