package metrics

import "sync/atomic"

// SyncMetrics — счётчики одного запуска синхронизации фида.
type SyncMetrics struct {
	ProcessedCount  atomic.Int32
	UpsertedCount   atomic.Int32
	ErroredProducts atomic.Int32
	WorkersCount    atomic.Int32
}
