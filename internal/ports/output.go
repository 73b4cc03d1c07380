// Package ports defines the primary and secondary port interfaces following
// hexagonal architecture (ports and adapters pattern).
//
// This package contains interfaces that define the contract between the core
// correlation engine and external infrastructure (workbook sources, report
// destinations, observers).
//
// Design Principles:
//   - Interfaces are small and focused (Interface Segregation Principle)
//   - Dependencies flow inward (core domain has no external dependencies)
//   - Implementations provided by adapters in internal/adapters/
package ports

import (
	"context"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
)

// ReportWriter defines the interface for publishing a finished batch to an
// output destination.
//
// Implementations:
//   - JSONReporter: Writes the detection list as JSON to file or stdout
//   - ExcelReporter: Writes an xlsx report workbook
//
// Thread Safety: the pipeline calls Write sequentially, one batch at a time;
// implementations need no internal locking for Write itself.
type ReportWriter interface {
	// Write publishes one complete dataset.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - ds: Immutable dataset to publish
	//
	// Returns:
	//   - nil on success
	//   - Error if the destination rejects the batch (caller logs, batch stays valid)
	Write(ctx context.Context, ds *domain.Dataset) error

	// Flush forces buffered output to the destination.
	// Called during graceful shutdown.
	Flush() error

	// Close releases resources and ensures all output is flushed.
	// Must be called during application shutdown.
	Close() error
}

// DatasetSubscriber defines the callback interface for batch notification.
// Used by the pipeline to notify interested components (TUI, metrics).
//
// Design: push-based, so the TUI can swap in a new batch the moment
// re-ingestion finishes.
type DatasetSubscriber interface {
	// OnDataset is called synchronously after a batch is published.
	//
	// Parameters:
	//   - ds: The published dataset (immutable, safe to store the reference)
	//
	// Performance: implementations should return quickly; the watcher loop
	// blocks until all subscribers have been notified.
	OnDataset(ds *domain.Dataset)
}

// MetricsCollector defines the interface for observability metric collection.
// Implemented by the Prometheus adapter for scraping by monitoring systems.
//
// Thread Safety: All methods MUST be safe for concurrent calls.
type MetricsCollector interface {
	// IncrementIngests counts completed ingestion runs.
	IncrementIngests()

	// IncrementIngestErrors counts ingestion runs rejected with an error.
	IncrementIngestErrors()

	// ObserveIngestDuration records one run's wall time in seconds.
	ObserveIngestDuration(seconds float64)

	// RecordBatch publishes per-batch gauges and per-kind row counters,
	// including the unmatched-row counts that never surface in detections.
	RecordBatch(ds *domain.Dataset)
}
