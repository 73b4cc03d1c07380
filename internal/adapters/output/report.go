// Package output provides report and observability adapters.
//
// This file implements report destinations:
//   - JSONReporter: Buffered JSON output to file or stdout
//   - ExcelReporter: xlsx report workbook (excel.go)
//
// Features:
//   - Buffered I/O (64KB buffer), flushed after every batch
//   - File sync on flush for durability
//   - One JSON envelope per ingested batch (JSON-lines when appending)
//
// Thread Safety: All implementations are safe for concurrent Write() calls.
package output

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
)

// reportRecord is the serialized form of one detection. ThreatID is a
// pointer so unresolved groups render as null rather than 0.
type reportRecord struct {
	ID       int            `json:"id"`
	ThreatID *int           `json:"threat_id"`
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Label    string         `json:"label"`
	Count    int            `json:"count"`
	Action   string         `json:"action"`
	Source   string         `json:"source"`
	Detail   *domain.Detail `json:"detail"`
}

// reportEnvelope is the serialized form of one batch.
type reportEnvelope struct {
	BatchID    string             `json:"batch_id"`
	Source     string             `json:"source"`
	LoadedAt   time.Time          `json:"loaded_at"`
	Variant    string             `json:"variant"`
	Threats    int                `json:"threats"`
	Rows       int                `json:"rows"`
	Unmatched  int                `json:"unmatched_rows"`
	Detections []reportRecord     `json:"detections"`
	Stats      domain.IngestStats `json:"stats"`
}

func buildEnvelope(ds *domain.Dataset) reportEnvelope {
	env := reportEnvelope{
		BatchID:    ds.BatchID.String(),
		Source:     ds.Source,
		LoadedAt:   ds.LoadedAt,
		Variant:    ds.Stats.Variant,
		Threats:    len(ds.Threats),
		Rows:       ds.Stats.TotalRows(),
		Unmatched:  ds.Stats.TotalUnmatched(),
		Detections: make([]reportRecord, 0, len(ds.Detections)),
		Stats:      ds.Stats,
	}
	for _, det := range ds.Detections {
		rec := reportRecord{
			ID:     det.ID,
			Type:   string(det.Type),
			Title:  det.Title,
			Label:  det.Label,
			Count:  det.Count,
			Action: det.Action,
			Source: det.Source,
			Detail: det.Detail,
		}
		if det.HasThreat() {
			id := det.ThreatID
			rec.ThreatID = &id
		}
		env.Detections = append(env.Detections, rec)
	}
	return env
}

// JSONReporter writes each batch as a JSON envelope to file or stdout.
//
// Features:
//   - Buffered writes, flushed after every batch
//   - Optional pretty-printing
//   - File sync on flush for durability
type JSONReporter struct {
	writer    io.Writer     // Output destination
	bufWriter *bufio.Writer // Buffered writer (64KB)
	file      *os.File      // File handle (nil for stdout)
	encoder   *json.Encoder // Reused encoder
	mu        sync.Mutex    // Protects writes
}

// JSONReporterConfig configures JSON report output.
type JSONReporterConfig struct {
	FilePath string // Output file path (empty for discard)
	Stdout   bool   // Write to stdout
	Pretty   bool   // Pretty-print JSON
}

// NewJSONReporter creates a JSON report output.
//
// Output Priority:
//  1. Stdout if config.Stdout is true
//  2. File if config.FilePath is set
//  3. io.Discard otherwise
//
// File Permissions: 0600 (owner read/write only)
func NewJSONReporter(config JSONReporterConfig) (*JSONReporter, error) {
	var writer io.Writer
	var file *os.File

	if config.Stdout {
		writer = os.Stdout
	} else if config.FilePath != "" {
		var err error
		file, err = os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, err
		}
		writer = file
	} else {
		writer = io.Discard
	}

	const bufferSize = 64 * 1024
	bufWriter := bufio.NewWriterSize(writer, bufferSize)

	reporter := &JSONReporter{
		writer:    writer,
		bufWriter: bufWriter,
		file:      file,
	}

	reporter.encoder = json.NewEncoder(bufWriter)
	if config.Pretty {
		reporter.encoder.SetIndent("", "  ")
	}

	return reporter, nil
}

// Write serializes one batch and flushes it to the destination.
//
// Thread Safety: Safe for concurrent calls via mutex.
func (r *JSONReporter) Write(ctx context.Context, ds *domain.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.encoder.Encode(buildEnvelope(ds)); err != nil {
		return err
	}
	return r.flushLocked()
}

// Flush forces buffered data to disk.
func (r *JSONReporter) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

func (r *JSONReporter) flushLocked() error {
	if r.bufWriter != nil {
		if err := r.bufWriter.Flush(); err != nil {
			return err
		}
	}
	if r.file != nil {
		return r.file.Sync()
	}
	return nil
}

// Close flushes remaining output and closes the file.
func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bufWriter != nil {
		if err := r.bufWriter.Flush(); err != nil {
			return err
		}
	}
	if r.file != nil {
		if err := r.file.Sync(); err != nil {
			return err
		}
		return r.file.Close()
	}
	return nil
}

// OnDataset implements ports.DatasetSubscriber. A subscriber cannot
// return the write error, so it is logged here instead.
func (r *JSONReporter) OnDataset(ds *domain.Dataset) {
	if err := r.Write(context.Background(), ds); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON report")
	}
}

// MemoryReporter keeps the most recent batches in memory, for inspecting
// published datasets without touching disk.
//
// Thread Safety: Safe for concurrent access via RWMutex.
type MemoryReporter struct {
	batches    []*domain.Dataset // Ring buffer storage
	head       int               // Next write position
	count      int               // Current batch count
	maxBatches int               // Buffer capacity
	mu         sync.RWMutex      // Protects all fields
}

// NewMemoryReporter creates an in-memory batch buffer.
// maxBatches defaults to 16 when <= 0.
func NewMemoryReporter(maxBatches int) *MemoryReporter {
	if maxBatches <= 0 {
		maxBatches = 16
	}
	return &MemoryReporter{
		batches:    make([]*domain.Dataset, maxBatches),
		maxBatches: maxBatches,
	}
}

// Write stores a batch in the ring buffer. Overwrites the oldest batch
// when the buffer is full.
func (r *MemoryReporter) Write(_ context.Context, ds *domain.Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.batches[r.head] = ds
	r.head = (r.head + 1) % r.maxBatches
	if r.count < r.maxBatches {
		r.count++
	}
	return nil
}

// Flush is a no-op for the memory reporter (required by interface).
func (r *MemoryReporter) Flush() error { return nil }

// Close is a no-op for the memory reporter (required by interface).
func (r *MemoryReporter) Close() error { return nil }

// Latest returns the most recently stored batch, nil when none exists.
func (r *MemoryReporter) Latest() *domain.Dataset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return nil
	}
	idx := (r.head - 1 + r.maxBatches) % r.maxBatches
	return r.batches[idx]
}

// History returns all stored batches, oldest first.
func (r *MemoryReporter) History() []*domain.Dataset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Dataset, r.count)
	if r.count == 0 {
		return result
	}
	start := 0
	if r.count == r.maxBatches {
		start = r.head
	}
	for i := 0; i < r.count; i++ {
		result[i] = r.batches[(start+i)%r.maxBatches]
	}
	return result
}

// Count returns the current number of stored batches.
func (r *MemoryReporter) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// OnDataset implements ports.DatasetSubscriber. Delegates to Write().
func (r *MemoryReporter) OnDataset(ds *domain.Dataset) {
	_ = r.Write(context.Background(), ds)
}
