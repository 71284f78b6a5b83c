// Package worker processes export operations in the background: it
// fetches a song, normalizes the lyrics and writes the rendered page to
// the output directory.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"lyricfetch/internal/database"
	"lyricfetch/internal/fetch"
	"lyricfetch/internal/logging"
	"lyricfetch/internal/lyrics"
	"lyricfetch/internal/render"
	"lyricfetch/internal/telemetry"
)

const staleAfterMinutes = 5

// Metadata carries the per-operation normalization options stored with an
// export operation.
type Metadata struct {
	IgnoreMismatch bool             `json:"ignore_mismatch,omitempty"`
	ReplaceBreaks  bool             `json:"replace_breaks,omitempty"`
	ExtraBreaks    map[string][]int `json:"extra_breaks,omitempty"`
}

// Worker manages background processing of export operations
type Worker struct {
	registry   *fetch.Registry
	outputDir  string
	jobQueue   chan string
	workerWg   sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// New creates a Worker processing export operations into outputDir
func New(registry *fetch.Registry, outputDir string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		registry:   registry,
		outputDir:  outputDir,
		jobQueue:   make(chan string, 100),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start begins processing operations with the specified number of workers
func (w *Worker) Start(numWorkers int) {
	w.workerWg.Add(1)
	go w.cleanupStaleOperations()

	for i := 0; i < numWorkers; i++ {
		w.workerWg.Add(1)
		go w.worker(i)
	}

	// Pick up any pending operations on startup
	w.workerWg.Add(1)
	go w.pickupPendingOperations()
}

// pickupPendingOperations enqueues operations left pending by an earlier run
func (w *Worker) pickupPendingOperations() {
	defer w.workerWg.Done()

	// Wait a moment for workers to be ready
	select {
	case <-time.After(1 * time.Second):
	case <-w.ctx.Done():
		return
	}

	ids, err := database.ListPendingOperations()
	if err != nil {
		logging.Error("Failed to query pending operations: %v", err)
		return
	}
	for _, id := range ids {
		w.Enqueue(id)
	}
	if len(ids) > 0 {
		logging.Info("Picked up %d pending operations on startup", len(ids))
	}
}

// Stop gracefully shuts down all workers. The queue is closed only once
// every goroutine that could enqueue has finished.
func (w *Worker) Stop() {
	w.cancelFunc()
	w.workerWg.Wait()
	close(w.jobQueue)
}

// Enqueue adds an operation to the processing queue
func (w *Worker) Enqueue(operationID string) {
	select {
	case <-w.ctx.Done():
		logging.Debug("Worker stopping, dropping operation: %s", operationID)
		return
	default:
	}
	select {
	case w.jobQueue <- operationID:
		logging.Debug("Enqueued operation: %s", operationID)
	default:
		logging.Warning("Job queue full, dropping operation: %s", operationID)
	}
}

func (w *Worker) worker(id int) {
	defer w.workerWg.Done()
	logging.Debug("Worker %d started", id)

	for {
		select {
		case operationID, ok := <-w.jobQueue:
			if !ok {
				logging.Debug("Worker %d stopping", id)
				return
			}
			w.processOperation(operationID)
		case <-w.ctx.Done():
			logging.Debug("Worker %d stopping due to context cancellation", id)
			return
		}
	}
}

func (w *Worker) processOperation(operationID string) {
	logging.Info("Processing operation: %s", operationID)

	op, err := database.GetExportOperation(operationID)
	if err != nil {
		logging.Error("Failed to load operation %s: %v", operationID, err)
		return
	}
	if op.Status != database.StatusPending {
		logging.Debug("Skipping operation %s in status %s", op.ID, op.Status)
		return
	}

	w.updateStatus(op.ID, database.StatusInProgress, 0, "Starting export", "")

	path, err := w.export(op)
	if err != nil {
		logging.Error("Operation %s failed: %v", op.ID, err)
		w.updateStatus(op.ID, database.StatusFailed, 0, "", err.Error())
		return
	}

	if err := database.SetOperationOutput(op.ID, path); err != nil {
		logging.Error("Failed to record output for %s: %v", op.ID, err)
	}
	w.updateStatus(op.ID, database.StatusCompleted, 100, "Export completed", "")
	logging.Info("Operation %s wrote %s", op.ID, path)
}

func (w *Worker) export(op *database.ExportOperation) (string, error) {
	ctx, span := telemetry.StartSpan(w.ctx, "worker.export")
	defer span.End()

	span.SetAttributes(
		attribute.String("operation.id", op.ID),
		attribute.String("operation.site", op.Site),
		attribute.String("operation.endpoint", op.Endpoint),
	)

	fetcher, ok := w.registry.Get(op.Site)
	if !ok {
		err := fmt.Errorf("unknown site %q", op.Site)
		span.RecordError(err)
		return "", err
	}

	var meta Metadata
	if len(op.Metadata) > 0 {
		if err := json.Unmarshal(op.Metadata, &meta); err != nil {
			span.RecordError(err)
			return "", fmt.Errorf("invalid operation metadata: %w", err)
		}
	}

	w.updateStatus(op.ID, database.StatusInProgress, 20, "Fetching lyrics", "")
	ly, err := fetcher.Lyrics(ctx, op.Endpoint, op.Title.String)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to fetch lyrics: %w", err)
	}

	w.updateStatus(op.ID, database.StatusInProgress, 60, "Normalizing stanzas", "")
	stanzas, err := lyrics.Normalize(ly, lyrics.NormalizeOptions{
		IgnoreMismatch: meta.IgnoreMismatch,
		ReplaceBreaks:  meta.ReplaceBreaks,
		ExtraBreaks:    meta.ExtraBreaks,
	})
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	w.updateStatus(op.ID, database.StatusInProgress, 80, "Writing song page", "")
	path, err := render.NewSong(ly.Title, stanzas).WriteFile(w.outputDir)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.String("export.path", path))

	if err := database.RecordFetch(op.Site, op.Endpoint, ly.Title); err != nil {
		logging.Warning("Failed to record fetch history: %v", err)
	}
	return path, nil
}

func (w *Worker) updateStatus(operationID, status string, progress int, progressMessage, errorMessage string) {
	if err := database.UpdateOperationStatus(operationID, status, progress, progressMessage, errorMessage); err != nil {
		logging.Error("Failed to update operation status: %v", err)
	}
}

// cleanupStaleOperations runs periodically to mark old operations as failed
func (w *Worker) cleanupStaleOperations() {
	defer w.workerWg.Done()
	logging.Debug("Stale operation cleanup started")

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			affected, err := database.FailStaleOperations(staleAfterMinutes)
			if err != nil {
				logging.Error("Failed to cleanup stale operations: %v", err)
				continue
			}
			if affected > 0 {
				logging.Warning("Marked %d stale operations as failed", affected)
			}
		case <-w.ctx.Done():
			logging.Debug("Stale operation cleanup stopping")
			return
		}
	}
}
