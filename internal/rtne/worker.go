package rtne

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/prashantsingh432/prospect-pulse-searcher/internal/observability/metrics"
	"github.com/prashantsingh432/prospect-pulse-searcher/pkg/logging"
)

// Enricher produces suggested contact details for a master record. The Lusha
// client satisfies this.
type Enricher interface {
	Enrich(ctx context.Context, master *MasterProspect) (*EnrichmentResult, error)
}

const (
	defaultWorkerCount = 2
	defaultWaitSeconds = 2
	defaultBatchSize   = 5
)

// Worker consumes enrichment jobs from the queue, runs the enricher, and
// completes the job record.
type Worker struct {
	queue    Queue
	jobs     *JobStore
	store    *Store
	enricher Enricher
	logger   *logging.Logger
	metrics  *metrics.EnrichmentMetrics

	workers   int
	waitSecs  int
	batchSize int
	wg        sync.WaitGroup
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*Worker)

// WithWorkerCount sets the number of concurrent consumer goroutines.
func WithWorkerCount(count int) WorkerOption {
	return func(w *Worker) {
		if count > 0 {
			w.workers = count
		}
	}
}

// WithEnrichmentMetrics wires job counters.
func WithEnrichmentMetrics(m *metrics.EnrichmentMetrics) WorkerOption {
	return func(w *Worker) {
		w.metrics = m
	}
}

func NewWorker(queue Queue, jobs *JobStore, store *Store, enricher Enricher, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	w := &Worker{
		queue:     queue,
		jobs:      jobs,
		store:     store,
		enricher:  enricher,
		logger:    logger,
		workers:   defaultWorkerCount,
		waitSecs:  defaultWaitSeconds,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the consumer goroutines. It returns immediately; use Wait
// to block until they exit.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all consumers have stopped.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("enrichment worker started", "worker_id", workerID)

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("enrichment worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.batchSize, w.waitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive enrichment jobs", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg queueMessage) {
	var payload queuePayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		w.logger.Error("dropping malformed enrichment job", "error", err, "message_id", msg.ID)
		_ = w.queue.Delete(ctx, msg.ReceiptHandle)
		return
	}

	master, err := w.store.GetMaster(ctx, payload.MasterProspectID)
	if err != nil {
		w.logger.Error("enrichment target missing", "error", err, "job_id", payload.JobID)
		w.metrics.ObserveJob("failed")
		_ = w.queue.Delete(ctx, msg.ReceiptHandle)
		return
	}

	result, err := w.enricher.Enrich(ctx, master)
	if err != nil {
		// The job stays in processing and the message stays on the queue
		// for redelivery.
		w.logger.Error("enrichment failed", "error", err, "job_id", payload.JobID, "master_id", master.ID)
		w.metrics.ObserveJob("failed")
		return
	}

	if err := w.jobs.MarkCompleted(ctx, payload.JobID, result); err != nil {
		w.logger.Error("failed to complete enrichment job", "error", err, "job_id", payload.JobID)
		return
	}
	w.metrics.ObserveJob("completed")
	_ = w.queue.Delete(ctx, msg.ReceiptHandle)

	w.logger.Info("enrichment job completed",
		"job_id", payload.JobID,
		"master_id", master.ID,
		"emails", len(result.SuggestedEmails),
		"phones", len(result.SuggestedPhones),
	)
}
