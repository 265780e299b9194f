// Package worker runs the scoring workers that drain the episode queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/bymedia/echoboard/internal/adapters/mq/queue"
	"github.com/bymedia/echoboard/internal/domain/model"
	"github.com/bymedia/echoboard/pkg/logger"
	"github.com/bymedia/echoboard/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = queue.Job

// Scorer rates one episode.
type Scorer interface {
	ScoreEpisode(ctx context.Context, ep model.Episode) (model.ScoreRecord, error)
}

// Writer persists produced score records.
type Writer interface {
	AppendScore(ctx context.Context, rec model.ScoreRecord) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until its queue closes or the context ends.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// ScoringWorker implements Worker: score the episode, persist the record.
type ScoringWorker struct {
	queue  Queue
	scorer Scorer
	writer Writer
	name   string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewScoringWorker creates a new worker with configuration options.
func NewScoringWorker(q Queue, scorer Scorer, writer Writer, opts ...Option) *ScoringWorker {
	w := &ScoringWorker{
		queue:    q,
		scorer:   scorer,
		writer:   writer,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *ScoringWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				return
			}

			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *ScoringWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob scores one episode and appends the resulting record.
func (w *ScoringWorker) processJob(ctx context.Context, job Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	rec, err := w.scorer.ScoreEpisode(ctx, job)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "scoring_error")
		w.logger.Error(ctx, "scoring failed",
			logger.String("identity", job.Identity),
			logger.Error(err),
		)
		return fmt.Errorf("score episode %s: %w", job.Identity, err)
	}

	if err := w.writer.AppendScore(ctx, rec); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		w.logger.Error(ctx, "appending score failed",
			logger.String("identity", job.Identity),
			logger.Error(err),
		)
		return fmt.Errorf("append score for %s: %w", job.Identity, err)
	}

	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*ScoringWorker

	logger logger.Logger
}

// NewPool creates a worker pool of workerCount scoring workers.
func NewPool(workerCount int, q Queue, scorer Scorer, writer Writer) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*ScoringWorker, workerCount),
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewScoringWorker(
			q,
			scorer,
			writer,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Wait blocks until every worker has exited, which happens once the queue is
// closed and drained, or ctx ends.
func (p *Pool) Wait(ctx context.Context) error {
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		select {
		case <-w.shutdown:
			// already signalled
		default:
			close(w.shutdown)
		}
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown signals every worker and waits for them to finish.
func (p *Pool) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.shutdown:
			// already signalled
		default:
			close(w.shutdown)
		}
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
