package ajq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Queue is a worker-pool job queue without keys: every job belongs to one
// implicit group, so Join waits for all of them and Cancel drops all pending
// ones.
//
// Instead of per-key maps a Queue tracks how many workers are busy, meaning
// not blocked waiting for work. The queue has drained when no job is pending
// and no worker is busy.
type Queue struct {
	cfg    *queueConfig
	logger *slog.Logger
	exec   executor

	mu       sync.Mutex
	work     *sync.Cond // jobs queued or stop requested
	drained  *sync.Cond // busy dropped to zero or jobs were cancelled
	pending  []func()
	busy     int
	running  int
	stopping bool
	totals   totals

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a Queue and starts its workers.
func New(opts ...Option) (*Queue, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("creating queue: %w", err)
	}

	logger := cfg.logger.With("queue", cfg.name)
	q := &Queue{
		cfg:    cfg,
		logger: logger,
		exec:   newExecutor(cfg, logger),
		// Every worker starts busy and checks in when it first finds the
		// queue empty, so Join on a fresh queue waits for all of them.
		busy: cfg.workers,
	}
	q.work = sync.NewCond(&q.mu)
	q.drained = sync.NewCond(&q.mu)

	for i := 0; i < cfg.workers; i++ {
		q.wg.Add(1)
		go q.dispatch(i)
	}

	logger.Info("queue started", "workers", cfg.workers, "keyed", false)
	return q, nil
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.cfg.name
}

// Workers returns the number of worker goroutines.
func (q *Queue) Workers() int {
	return q.cfg.workers
}

// Submit queues fn. It never blocks on job execution.
func (q *Queue) Submit(fn func()) error {
	if fn == nil {
		return ErrNilJob
	}

	q.mu.Lock()
	if q.stopping {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.pending = append(q.pending, fn)
	q.totals.submitted++
	q.mu.Unlock()

	q.work.Signal()
	return nil
}

// SubmitWithCallback queues fn and runs callback on the same worker right
// after fn returns.
func (q *Queue) SubmitWithCallback(callback, fn func()) error {
	if callback == nil || fn == nil {
		return ErrNilJob
	}
	return q.Submit(withCallback(callback, fn))
}

// SubmitFunc queues fn and passes its result to callback on the same worker
// right after fn returns.
func SubmitFunc[R any](q *Queue, callback func(R), fn func() R) error {
	if callback == nil || fn == nil {
		return ErrNilJob
	}
	return q.Submit(withResult(callback, fn))
}

// Join blocks until every submitted job has finished.
func (q *Queue) Join() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.ready() {
		q.drained.Wait()
	}
}

// Wait is Join with a context. It returns ctx.Err() if ctx ends first.
func (q *Queue) Wait(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.drained.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.ready() {
		if err := ctx.Err(); err != nil {
			return err
		}
		q.drained.Wait()
	}
	return nil
}

// Ready reports, without blocking, whether Join would return immediately.
func (q *Queue) Ready() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ready()
}

// ready must be called with q.mu held.
func (q *Queue) ready() bool {
	return len(q.pending) == 0 && q.busy == 0
}

// Cancel drops every job that has not started yet and returns how many were
// dropped. Running jobs are not interrupted.
func (q *Queue) Cancel() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := len(q.pending)
	q.pending = nil
	q.totals.cancelled += uint64(dropped)
	if dropped > 0 {
		q.logger.Debug("pending jobs cancelled", "count", dropped)
	}
	q.drained.Broadcast()
	return dropped
}

// Close stops the workers once the pending queue is empty and waits for them
// to exit. Pending jobs still run. Submit returns ErrQueueClosed as soon as
// Close has been called, including from jobs that run during the drain, so
// those jobs cannot enqueue follow-up work. Close is idempotent.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.stopping = true
		pending := len(q.pending)
		q.mu.Unlock()

		q.logger.Info("queue stopping", "pending", pending)
		q.work.Broadcast()
		q.wg.Wait()
		q.logger.Info("queue stopped")
	})
}

// Stats returns a snapshot of the queue.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := Stats{
		Name:       q.cfg.name,
		Workers:    q.cfg.workers,
		Busy:       q.busy,
		Pending:    len(q.pending),
		InProgress: q.running,
	}
	q.totals.fill(&s)
	return s
}

// dispatch is the loop run by each worker goroutine.
func (q *Queue) dispatch(worker int) {
	defer q.wg.Done()
	q.logger.Debug("worker started", "worker", worker)
	defer q.logger.Debug("worker stopped", "worker", worker)

	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if len(q.pending) == 0 {
			q.busy--
			if q.busy == 0 {
				q.drained.Broadcast()
			}
			for len(q.pending) == 0 && !q.stopping {
				q.work.Wait()
			}
			if len(q.pending) == 0 {
				return
			}
			q.busy++
		}

		fn := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		if len(q.pending) == 0 {
			q.pending = nil
		}
		q.running++
		q.mu.Unlock()

		perr := q.exec.execute(fn)
		if perr != nil {
			q.exec.report(worker, perr)
		}

		q.mu.Lock()
		q.running--
		q.totals.finished(perr)
	}
}
