package ajq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// KeyedQueue is a worker-pool job queue whose jobs carry a key. Jobs sharing
// a key can be joined and cancelled as a group.
//
// All accounting lives behind one mutex. Workers pop jobs in submission
// order, so jobs with the same key start in the order they were submitted.
// Job functions always run without the mutex held.
//
// A job must not call Join, Wait or Close on its own queue for a key it
// belongs to; that would wait for itself.
type KeyedQueue[K comparable] struct {
	cfg    *queueConfig
	logger *slog.Logger
	exec   executor

	mu         sync.Mutex
	work       *sync.Cond // jobs queued or stop requested
	drained    *sync.Cond // a key or the whole queue may have drained
	pending    []job[K]
	pendingN   countMap[K]
	inProgress countMap[K]
	stopping   bool
	totals     totals

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewKeyed creates a KeyedQueue and starts its workers.
func NewKeyed[K comparable](opts ...Option) (*KeyedQueue[K], error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("creating keyed queue: %w", err)
	}

	logger := cfg.logger.With("queue", cfg.name)
	q := &KeyedQueue[K]{
		cfg:        cfg,
		logger:     logger,
		exec:       newExecutor(cfg, logger),
		pendingN:   make(countMap[K]),
		inProgress: make(countMap[K]),
	}
	q.work = sync.NewCond(&q.mu)
	q.drained = sync.NewCond(&q.mu)

	for i := 0; i < cfg.workers; i++ {
		q.wg.Add(1)
		go q.dispatch(i)
	}

	logger.Info("queue started", "workers", cfg.workers, "keyed", true)
	return q, nil
}

// Name returns the queue name.
func (q *KeyedQueue[K]) Name() string {
	return q.cfg.name
}

// Workers returns the number of worker goroutines.
func (q *KeyedQueue[K]) Workers() int {
	return q.cfg.workers
}

// Submit queues fn under key. It never blocks on job execution.
func (q *KeyedQueue[K]) Submit(key K, fn func()) error {
	if fn == nil {
		return ErrNilJob
	}

	q.mu.Lock()
	if q.stopping {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.pending = append(q.pending, job[K]{key: key, fn: fn})
	q.pendingN.incr(key)
	q.totals.submitted++
	q.mu.Unlock()

	q.work.Signal()
	return nil
}

// SubmitWithCallback queues fn under key and runs callback on the same worker
// right after fn returns. Both count as one job for Join and Cancel.
func (q *KeyedQueue[K]) SubmitWithCallback(key K, callback, fn func()) error {
	if callback == nil || fn == nil {
		return ErrNilJob
	}
	return q.Submit(key, withCallback(callback, fn))
}

// SubmitKeyedFunc queues fn under key and passes its result to callback on
// the same worker right after fn returns.
func SubmitKeyedFunc[K comparable, R any](q *KeyedQueue[K], key K, callback func(R), fn func() R) error {
	if callback == nil || fn == nil {
		return ErrNilJob
	}
	return q.Submit(key, withResult(callback, fn))
}

// Join blocks until the named keys have no pending or running jobs. With no
// keys it blocks until the whole queue has drained.
func (q *KeyedQueue[K]) Join(keys ...K) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.ready(keys) {
		q.drained.Wait()
	}
}

// Wait is Join with a context. It returns ctx.Err() if ctx ends before the
// keys drain. Jobs are not affected by ctx.
func (q *KeyedQueue[K]) Wait(ctx context.Context, keys ...K) error {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.drained.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.ready(keys) {
		if err := ctx.Err(); err != nil {
			return err
		}
		q.drained.Wait()
	}
	return nil
}

// Ready reports, without blocking, whether Join(keys...) would return
// immediately.
func (q *KeyedQueue[K]) Ready(keys ...K) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ready(keys)
}

// ready must be called with q.mu held.
func (q *KeyedQueue[K]) ready(keys []K) bool {
	if len(keys) == 0 {
		return len(q.pending) == 0 && len(q.pendingN) == 0 && len(q.inProgress) == 0
	}
	if q.cfg.strictJoin && len(q.pending) != 0 {
		return false
	}
	for _, k := range keys {
		if q.pendingN.has(k) || q.inProgress.has(k) {
			return false
		}
	}
	return true
}

// Cancel drops jobs that have not started yet and returns how many were
// dropped. With no keys every pending job is dropped; otherwise only jobs
// with one of the given keys. Running jobs are never interrupted.
func (q *KeyedQueue[K]) Cancel(keys ...K) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	var dropped int
	if len(keys) == 0 {
		dropped = len(q.pending)
		q.pending = nil
		clear(q.pendingN)
	} else {
		cancel := make(map[K]struct{}, len(keys))
		for _, k := range keys {
			cancel[k] = struct{}{}
		}
		kept := q.pending[:0]
		for _, j := range q.pending {
			if _, ok := cancel[j.key]; ok {
				dropped++
				continue
			}
			kept = append(kept, j)
		}
		clear(q.pending[len(kept):])
		q.pending = kept
		for _, k := range keys {
			delete(q.pendingN, k)
		}
	}

	q.totals.cancelled += uint64(dropped)
	if dropped > 0 {
		q.logger.Debug("pending jobs cancelled", "count", dropped, "keys", len(keys))
	}
	// Dropping jobs can satisfy a waiting Join.
	q.drained.Broadcast()
	return dropped
}

// Close stops the workers once the pending queue is empty and waits for them
// to exit. Pending jobs still run; use Cancel first to drop them. Submit
// returns ErrQueueClosed as soon as Close has been called, including from
// jobs that run during the drain, so those jobs cannot enqueue follow-up
// work. Close is idempotent.
func (q *KeyedQueue[K]) Close() {
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
func (q *KeyedQueue[K]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	running := q.inProgress.total()
	s := Stats{
		Name:       q.cfg.name,
		Keyed:      true,
		Workers:    q.cfg.workers,
		Busy:       running,
		Pending:    len(q.pending),
		InProgress: running,
		Keys:       keyStats(q.pendingN, q.inProgress),
	}
	q.totals.fill(&s)
	return s
}

// dispatch is the loop run by each worker goroutine.
func (q *KeyedQueue[K]) dispatch(worker int) {
	defer q.wg.Done()
	q.logger.Debug("worker started", "worker", worker)
	defer q.logger.Debug("worker stopped", "worker", worker)

	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if len(q.pending) == 0 {
			q.drained.Broadcast()
			for len(q.pending) == 0 && !q.stopping {
				q.work.Wait()
			}
			if len(q.pending) == 0 {
				return
			}
		}

		j := q.pop()
		q.pendingN.decr(j.key)
		q.inProgress.incr(j.key)
		q.mu.Unlock()

		perr := q.exec.execute(j.fn)
		if perr != nil {
			perr.Key = fmt.Sprint(j.key)
			q.exec.report(worker, perr)
		}

		q.mu.Lock()
		q.inProgress.decr(j.key)
		q.totals.finished(perr)
		if !q.inProgress.has(j.key) && !q.pendingN.has(j.key) {
			q.drained.Broadcast()
		}
	}
}

// pop removes the oldest pending job. q.mu must be held and the queue
// must not be empty.
func (q *KeyedQueue[K]) pop() job[K] {
	j := q.pending[0]
	q.pending[0] = job[K]{}
	q.pending = q.pending[1:]
	if len(q.pending) == 0 {
		q.pending = nil
	}
	return j
}
