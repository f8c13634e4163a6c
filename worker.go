package ajq

import (
	"log/slog"
	"runtime/debug"
)

// executor runs job functions on a worker goroutine and recovers panics so a
// failing job never takes a worker down with it.
type executor struct {
	queue   string
	logger  *slog.Logger
	onPanic func(*PanicError)
}

func newExecutor(cfg *queueConfig, logger *slog.Logger) executor {
	return executor{
		queue:   cfg.name,
		logger:  logger,
		onPanic: cfg.panicHandler,
	}
}

// execute runs fn. It returns nil when fn returned normally and the recovered
// panic otherwise. The caller fills in the key and passes it to report.
func (e executor) execute(fn func()) (perr *PanicError) {
	defer func() {
		if r := recover(); r != nil {
			perr = &PanicError{
				Queue: e.queue,
				Value: r,
				Stack: string(debug.Stack()),
			}
		}
	}()
	fn()
	return nil
}

// report logs a recovered panic and hands it to the panic handler, if any.
// The handler runs on the worker goroutine; a panic inside it is logged and
// swallowed.
func (e executor) report(worker int, perr *PanicError) {
	e.logger.Error("job panic recovered",
		"worker", worker,
		"key", perr.Key,
		"panic", perr.Value,
		"stack", perr.Stack,
	)
	if e.onPanic == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic handler panicked",
				"worker", worker,
				"key", perr.Key,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	e.onPanic(perr)
}
