package ajq

import (
	"errors"
	"fmt"
)

var (
	// ErrQueueClosed is returned when a job is submitted after Close has begun.
	ErrQueueClosed = errors.New("ajq: queue closed")

	// ErrNilJob is returned when a nil function is submitted.
	ErrNilJob = errors.New("ajq: nil job function")

	// ErrInvalidName is returned when a queue name contains invalid characters.
	ErrInvalidName = errors.New("ajq: invalid queue name (only alphanumeric, hyphen, underscore, dot allowed; max 128 chars)")
)

// PanicError describes a panic recovered from a job function or its callback.
// The worker that ran the job keeps running after the panic.
type PanicError struct {
	Queue string // name of the queue the job was submitted to
	Key   string // job key rendered with fmt.Sprint; empty for unkeyed queues
	Value any    // value passed to panic
	Stack string // goroutine stack captured at recovery
}

func (e *PanicError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("ajq: job panicked on queue %q: %v", e.Queue, e.Value)
	}
	return fmt.Sprintf("ajq: job with key %q panicked on queue %q: %v", e.Key, e.Queue, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
