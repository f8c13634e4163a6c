// Package ajq provides an in-process asynchronous job queue backed by a
// fixed pool of worker goroutines.
//
// Two variants share one design. Queue runs unkeyed jobs: Join waits for
// everything and Cancel drops everything that has not started. KeyedQueue
// tags each job with a comparable key so that a subset of work can be
// joined or cancelled by key.
//
// Quick start:
//
//	q, _ := ajq.NewKeyed[string](ajq.WithWorkers(4))
//	defer q.Close()
//
//	q.Submit("images", resizeAll)
//	q.Submit("emails", sendDigest)
//	q.Cancel("emails") // drop emails that have not started
//	q.Join("images")   // wait for image work only
//
// Jobs run without any queue lock held. A panic inside a job is recovered
// and logged, and the worker keeps running. Close drains pending jobs before
// the workers exit.
//
// Queue stats can be published to Redis with a Heartbeat and inspected with
// the monitor HTTP API, the tui package, or the ajq command.
package ajq
