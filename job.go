package ajq

// job is one queued unit of work. It is owned by the pending queue until a
// worker pops it, and by that worker afterwards.
type job[K comparable] struct {
	key K
	fn  func()
}

// withCallback returns a function that runs fn and then callback on the same
// goroutine. The callback is skipped if fn panics.
func withCallback(callback, fn func()) func() {
	return func() {
		fn()
		callback()
	}
}

// withResult returns a function that passes the result of fn to callback.
func withResult[R any](callback func(R), fn func() R) func() {
	return func() {
		callback(fn())
	}
}
