package ajq

import (
	"fmt"
	"runtime"
	"sync"
	"testing"
)

// --- helpers ----------------------------------------------------------------

func benchQueue(b *testing.B, workers int) *Queue {
	b.Helper()
	q, err := New(WithWorkers(workers), WithLogger(testLogger()))
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	b.Cleanup(q.Close)
	return q
}

func benchKeyed(b *testing.B, workers int) *KeyedQueue[int] {
	b.Helper()
	q, err := NewKeyed[int](WithWorkers(workers), WithLogger(testLogger()))
	if err != nil {
		b.Fatalf("NewKeyed: %v", err)
	}
	b.Cleanup(q.Close)
	return q
}

// --- BenchmarkSubmit --------------------------------------------------------

func BenchmarkSubmit(b *testing.B) {
	q := benchQueue(b, runtime.NumCPU())
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := q.Submit(func() {}); err != nil {
			b.Fatalf("Submit: %v", err)
		}
	}
	q.Join()
}

func BenchmarkSubmitParallel(b *testing.B) {
	q := benchQueue(b, runtime.NumCPU())
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if err := q.Submit(func() {}); err != nil {
				b.Errorf("Submit: %v", err)
				return
			}
		}
	})
	q.Join()
}

// --- BenchmarkKeyed ---------------------------------------------------------

func BenchmarkKeyedSubmit(b *testing.B) {
	for _, keys := range []int{1, 16, 1024} {
		b.Run(fmt.Sprintf("keys=%d", keys), func(b *testing.B) {
			q := benchKeyed(b, runtime.NumCPU())
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := q.Submit(i%keys, func() {}); err != nil {
					b.Fatalf("Submit: %v", err)
				}
			}
			q.Join()
		})
	}
}

// BenchmarkKeyedJoinOne measures waiting for one key while other keys keep
// the queue busy.
func BenchmarkKeyedJoinOne(b *testing.B) {
	q := benchKeyed(b, runtime.NumCPU())
	release := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < q.Workers()-1; w++ {
		wg.Add(1)
		if err := q.Submit(-1, func() { defer wg.Done(); <-release }); err != nil {
			b.Fatalf("Submit: %v", err)
		}
	}
	defer func() {
		close(release)
		wg.Wait()
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := q.Submit(1, func() {}); err != nil {
			b.Fatalf("Submit: %v", err)
		}
		q.Join(1)
	}
}

// --- BenchmarkEndToEnd ------------------------------------------------------

func BenchmarkEndToEnd(b *testing.B) {
	q := benchQueue(b, runtime.NumCPU()*2)
	var wg sync.WaitGroup
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		i := i
		wg.Add(1)
		err := SubmitFunc(q, func(int) { wg.Done() }, func() int { return i })
		if err != nil {
			b.Fatalf("SubmitFunc: %v", err)
		}
	}
	wg.Wait()
}
