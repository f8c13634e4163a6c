package ajq

import (
	"fmt"
	"reflect"
	"sort"
)

// Stats is a point-in-time snapshot of a queue.
type Stats struct {
	Name    string `json:"name"`
	Keyed   bool   `json:"keyed"`
	Workers int    `json:"workers"`

	// Busy is the number of workers that are not blocked waiting for work.
	Busy int `json:"busy"`

	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`

	Submitted uint64 `json:"submitted"`
	Completed uint64 `json:"completed"`
	Cancelled uint64 `json:"cancelled"`
	Panicked  uint64 `json:"panicked"`

	// Keys holds per-key counts for keyed queues, sorted by key. Keys of
	// integer, float or string kind sort by value, others by rendered form.
	Keys []KeyStats `json:"keys,omitempty"`
}

// KeyStats holds the counts for one key of a KeyedQueue.
type KeyStats struct {
	Key        string `json:"key"`
	Pending    int    `json:"pending"`
	InProgress int    `json:"in_progress"`
}

// Drained reports whether the snapshot has no pending and no running work.
func (s Stats) Drained() bool {
	return s.Pending == 0 && s.InProgress == 0
}

// StatsSource is implemented by Queue and KeyedQueue.
type StatsSource interface {
	Stats() Stats
}

// totals holds lifetime counters. Protected by the owning queue's mutex.
type totals struct {
	submitted uint64
	completed uint64
	cancelled uint64
	panicked  uint64
}

func (t *totals) finished(perr *PanicError) {
	if perr != nil {
		t.panicked++
		return
	}
	t.completed++
}

func (t totals) fill(s *Stats) {
	s.Submitted = t.submitted
	s.Completed = t.completed
	s.Cancelled = t.cancelled
	s.Panicked = t.panicked
}

// keyStats merges the pending and in-progress maps into rows sorted by key.
func keyStats[K comparable](pending, inProgress countMap[K]) []KeyStats {
	rows := make(map[K]*KeyStats, len(pending)+len(inProgress))
	row := func(k K) *KeyStats {
		r, ok := rows[k]
		if !ok {
			r = &KeyStats{Key: fmt.Sprint(k)}
			rows[k] = r
		}
		return r
	}
	for k, n := range pending {
		row(k).Pending = n
	}
	for k, n := range inProgress {
		row(k).InProgress = n
	}

	keys := make([]K, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })

	out := make([]KeyStats, len(keys))
	for i, k := range keys {
		out[i] = *rows[k]
	}
	return out
}

// keyLess orders keys by value when both have the same integer, float or
// string kind, and by their fmt.Sprint form otherwise.
func keyLess(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() == vb.Kind() {
		switch va.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return va.Int() < vb.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return va.Uint() < vb.Uint()
		case reflect.Float32, reflect.Float64:
			return va.Float() < vb.Float()
		case reflect.String:
			return va.String() < vb.String()
		}
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
