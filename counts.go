package ajq

// countMap tracks per-key job counts. A key is present exactly when its
// count is positive.
type countMap[K comparable] map[K]int

func (m countMap[K]) incr(k K) {
	m[k]++
}

// decr decrements the count for k and removes k when it reaches zero.
// Decrementing an absent key is a no-op.
func (m countMap[K]) decr(k K) {
	n, ok := m[k]
	if !ok {
		return
	}
	if n <= 1 {
		delete(m, k)
		return
	}
	m[k] = n - 1
}

func (m countMap[K]) has(k K) bool {
	_, ok := m[k]
	return ok
}

// total returns the sum of all counts.
func (m countMap[K]) total() int {
	n := 0
	for _, c := range m {
		n += c
	}
	return n
}
