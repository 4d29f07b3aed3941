package stream

import "sync"

// streamLimiter budgets concurrent SSE connections. Per-IP limits keep one
// client from hogging the pool; the total cap bounds handler goroutines
// server-wide.
type streamLimiter struct {
	mu       sync.Mutex
	perIP    map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

func newStreamLimiter(maxPerIP int) *streamLimiter {
	return &streamLimiter{
		perIP:    make(map[string]int),
		maxPerIP: maxPerIP,
		maxTotal: 1000,
	}
}

// acquire reserves a stream slot for ip. A false return means the per-IP or
// the total budget is exhausted.
func (l *streamLimiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.total >= l.maxTotal || l.perIP[ip] >= l.maxPerIP {
		return false
	}
	l.perIP[ip]++
	l.total++
	return true
}

// release frees a slot taken by acquire. Entries that drop to zero are
// removed so the map doesn't keep one key per client ever seen.
func (l *streamLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.total--
	if l.perIP[ip]--; l.perIP[ip] <= 0 {
		delete(l.perIP, ip)
	}
}

// count reports the active streams for ip.
func (l *streamLimiter) count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perIP[ip]
}
