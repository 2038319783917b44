package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	LoginsSucceeded       uint64
	LoginsFailed          uint64
	CartOperations        map[string]uint64 // keyed by "op:outcome"
	StoreRetries          uint64
	StoreDurationCount    uint64
	StoreDurationTotalNs  int64
	CatalogCacheHits      uint64
	CatalogCacheMisses    uint64
	CatalogUpstreamErrors uint64
	Requests              uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	loginsSucceeded       uint64
	loginsFailed          uint64
	storeRetries          uint64
	storeDurationCount    uint64
	storeDurationTotalNs  int64
	catalogCacheHits      uint64
	catalogCacheMisses    uint64
	catalogUpstreamErrors uint64
	requests              uint64

	mu             sync.Mutex
	cartOperations map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{cartOperations: make(map[string]uint64)}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	ops := make(map[string]uint64, len(m.cartOperations))
	for k, v := range m.cartOperations {
		ops[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		LoginsSucceeded:       atomic.LoadUint64(&m.loginsSucceeded),
		LoginsFailed:          atomic.LoadUint64(&m.loginsFailed),
		CartOperations:        ops,
		StoreRetries:          atomic.LoadUint64(&m.storeRetries),
		StoreDurationCount:    atomic.LoadUint64(&m.storeDurationCount),
		StoreDurationTotalNs:  atomic.LoadInt64(&m.storeDurationTotalNs),
		CatalogCacheHits:      atomic.LoadUint64(&m.catalogCacheHits),
		CatalogCacheMisses:    atomic.LoadUint64(&m.catalogCacheMisses),
		CatalogUpstreamErrors: atomic.LoadUint64(&m.catalogUpstreamErrors),
		Requests:              atomic.LoadUint64(&m.requests),
	}
}

// IncLogin increments the login counter for outcome.
func (m *InMemoryRecorder) IncLogin(outcome string) {
	if outcome == OutcomeSuccess {
		atomic.AddUint64(&m.loginsSucceeded, 1)
		return
	}
	atomic.AddUint64(&m.loginsFailed, 1)
}

// IncCartOperation increments the cart operation counter.
func (m *InMemoryRecorder) IncCartOperation(op, outcome string) {
	m.mu.Lock()
	m.cartOperations[op+":"+outcome]++
	m.mu.Unlock()
}

// IncStoreRetry increments the store retry counter.
func (m *InMemoryRecorder) IncStoreRetry(op string) {
	atomic.AddUint64(&m.storeRetries, 1)
}

// ObserveStoreDuration records store call duration.
func (m *InMemoryRecorder) ObserveStoreDuration(op string, duration time.Duration) {
	atomic.AddUint64(&m.storeDurationCount, 1)
	atomic.AddInt64(&m.storeDurationTotalNs, duration.Nanoseconds())
}

// IncCatalogCacheHit increments catalog cache hit counter.
func (m *InMemoryRecorder) IncCatalogCacheHit() {
	atomic.AddUint64(&m.catalogCacheHits, 1)
}

// IncCatalogCacheMiss increments catalog cache miss counter.
func (m *InMemoryRecorder) IncCatalogCacheMiss() {
	atomic.AddUint64(&m.catalogCacheMisses, 1)
}

// IncCatalogUpstreamError increments catalog upstream error counter.
func (m *InMemoryRecorder) IncCatalogUpstreamError() {
	atomic.AddUint64(&m.catalogUpstreamErrors, 1)
}

// ObserveRequest counts handled HTTP requests.
func (m *InMemoryRecorder) ObserveRequest(method, route string, status int, duration time.Duration) {
	atomic.AddUint64(&m.requests, 1)
}
