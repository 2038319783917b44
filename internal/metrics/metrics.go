// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Outcome labels shared by recorders.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Login metrics
	IncLogin(outcome string) // outcome: "success" or "failure"

	// Cart metrics
	IncCartOperation(op, outcome string) // op: "read" or "write"; outcome: "success" or an error kind
	IncStoreRetry(op string)
	ObserveStoreDuration(op string, duration time.Duration)

	// Catalog metrics
	IncCatalogCacheHit()
	IncCatalogCacheMiss()
	IncCatalogUpstreamError()

	// HTTP metrics
	ObserveRequest(method, route string, status int, duration time.Duration)
}
