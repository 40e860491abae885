package metrics

import (
	"sync/atomic"
	"time"
)

// Collector keeps coarse request counters behind atomics; precision beyond
// "is the portal healthy and roughly how slow" is out of scope.
type Collector struct {
	requests    atomic.Uint64
	serverErrs  atomic.Uint64
	rateLimited atomic.Uint64
	durationMs  atomic.Uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	c.requests.Add(1)
	switch {
	case status >= 500:
		c.serverErrs.Add(1)
	case status == 429:
		c.rateLimited.Add(1)
	}
	c.durationMs.Add(uint64(duration.Milliseconds()))
}

type Snapshot struct {
	RequestsTotal    uint64  `json:"requestsTotal"`
	ErrorsTotal      uint64  `json:"errorsTotal"`
	RateLimitedTotal uint64  `json:"rateLimitedTotal"`
	AvgDurationMs    float64 `json:"avgDurationMs"`
	TotalDurationMs  uint64  `json:"totalDurationMs"`
}

func (c *Collector) Snapshot() Snapshot {
	snap := Snapshot{
		RequestsTotal:    c.requests.Load(),
		ErrorsTotal:      c.serverErrs.Load(),
		RateLimitedTotal: c.rateLimited.Load(),
		TotalDurationMs:  c.durationMs.Load(),
	}
	if snap.RequestsTotal > 0 {
		snap.AvgDurationMs = float64(snap.TotalDurationMs) / float64(snap.RequestsTotal)
	}
	return snap
}
