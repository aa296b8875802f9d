// Package metrics keeps cheap in-process request counters for the HQ-gated
// /metrics endpoint. Counters are atomics; Snapshot reads are approximate
// under concurrent traffic, which is fine for a dashboard.
package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	requests      atomic.Uint64
	serverErrors  atomic.Uint64
	throttled     atomic.Uint64
	durationMsSum atomic.Uint64
}

func New() *Collector {
	return &Collector{}
}

// Record tallies one finished request. 5xx counts as a server error, 429 as
// a throttle; everything else only feeds the totals.
func (c *Collector) Record(status int, duration time.Duration) {
	c.requests.Add(1)
	if status >= 500 {
		c.serverErrors.Add(1)
	}
	if status == 429 {
		c.throttled.Add(1)
	}
	c.durationMsSum.Add(uint64(duration.Milliseconds()))
}

func (c *Collector) Snapshot() map[string]any {
	total := c.requests.Load()
	totalMs := c.durationMsSum.Load()
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      c.serverErrors.Load(),
		"rateLimitedTotal": c.throttled.Load(),
		"avgDurationMs":    avg,
		"totalDurationMs":  totalMs,
	}
}
