package alert

import (
	"context"
	"sync"
	"time"
)

// Cooldown rate-limits alert fan-out per source: once an alert from a
// given Source passes through, any further alert from that same Source is
// dropped until duration has elapsed. It is simultaneously a Subscriber
// (fed from a raw Emitter through Pump so it sees every candidate alert)
// and an Emitter (registered with the registrar in that raw emitter's
// place, so real subscribers see only what survives the gate).
type Cooldown struct {
	duration time.Duration
	queue    *boundedQueue

	mu   sync.Mutex
	last map[string]time.Time
}

// NewCooldown constructs a Cooldown gate with the given per-source duration
// and internal backlog size.
func NewCooldown(duration time.Duration, queueSize int) *Cooldown {
	return &Cooldown{duration: duration, queue: newBoundedQueue(queueSize), last: make(map[string]time.Time)}
}

// Notify implements Subscriber: it is called for every alert the wrapped
// emitter produces.
func (c *Cooldown) Notify(ctx context.Context, a Alert) error {
	now := time.Now()
	c.mu.Lock()
	last, seen := c.last[a.Source]
	allow := !seen || now.Sub(last) >= c.duration
	if allow {
		c.last[a.Source] = now
	}
	c.mu.Unlock()

	if allow {
		c.queue.push(a)
	}
	return nil
}

// NextAlert implements Emitter.
func (c *Cooldown) NextAlert(ctx context.Context) (Alert, error) {
	return c.queue.next(ctx)
}
