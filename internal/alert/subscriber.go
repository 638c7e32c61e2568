package alert

import (
	"context"

	"github.com/sentineld/sentinel/internal/reactive"
)

// Subscriber is the async subscriber plugin contract: Notify delivers one
// Alert. A subscriber returning an error only affects that one delivery —
// the registrar logs it and keeps delivering to every other subscriber,
// mirroring the teacher's events.Processor.notifySubscribers behaviour.
type Subscriber interface {
	Notify(ctx context.Context, a Alert) error
}

// SyncSubscriber is the blocking variant, run through a reactive.WorkerPool
// by Adapt.
type SyncSubscriber interface {
	Notify(a Alert) error
}

type syncSubscriberAdapter struct {
	raw  SyncSubscriber
	pool *reactive.WorkerPool
}

// Adapt wraps a SyncSubscriber so the registrar can deliver to it like an
// async Subscriber, offloading each blocking Notify call onto pool.
func Adapt(raw SyncSubscriber, pool *reactive.WorkerPool) Subscriber {
	return &syncSubscriberAdapter{raw: raw, pool: pool}
}

func (a *syncSubscriberAdapter) Notify(ctx context.Context, alrt Alert) error {
	_, err := reactive.Offload(ctx, a.pool, func() (struct{}, error) {
		return struct{}{}, a.raw.Notify(alrt)
	})
	return err
}
