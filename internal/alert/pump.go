package alert

import "context"

// Pump runs a background goroutine that repeatedly calls e.NextAlert and
// invokes sink with each result, stopping once e terminates or the returned
// stop function is called (which blocks until the goroutine has exited).
// It is the shared plumbing behind every place the pipeline drives an
// Emitter: the registrar's per-emitter delivery loop, and a Cooldown's
// private attachment to the raw emitter it wraps.
func Pump(e Emitter, sink func(ctx context.Context, a Alert)) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			a, err := e.NextAlert(ctx)
			if err != nil {
				return
			}
			sink(ctx, a)
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
