// Package lifecycle implements the global ready-signal init order and its
// mirrored LIFO shutdown sequence, generalising the teacher's cmd/server
// hand-wired main() into reusable stage/shutdown primitives.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"
)

// Stage is one named step of the startup sequence. Start must not return
// until the component it initialises is ready to serve its dependents —
// there is no separate "ready" callback; a Stage either blocks until ready
// or returns an error, matching the teacher's main() where each
// initialisation call is synchronous and fatal on error.
type Stage struct {
	Name  string
	Start func(ctx context.Context) error
}

// Orchestrator runs a fixed, ordered list of Stages, logging each one's
// start and completion, and stops at the first failure.
type Orchestrator struct {
	stages []Stage
	logger *zap.Logger
}

// New constructs an empty Orchestrator.
func New(logger *zap.Logger) *Orchestrator {
	return &Orchestrator{logger: logger}
}

// Add appends a stage to the init order.
func (o *Orchestrator) Add(name string, start func(ctx context.Context) error) {
	o.stages = append(o.stages, Stage{Name: name, Start: start})
}

// Run executes every stage in order. A failing stage aborts the sequence;
// stages already run are left running — the caller's Shutdown is
// responsible for tearing down whatever ran via its own Defer calls, which
// should be registered by each stage's Start as it succeeds.
func (o *Orchestrator) Run(ctx context.Context) error {
	for _, s := range o.stages {
		o.logger.Info("starting stage", zap.String("stage", s.Name))
		if err := s.Start(ctx); err != nil {
			return fmt.Errorf("lifecycle: stage %q: %w", s.Name, err)
		}
		o.logger.Info("stage ready", zap.String("stage", s.Name))
	}
	return nil
}

// Shutdown runs a LIFO sequence of cleanup functions, continuing past a
// failing one (logged, not fatal) exactly as the teacher's main() logs but
// does not abort on each shutdown step's error.
type Shutdown struct {
	mu       sync.Mutex
	cleanups []namedCleanup
	logger   *zap.Logger
}

type namedCleanup struct {
	name string
	fn   func(ctx context.Context) error
}

// NewShutdown constructs an empty Shutdown sequence.
func NewShutdown(logger *zap.Logger) *Shutdown {
	return &Shutdown{logger: logger}
}

// Defer registers fn to run during Run, in reverse registration order.
func (s *Shutdown) Defer(name string, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanups = append(s.cleanups, namedCleanup{name: name, fn: fn})
}

// Run executes every registered cleanup, most-recently-registered first.
func (s *Shutdown) Run(ctx context.Context) {
	s.mu.Lock()
	cleanups := make([]namedCleanup, len(s.cleanups))
	copy(cleanups, s.cleanups)
	s.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		c := cleanups[i]
		s.logger.Info("shutting down", zap.String("component", c.name))
		if err := c.fn(ctx); err != nil {
			s.logger.Error("shutdown step failed", zap.String("component", c.name), zap.Error(err))
		}
	}
}

// WaitForSignal blocks until SIGINT or SIGTERM arrives or ctx is done,
// whichever comes first, mirroring the teacher's
// `signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM); <-quit`.
func WaitForSignal(ctx context.Context) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case <-ctx.Done():
	}
}
