package detector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sentineld/sentinel/internal/reactive"
	"github.com/sentineld/sentinel/internal/videostream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDetector struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingDetector) Detect(ctx context.Context, f videostream.Frame) (DetectionResult, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.err != nil {
		return DetectionResult{}, c.err
	}
	return DetectionResult{Frame: f, Detections: []Detection{{Width: 1}}}, nil
}

func TestReactiveDetector_GatesOnInterval(t *testing.T) {
	raw := &countingDetector{}
	d := New(raw, time.Hour, nil)

	var results []DetectionResult
	sub := d.Subscribe(context.Background(), reactive.FuncObserver[DetectionResult]{
		NextFunc: func(ctx context.Context, r DetectionResult) error {
			results = append(results, r)
			return nil
		},
	})
	defer sub.Dispose()

	require.NoError(t, d.OnNext(context.Background(), videostream.Frame{Width: 1}))
	require.NoError(t, d.OnNext(context.Background(), videostream.Frame{Width: 2}))
	require.NoError(t, d.OnNext(context.Background(), videostream.Frame{Width: 3}))

	assert.Equal(t, 1, raw.calls)
	require.Len(t, results, 3)
	assert.NotEmpty(t, results[0].Detections)
	assert.Empty(t, results[1].Detections)
	assert.Empty(t, results[2].Detections)
}

func TestReactiveDetector_ZeroIntervalRunsEveryFrame(t *testing.T) {
	raw := &countingDetector{}
	d := New(raw, 0, nil)

	require.NoError(t, d.OnNext(context.Background(), videostream.Frame{}))
	require.NoError(t, d.OnNext(context.Background(), videostream.Frame{}))

	assert.Equal(t, 2, raw.calls)
}

func TestReactiveDetector_PerFrameErrorEmitsEmptyResultAndContinues(t *testing.T) {
	boom := errors.New("model exploded")
	raw := &countingDetector{err: boom}
	d := New(raw, 0, nil)

	var gotErr error
	d.OnDetectError = func(err error) { gotErr = err }

	var results []DetectionResult
	sub := d.Subscribe(context.Background(), reactive.FuncObserver[DetectionResult]{
		NextFunc: func(ctx context.Context, r DetectionResult) error {
			results = append(results, r)
			return nil
		},
	})
	defer sub.Dispose()

	require.NoError(t, d.OnNext(context.Background(), videostream.Frame{}))
	require.NoError(t, d.OnNext(context.Background(), videostream.Frame{}))

	assert.ErrorIs(t, gotErr, boom)
	require.Len(t, results, 2)
	assert.Nil(t, results[0].Detections)
}

func TestReactiveDetector_UpstreamErrorPropagatesAsTerminal(t *testing.T) {
	d := New(&countingDetector{}, 0, nil)
	boom := errors.New("stream dead")

	var gotErr error
	sub := d.Subscribe(context.Background(), reactive.FuncObserver[DetectionResult]{
		ErrorFunc: func(ctx context.Context, err error) error {
			gotErr = err
			return nil
		},
	})
	defer sub.Dispose()

	require.NoError(t, d.OnError(context.Background(), boom))
	assert.ErrorIs(t, gotErr, boom)
}

func TestReactiveDetector_UpstreamCloseIsForwarded(t *testing.T) {
	d := New(&countingDetector{}, 0, nil)

	var closed bool
	sub := d.Subscribe(context.Background(), reactive.FuncObserver[DetectionResult]{
		CloseFunc: func(ctx context.Context) error {
			closed = true
			return nil
		},
	})
	defer sub.Dispose()

	require.NoError(t, d.OnClose(context.Background()))
	assert.True(t, closed)
}
