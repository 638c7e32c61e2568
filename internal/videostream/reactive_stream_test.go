package videostream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sentineld/sentinel/internal/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	mu        sync.Mutex
	frames    []*Frame
	idx       int
	cleanedUp bool
	blockCh   chan struct{}
}

func (f *fakeStream) NextFrame(ctx context.Context) (*Frame, error) {
	f.mu.Lock()
	if f.idx < len(f.frames) {
		fr := f.frames[f.idx]
		f.idx++
		f.mu.Unlock()
		return fr, nil
	}
	f.mu.Unlock()
	if f.blockCh == nil {
		return nil, nil
	}
	select {
	case <-f.blockCh:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeStream) CleanUp(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanedUp = true
	return nil
}

func TestReactiveVideoStream_SendsFramesInOrder(t *testing.T) {
	frames := []*Frame{{Width: 1}, {Width: 2}, {Width: 3}}
	src := &fakeStream{frames: frames, blockCh: make(chan struct{})}
	rvs := New(src, nil)

	var mu sync.Mutex
	var got []int
	sub := rvs.Subscribe(context.Background(), reactive.FuncObserver[Frame]{
		NextFunc: func(ctx context.Context, f Frame) error {
			mu.Lock()
			got = append(got, f.Width)
			mu.Unlock()
			return nil
		},
	})
	defer sub.Dispose()

	startErr := make(chan error, 1)
	go func() { startErr <- rvs.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, time.Second, time.Millisecond)

	assert.NoError(t, rvs.Stop(context.Background()))
	close(src.blockCh)
	<-startErr

	assert.Equal(t, []int{1, 2, 3}, got)
	assert.True(t, src.cleanedUp)
}

func TestReactiveVideoStream_NoDataThrowsAndEndsTask(t *testing.T) {
	src := &fakeStream{}
	rvs := New(src, nil)

	var gotErr error
	sub := rvs.Subscribe(context.Background(), reactive.FuncObserver[Frame]{
		ErrorFunc: func(ctx context.Context, err error) error {
			gotErr = err
			return nil
		},
	})
	defer sub.Dispose()

	err := rvs.Start(context.Background())
	assert.ErrorIs(t, err, ErrNoData)
	assert.ErrorIs(t, gotErr, ErrNoData)
}

func TestReactiveVideoStream_TransportErrorThrows(t *testing.T) {
	boom := errors.New("transport down")
	src := &erroringStream{err: boom}
	rvs := New(src, nil)

	var gotErr error
	sub := rvs.Subscribe(context.Background(), reactive.FuncObserver[Frame]{
		ErrorFunc: func(ctx context.Context, err error) error {
			gotErr = err
			return nil
		},
	})
	defer sub.Dispose()

	err := rvs.Start(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, gotErr, boom)
}

type erroringStream struct{ err error }

func (e *erroringStream) NextFrame(ctx context.Context) (*Frame, error) { return nil, e.err }
func (e *erroringStream) CleanUp(ctx context.Context) error            { return nil }

func TestReactiveVideoStream_StopCancelsBlockedNextFrame(t *testing.T) {
	src := &fakeStream{blockCh: make(chan struct{})}
	rvs := New(src, nil)

	startErr := make(chan error, 1)
	go func() { startErr <- rvs.Start(context.Background()) }()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, rvs.Stop(context.Background()))

	select {
	case err := <-startErr:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
}
