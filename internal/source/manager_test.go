package source

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sentineld/sentinel/internal/alert"
	"github.com/sentineld/sentinel/internal/detector"
	"github.com/sentineld/sentinel/internal/plugin"
	"github.com/sentineld/sentinel/internal/reactive"
	"github.com/sentineld/sentinel/internal/subscriber"
	"github.com/sentineld/sentinel/internal/videostream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSourceRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]VideoSource
}

func newFakeSourceRepo() *fakeSourceRepo {
	return &fakeSourceRepo{items: make(map[uuid.UUID]VideoSource)}
}

func (f *fakeSourceRepo) Create(ctx context.Context, s VideoSource) (VideoSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[s.ID] = s
	return s, nil
}

func (f *fakeSourceRepo) Update(ctx context.Context, s VideoSource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[s.ID] = s
	return nil
}

func (f *fakeSourceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

func (f *fakeSourceRepo) List(ctx context.Context) ([]VideoSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]VideoSource, 0, len(f.items))
	for _, s := range f.items {
		out = append(out, s)
	}
	return out, nil
}

// cyclingStream yields a fixed set of frames once each, then blocks until
// closed, implementing videostream.Stream directly (async).
type cyclingStream struct {
	frames  []*videostream.Frame
	idx     int
	mu      sync.Mutex
	block   chan struct{}
	cleanUp bool
}

func newCyclingStream(n int) *cyclingStream {
	frames := make([]*videostream.Frame, n)
	for i := range frames {
		frames[i] = &videostream.Frame{Width: i + 1}
	}
	return &cyclingStream{frames: frames, block: make(chan struct{})}
}

func (s *cyclingStream) NextFrame(ctx context.Context) (*videostream.Frame, error) {
	s.mu.Lock()
	if s.idx < len(s.frames) {
		f := s.frames[s.idx]
		s.idx++
		s.mu.Unlock()
		return f, nil
	}
	s.mu.Unlock()
	select {
	case <-s.block:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *cyclingStream) CleanUp(ctx context.Context) error {
	s.mu.Lock()
	s.cleanUp = true
	s.mu.Unlock()
	return nil
}

type alwaysDetector struct{}

func (alwaysDetector) Detect(ctx context.Context, f videostream.Frame) (detector.DetectionResult, error) {
	return detector.DetectionResult{
		Frame:      f,
		Detections: []detector.Detection{{Categories: []detector.Category{{Name: "motion"}}}},
	}, nil
}

func testRegistry(stream *cyclingStream) *plugin.Registry {
	r := plugin.New()
	r.Register("builtin", func() (*plugin.Plugin, error) {
		return &plugin.Plugin{
			Name: "builtin",
			Components: []plugin.ComponentDescriptor{
				{
					DisplayName: "fake-stream",
					Kind:        plugin.KindAsyncVideoStream,
					New: func(args map[string]any) (any, error) {
						return stream, nil
					},
				},
				{
					DisplayName: "fake-detector",
					Kind:        plugin.KindAsyncDetector,
					New: func(args map[string]any) (any, error) {
						return alwaysDetector{}, nil
					},
				},
			},
		}, nil
	})
	r.SetWhitelist([]string{"builtin"})
	r.Reload()
	return r
}

type recordingAlertSubscriber struct {
	mu  sync.Mutex
	got []alert.Alert
}

func (r *recordingAlertSubscriber) Notify(ctx context.Context, a alert.Alert) error {
	r.mu.Lock()
	r.got = append(r.got, a)
	r.mu.Unlock()
	return nil
}

func (r *recordingAlertSubscriber) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func TestManager_EnableDrivesFramesThroughToSubscriber(t *testing.T) {
	stream := newCyclingStream(2)
	registry := testRegistry(stream)
	registrar := subscriber.NewRegistrar(zap.NewNop())
	sub := &recordingAlertSubscriber{}
	registrar.AddSubscriber("test", sub)

	m := NewManager(newFakeSourceRepo(), registry, registrar, reactive.NewWorkerPool(2), zap.NewNop(), 8, nil)

	created, err := m.Create(context.Background(), VideoSource{
		Name:                   "cam-1",
		VidstreamPluginName:    "builtin",
		VidstreamComponentName: "fake-stream",
		DetectorPluginName:     "builtin",
		DetectorComponentName:  "fake-detector",
	})
	require.NoError(t, err)

	require.NoError(t, m.Enable(context.Background(), created.ID))

	require.Eventually(t, func() bool { return sub.count() >= 2 }, time.Second, 5*time.Millisecond)

	got, ok := m.Get(created.ID)
	require.True(t, ok)
	assert.True(t, got.Enabled)
	assert.Equal(t, StatusOK, got.Status)

	require.NoError(t, m.Disable(context.Background(), created.ID))
	got, ok = m.Get(created.ID)
	require.True(t, ok)
	assert.False(t, got.Enabled)

	stream.mu.Lock()
	cleaned := stream.cleanUp
	stream.mu.Unlock()
	assert.True(t, cleaned)
}

func TestManager_CreateRejectsUnknownComponents(t *testing.T) {
	registry := plugin.New()
	registrar := subscriber.NewRegistrar(zap.NewNop())
	m := NewManager(newFakeSourceRepo(), registry, registrar, reactive.NewWorkerPool(1), zap.NewNop(), 8, nil)

	_, err := m.Create(context.Background(), VideoSource{Name: "cam-1"})
	assert.ErrorIs(t, err, ErrComponentNotFound)
}

func TestManager_EnableUnknownIDFails(t *testing.T) {
	registry := plugin.New()
	registrar := subscriber.NewRegistrar(zap.NewNop())
	m := NewManager(newFakeSourceRepo(), registry, registrar, reactive.NewWorkerPool(1), zap.NewNop(), 8, nil)

	err := m.Enable(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_EnableFailureLeavesStatusErrorNotLiveHandles(t *testing.T) {
	registry := plugin.New()
	registrar := subscriber.NewRegistrar(zap.NewNop())
	m := NewManager(newFakeSourceRepo(), registry, registrar, reactive.NewWorkerPool(1), zap.NewNop(), 8, nil)

	created, err := m.repo.Create(context.Background(), VideoSource{
		ID:                     uuid.New(),
		Name:                   "cam-missing-plugin",
		VidstreamPluginName:    "does-not-exist",
		VidstreamComponentName: "fake-stream",
		DetectorPluginName:     "does-not-exist",
		DetectorComponentName:  "fake-detector",
	})
	require.NoError(t, err)
	require.NoError(t, m.LoadPersisted(context.Background()))

	err = m.Enable(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrComponentNotFound)

	got, ok := m.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, StatusError, got.Status)
	assert.NotEmpty(t, got.LastError)
	assert.True(t, got.Enabled)
	assert.Nil(t, m.entries[created.ID].rt)
}

func TestManager_DeleteTombstonesAlertHistory(t *testing.T) {
	stream := newCyclingStream(0)
	registry := testRegistry(stream)
	registrar := subscriber.NewRegistrar(zap.NewNop())

	var markedName string
	history := markDeletedFunc(func(ctx context.Context, name string) error {
		markedName = name
		return nil
	})

	m := NewManager(newFakeSourceRepo(), registry, registrar, reactive.NewWorkerPool(1), zap.NewNop(), 8, history)
	created, err := m.Create(context.Background(), VideoSource{
		Name:                   "cam-1",
		VidstreamPluginName:    "builtin",
		VidstreamComponentName: "fake-stream",
		DetectorPluginName:     "builtin",
		DetectorComponentName:  "fake-detector",
	})
	require.NoError(t, err)

	require.NoError(t, m.Delete(context.Background(), created.ID))
	assert.Equal(t, "cam-1", markedName)

	_, ok := m.Get(created.ID)
	assert.False(t, ok)
}

type markDeletedFunc func(ctx context.Context, sourceName string) error

func (f markDeletedFunc) MarkSourceDeleted(ctx context.Context, sourceName string) error {
	return f(ctx, sourceName)
}
