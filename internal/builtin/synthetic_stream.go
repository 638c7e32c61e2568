// Package builtin supplies the reference plugin components registered
// under the always-whitelisted "sentinel-builtin" pseudo-plugin, so the
// video-stream/detector/subscriber contracts have at least one real Go-
// native implementation to build pipelines and tests against.
package builtin

import (
	"sync"
	"time"

	"github.com/sentineld/sentinel/internal/videostream"
)

// SyntheticVideoStream is a sync VideoStream that cycles a fixed set of
// in-memory frames, one per NextFrame call, sleeping Interval between
// calls to pace delivery like a real camera. Cycling restarts once
// exhausted, so with at least one frame it never signals end-of-stream on
// its own (an empty frame set returns (nil, nil) at once); CleanUp is the
// only way to stop it being driven further, matching the teacher's
// pollCamera loop (events/processor.go) which keeps ticking until told to
// stop rather than terminating on its own.
type SyntheticVideoStream struct {
	Interval time.Duration

	mu     sync.Mutex
	frames []*videostream.Frame
	idx    int
}

// NewSyntheticVideoStream builds a stream that replays frames in order,
// looping back to the start after the last one.
func NewSyntheticVideoStream(frames []*videostream.Frame, interval time.Duration) *SyntheticVideoStream {
	cp := make([]*videostream.Frame, len(frames))
	copy(cp, frames)
	return &SyntheticVideoStream{frames: cp, Interval: interval}
}

// NextFrame blocks for Interval (if set) then returns the next frame in
// the cycle, with CapturedAt stamped to the moment it's produced.
func (s *SyntheticVideoStream) NextFrame() (*videostream.Frame, error) {
	if s.Interval > 0 {
		time.Sleep(s.Interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil, nil
	}
	f := *s.frames[s.idx]
	f.CapturedAt = time.Now()
	s.idx = (s.idx + 1) % len(s.frames)
	return &f, nil
}

// CleanUp releases nothing; the frame slice is in-memory only.
func (s *SyntheticVideoStream) CleanUp() error {
	return nil
}
