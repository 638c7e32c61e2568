package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentineld/sentinel/internal/videostream"
)

func TestSyntheticVideoStream_CyclesFrames(t *testing.T) {
	frames := []*videostream.Frame{
		{Width: 1}, {Width: 2}, {Width: 3},
	}
	s := NewSyntheticVideoStream(frames, 0)

	for i := 0; i < 2; i++ {
		for _, want := range []int{1, 2, 3} {
			f, err := s.NextFrame()
			require.NoError(t, err)
			assert.Equal(t, want, f.Width)
		}
	}
}

func TestSyntheticVideoStream_EmptyYieldsNoData(t *testing.T) {
	s := NewSyntheticVideoStream(nil, 0)
	f, err := s.NextFrame()
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestSyntheticVideoStream_CleanUpIsNoop(t *testing.T) {
	s := NewSyntheticVideoStream([]*videostream.Frame{{Width: 1}}, 0)
	assert.NoError(t, s.CleanUp())
}
