package builtin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sentineld/sentinel/internal/alert"
)

func TestLogSubscriber_NotifyDoesNotError(t *testing.T) {
	s := NewLogSubscriber(zap.NewNop())
	err := s.Notify(alert.Alert{Header: "h", Timestamp: time.Now()})
	assert.NoError(t, err)
}

func TestDesktopNotifySubscriber_CallsSink(t *testing.T) {
	var gotHeader, gotDesc string
	s := NewDesktopNotifySubscriber(func(header, description string) {
		gotHeader, gotDesc = header, description
	})

	require.NoError(t, s.Notify(alert.Alert{Header: "motion", Description: "person detected"}))
	assert.Equal(t, "motion", gotHeader)
	assert.Equal(t, "person detected", gotDesc)
}

func TestDesktopNotifySubscriber_NilSinkIsSafe(t *testing.T) {
	s := NewDesktopNotifySubscriber(nil)
	assert.NoError(t, s.Notify(alert.Alert{Header: "x"}))
}
