package alert

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCooldown_SuppressesWithinDuration(t *testing.T) {
	c := NewCooldown(time.Hour, 4)

	require.NoError(t, c.Notify(context.Background(), Alert{Source: "cam-1", Header: "first"}))
	require.NoError(t, c.Notify(context.Background(), Alert{Source: "cam-1", Header: "second"}))

	a, err := c.NextAlert(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", a.Header)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.NextAlert(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCooldown_AllowsAfterDurationElapses(t *testing.T) {
	c := NewCooldown(5*time.Millisecond, 4)

	require.NoError(t, c.Notify(context.Background(), Alert{Source: "cam-1", Header: "first"}))
	_, err := c.NextAlert(context.Background())
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, c.Notify(context.Background(), Alert{Source: "cam-1", Header: "second"}))

	a, err := c.NextAlert(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", a.Header)
}

func TestCooldown_TracksEachSourceIndependently(t *testing.T) {
	c := NewCooldown(time.Hour, 4)

	require.NoError(t, c.Notify(context.Background(), Alert{Source: "cam-1"}))
	require.NoError(t, c.Notify(context.Background(), Alert{Source: "cam-2"}))

	a1, err := c.NextAlert(context.Background())
	require.NoError(t, err)
	a2, err := c.NextAlert(context.Background())
	require.NoError(t, err)

	sources := map[string]bool{a1.Source: true, a2.Source: true}
	assert.True(t, sources["cam-1"])
	assert.True(t, sources["cam-2"])
}
