package timemanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_Summary(t *testing.T) {
	ctx := context.Background()
	m, _, clock := newTestManager(at(6, 9, 0))

	snap, err := m.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Session: not started", snap.SessionLine(m.Now()))

	_, err = m.ClockIn(ctx)
	require.NoError(t, err)

	clock.Set(at(6, 10, 15))
	snap = m.Snapshot()
	assert.Equal(t, "Session: active 1h 15m (since 09:00)", snap.SessionLine(m.Now()))

	summary := snap.Summary(m.Now())
	assert.Contains(t, summary, "Month 2024-03: 0.0h / 168.0h (0.0%)")
	assert.Contains(t, summary, "Pending logs: 3")
	assert.Contains(t, summary, "Wed in progress")

	_, err = m.ClockOut(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Session: completed 1h 15m", m.Snapshot().SessionLine(m.Now()))
}
