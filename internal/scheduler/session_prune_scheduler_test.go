package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSessions struct{ calls int32 }

func (c *countingSessions) Prune() int {
	atomic.AddInt32(&c.calls, 1)
	return 2
}

type recordingLimiter struct{ idle []time.Duration }

func (r *recordingLimiter) Prune(idle time.Duration) int {
	r.idle = append(r.idle, idle)
	return 1
}

func TestSessionPruneScheduler_RunOnce(t *testing.T) {
	sessions := &countingSessions{}
	login, api := &recordingLimiter{}, &recordingLimiter{}
	s := NewSessionPruneScheduler(sessions, 30*time.Minute, login, api)

	s.RunOnce()

	assert.Equal(t, int32(1), atomic.LoadInt32(&sessions.calls))
	assert.Equal(t, []time.Duration{30 * time.Minute}, login.idle)
	assert.Equal(t, []time.Duration{30 * time.Minute}, api.idle)
}

func TestSessionPruneScheduler_InvalidSchedule(t *testing.T) {
	s := NewSessionPruneScheduler(&countingSessions{}, time.Minute)
	assert.Error(t, s.Start("every tuesday"))
}

func TestSessionPruneScheduler_StartStop(t *testing.T) {
	sessions := &countingSessions{}
	s := NewSessionPruneScheduler(sessions, time.Minute)

	require.NoError(t, s.Start("*/10 * * * *"))
	s.Stop()
	assert.Equal(t, int32(0), atomic.LoadInt32(&sessions.calls))
}
