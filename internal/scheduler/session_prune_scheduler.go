package scheduler

import (
	"time"

	"github.com/ikkim/must-canteen/pkg/logger"
	"github.com/robfig/cron/v3"
)

// SessionPruner drops idle in-memory device sessions.
type SessionPruner interface {
	Prune() int
}

// LimiterPruner forgets rate-limit buckets that have been idle for a while.
type LimiterPruner interface {
	Prune(idle time.Duration) int
}

// SessionPruneScheduler periodically evicts idle device sessions and limiter buckets.
// Persisted identity and favorites are untouched; the next request rebuilds the session.
type SessionPruneScheduler struct {
	cron     *cron.Cron
	sessions SessionPruner
	limiters []LimiterPruner
	idle     time.Duration
}

func NewSessionPruneScheduler(sessions SessionPruner, idle time.Duration, limiters ...LimiterPruner) *SessionPruneScheduler {
	return &SessionPruneScheduler{
		cron:     cron.New(),
		sessions: sessions,
		limiters: limiters,
		idle:     idle,
	}
}

// Start registers the prune job on schedule (standard 5-field cron) and starts the cron.
func (s *SessionPruneScheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		logger.Error("Failed to add cron job for session pruning", err, map[string]interface{}{
			"schedule": schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Session prune scheduler started", map[string]interface{}{
		"schedule": schedule,
		"idle":     s.idle.String(),
	})
	return nil
}

// RunOnce performs one prune pass.
func (s *SessionPruneScheduler) RunOnce() {
	sessions := s.sessions.Prune()
	buckets := 0
	for _, l := range s.limiters {
		buckets += l.Prune(s.idle)
	}
	logger.Debug("Prune pass finished", map[string]interface{}{
		"sessions": sessions,
		"buckets":  buckets,
	})
}

// Stop waits for a running job and stops the cron.
func (s *SessionPruneScheduler) Stop() {
	logger.Info("Stopping session prune scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Session prune scheduler stopped", nil)
}
