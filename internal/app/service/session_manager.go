package service

import (
	"sync"
	"time"

	"github.com/ikkim/must-canteen/pkg/logger"
)

// SessionManager keeps one live Session per device id.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	build    func(deviceID string) *Session
	idle     time.Duration
	now      func() time.Time
}

// NewSessionManager creates sessions lazily with build. Sessions untouched for idle
// are dropped by Prune; their persisted identity and favorites survive.
func NewSessionManager(build func(deviceID string) *Session, idle time.Duration) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		build:    build,
		idle:     idle,
		now:      time.Now,
	}
}

// Get returns the device's session, creating it on first use.
func (m *SessionManager) Get(deviceID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[deviceID]
	if !ok {
		session = m.build(deviceID)
		m.sessions[deviceID] = session
		logger.Debug("Session created", map[string]interface{}{
			"device_id": deviceID,
			"sessions":  len(m.sessions),
		})
	}
	session.Touch(m.now())
	return session
}

// Lookup returns an existing session without creating or touching it.
func (m *SessionManager) Lookup(deviceID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[deviceID]
	return session, ok
}

// Prune drops idle sessions that have no checkout in flight.
func (m *SessionManager) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.idle)
	pruned := 0
	for id, session := range m.sessions {
		if session.LastSeen().Before(cutoff) && !session.Busy() {
			delete(m.sessions, id)
			pruned++
		}
	}
	if pruned > 0 {
		logger.Info("Idle sessions pruned", map[string]interface{}{
			"pruned":    pruned,
			"remaining": len(m.sessions),
		})
	}
	return pruned
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
