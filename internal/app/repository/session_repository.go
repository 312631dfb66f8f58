package repository

import (
	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/pkg/logger"
)

// SessionRepository remembers the active identity of a device.
type SessionRepository interface {
	// Get returns nil when no session is stored.
	Get() (*model.UserProfile, error)
	Save(profile *model.UserProfile) error
	Clear() error
}

type sessionRepository struct {
	kv KVStore
}

func NewSessionRepository(kv KVStore) SessionRepository {
	return &sessionRepository{kv: kv}
}

func (r *sessionRepository) Get() (*model.UserProfile, error) {
	var profile model.UserProfile
	found, err := loadJSON(r.kv, KeySession, &profile)
	if err != nil {
		// an unreadable session is treated as logged out
		logger.Warn("Discarding unreadable session record", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, nil
	}
	if !found {
		return nil, nil
	}
	return &profile, nil
}

func (r *sessionRepository) Save(profile *model.UserProfile) error {
	return saveJSON(r.kv, KeySession, profile)
}

func (r *sessionRepository) Clear() error {
	return r.kv.Delete(KeySession)
}
