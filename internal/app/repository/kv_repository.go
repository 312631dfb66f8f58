package repository

import (
	"encoding/json"
	"errors"

	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Fixed keys of the device store.
const (
	KeySession           = "session"
	KeyCredentialRecords = "credentialRecords"
	KeyFavorites         = "favorites"
)

// SharedScope is the scope used for records visible to every device.
const SharedScope = "shared"

// KVStore is the durable key-value store of one device scope.
// Get reports found=false for an absent key.
type KVStore interface {
	Get(key string) (value []byte, found bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
}

type deviceStore struct {
	db    *gorm.DB
	scope string
}

// NewDeviceStore returns a KVStore backed by the device_records table.
func NewDeviceStore(db *gorm.DB, scope string) KVStore {
	return &deviceStore{db: db, scope: scope}
}

func (s *deviceStore) Get(key string) ([]byte, bool, error) {
	var record model.DeviceRecord
	err := s.db.Where("scope = ? AND record_key = ?", s.scope, key).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		logger.Error("Failed to read device record", err, map[string]interface{}{
			"scope": s.scope,
			"key":   key,
		})
		return nil, false, err
	}
	return record.Value, true, nil
}

func (s *deviceStore) Set(key string, value []byte) error {
	record := model.DeviceRecord{Scope: s.scope, Key: key, Value: value}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}, {Name: "record_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		logger.Error("Failed to write device record", err, map[string]interface{}{
			"scope": s.scope,
			"key":   key,
		})
		return err
	}

	logger.Debug("Device record written", map[string]interface{}{
		"scope": s.scope,
		"key":   key,
		"bytes": len(value),
	})
	return nil
}

func (s *deviceStore) Delete(key string) error {
	err := s.db.Where("scope = ? AND record_key = ?", s.scope, key).Delete(&model.DeviceRecord{}).Error
	if err != nil {
		logger.Error("Failed to delete device record", err, map[string]interface{}{
			"scope": s.scope,
			"key":   key,
		})
		return err
	}
	return nil
}

// loadJSON decodes the blob at key into dst. It reports false when the key is absent.
func loadJSON(kv KVStore, key string, dst interface{}) (bool, error) {
	raw, found, err := kv.Get(key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func saveJSON(kv KVStore, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return kv.Set(key, raw)
}
