package db

import (
	"errors"

	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/pkg/logger"
	"gorm.io/gorm"
)

const deviceRecordsTable = "device_records"

// Migrate creates or updates the device_records table on DB.
func Migrate() error {
	if DB == nil {
		return errors.New("device store database is not initialized")
	}
	return migrateDeviceStore(DB)
}

func migrateDeviceStore(gdb *gorm.DB) error {
	logger.Info("Migrating device store", map[string]interface{}{
		"table": deviceRecordsTable,
	})

	if err := gdb.AutoMigrate(&model.DeviceRecord{}); err != nil {
		logger.Error("Failed to migrate device store", err, map[string]interface{}{
			"table": deviceRecordsTable,
		})
		return err
	}

	logger.Info("Device store migrated", map[string]interface{}{
		"table": deviceRecordsTable,
	})
	return nil
}
