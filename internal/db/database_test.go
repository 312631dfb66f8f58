package db

import (
	"testing"
	"time"

	"github.com/ikkim/must-canteen/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() { CleanupTestDB(gdb) })
	return gdb
}

func TestConfigurePool(t *testing.T) {
	gdb := openSQLite(t)

	err := configurePool(gdb, &config.DatabaseConfig{
		MaxOpenConns:    7,
		MaxIdleConns:    3,
		ConnMaxLifetime: time.Minute,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	assert.Equal(t, 7, sqlDB.Stats().MaxOpenConnections)
}

func TestConfigurePool_ZeroKeepsDefaults(t *testing.T) {
	gdb := openSQLite(t)

	require.NoError(t, configurePool(gdb, &config.DatabaseConfig{}))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	assert.Zero(t, sqlDB.Stats().MaxOpenConnections)
}

func TestMigrateDeviceStore(t *testing.T) {
	gdb := openSQLite(t)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migrateDeviceStore(gdb))
	assert.True(t, gdb.Migrator().HasTable(deviceRecordsTable))

	// running it again is a no-op
	require.NoError(t, migrateDeviceStore(gdb))
}

func TestMigrateRequiresConnection(t *testing.T) {
	saved := DB
	DB = nil
	t.Cleanup(func() { DB = saved })

	assert.Error(t, Migrate())
	assert.NoError(t, Close())
}
