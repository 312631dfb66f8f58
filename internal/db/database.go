package db

import (
	"fmt"

	"github.com/ikkim/must-canteen/config"
	appLogger "github.com/ikkim/must-canteen/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB backs the device_records store when SESSION_STORE is "database".
var DB *gorm.DB

// Open connects to postgres, sizes the pool from cfg and migrates the device store.
func Open(cfg *config.DatabaseConfig) error {
	if err := Initialize(cfg); err != nil {
		return err
	}
	return Migrate()
}

// Initialize connects without migrating.
func Initialize(cfg *config.DatabaseConfig) error {
	appLogger.Info("Connecting device store database", map[string]interface{}{
		"host":     cfg.Host,
		"port":     cfg.Port,
		"database": cfg.DBName,
		"user":     cfg.User,
		"table":    deviceRecordsTable,
	})

	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to device store database: %w", err)
	}
	if err := configurePool(gdb, cfg); err != nil {
		return err
	}

	DB = gdb
	appLogger.Info("Device store database connected", map[string]interface{}{
		"max_open_conns":    cfg.MaxOpenConns,
		"max_idle_conns":    cfg.MaxIdleConns,
		"conn_max_lifetime": cfg.ConnMaxLifetime.String(),
	})
	return nil
}

// configurePool applies the pool limits; zero values keep database/sql defaults.
func configurePool(gdb *gorm.DB, cfg *config.DatabaseConfig) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return nil
}

// Close closes the device store connection. Safe to call before Open.
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	appLogger.Info("Closing device store database", map[string]interface{}{
		"table": deviceRecordsTable,
	})
	return sqlDB.Close()
}

func GetDB() *gorm.DB {
	return DB
}
