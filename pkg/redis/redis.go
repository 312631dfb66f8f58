package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/must-canteen/config"
	"github.com/ikkim/must-canteen/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// opTimeout bounds each device store round-trip.
const opTimeout = 3 * time.Second

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// DeviceStore keeps one device scope's records as plain keys "device:<scope>:<key>".
type DeviceStore struct {
	rdb   redis.Cmdable
	scope string
}

// NewDeviceStore binds a store to scope. A nil rdb uses the global client.
func NewDeviceStore(rdb redis.Cmdable, scope string) *DeviceStore {
	if rdb == nil {
		rdb = client
	}
	return &DeviceStore{rdb: rdb, scope: scope}
}

func (s *DeviceStore) key(k string) string {
	return fmt.Sprintf("device:%s:%s", s.scope, k)
}

// Get reports found=false when the key does not exist.
func (s *DeviceStore) Get(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	val, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		logger.Error("Failed to read device record", err, map[string]interface{}{
			"scope": s.scope,
			"key":   key,
		})
		return nil, false, err
	}
	return val, true, nil
}

func (s *DeviceStore) Set(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := s.rdb.Set(ctx, s.key(key), value, 0).Err(); err != nil {
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

func (s *DeviceStore) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		logger.Error("Failed to delete device record", err, map[string]interface{}{
			"scope": s.scope,
			"key":   key,
		})
		return err
	}
	return nil
}
