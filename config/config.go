package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	S3        S3Config
	Kafka     KafkaConfig
	Gateway   GatewayConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Catalog   CatalogConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
	LogLevel    string
	LogFormat   string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig signs the device tokens that bind an HTTP client to its engine session.
type JWTConfig struct {
	Secret            string
	DeviceTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type KafkaConfig struct {
	Brokers     []string
	ReviewTopic string
}

// Enabled reports whether review events should be published.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// GatewayConfig controls the simulated backend latency.
type GatewayConfig struct {
	OrderLatencyMin  time.Duration
	OrderLatencyMax  time.Duration
	ReviewLatencyMin time.Duration
	ReviewLatencyMax time.Duration
	LikeLatency      time.Duration
	QueryLatency     time.Duration
}

type SessionConfig struct {
	// Store selects the device persistence backend: "database" or "redis".
	Store string
	// IdleTimeout is how long an untouched device session stays in memory.
	IdleTimeout time.Duration
	// PruneSchedule is the cron expression for idle-session pruning.
	PruneSchedule string
}

type RateLimitConfig struct {
	LoginPerMinute int
	LoginBurst     int
}

type CatalogConfig struct {
	// Path to a .json or .xlsx seed file.
	Path string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", ""),
			LogFormat:   getEnv("LOG_FORMAT", "console"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "must_canteen"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:    parseInt(getEnv("DB_MAX_OPEN_CONNS", "20"), 20),
			MaxIdleConns:    parseInt(getEnv("DB_MAX_IDLE_CONNS", "5"), 5),
			ConnMaxLifetime: parseDuration(getEnv("DB_CONN_MAX_LIFETIME", "30m"), 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", "change-me-in-production"),
			DeviceTokenExpiry: parseDuration(getEnv("JWT_DEVICE_TOKEN_EXPIRY", "720h"), 720*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-east-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "must-canteen-uploads"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Kafka: KafkaConfig{
			Brokers:     parseSlice(getEnv("KAFKA_BROKERS", "")),
			ReviewTopic: getEnv("KAFKA_REVIEW_TOPIC", "canteen.reviews"),
		},
		Gateway: GatewayConfig{
			OrderLatencyMin:  parseDuration(getEnv("GATEWAY_ORDER_LATENCY_MIN", "800ms"), 800*time.Millisecond),
			OrderLatencyMax:  parseDuration(getEnv("GATEWAY_ORDER_LATENCY_MAX", "1500ms"), 1500*time.Millisecond),
			ReviewLatencyMin: parseDuration(getEnv("GATEWAY_REVIEW_LATENCY_MIN", "500ms"), 500*time.Millisecond),
			ReviewLatencyMax: parseDuration(getEnv("GATEWAY_REVIEW_LATENCY_MAX", "1000ms"), time.Second),
			LikeLatency:      parseDuration(getEnv("GATEWAY_LIKE_LATENCY", "200ms"), 200*time.Millisecond),
			QueryLatency:     parseDuration(getEnv("GATEWAY_QUERY_LATENCY", "300ms"), 300*time.Millisecond),
		},
		Session: SessionConfig{
			Store:         getEnv("SESSION_STORE", "database"),
			IdleTimeout:   parseDuration(getEnv("SESSION_IDLE_TIMEOUT", "2h"), 2*time.Hour),
			PruneSchedule: getEnv("SESSION_PRUNE_SCHEDULE", "*/10 * * * *"),
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: parseInt(getEnv("LOGIN_RATE_PER_MINUTE", "10"), 10),
			LoginBurst:     parseInt(getEnv("LOGIN_RATE_BURST", "5"), 5),
		},
		Catalog: CatalogConfig{
			Path: getEnv("CATALOG_PATH", "data/catalog.json"),
		},
	}

	if config.Database.MaxOpenConns > 0 && config.Database.MaxIdleConns > config.Database.MaxOpenConns {
		return nil, fmt.Errorf("database max idle conns %d exceeds max open conns %d",
			config.Database.MaxIdleConns, config.Database.MaxOpenConns)
	}
	if config.Gateway.OrderLatencyMax < config.Gateway.OrderLatencyMin {
		return nil, fmt.Errorf("gateway order latency max %s is below min %s",
			config.Gateway.OrderLatencyMax, config.Gateway.OrderLatencyMin)
	}
	if config.Gateway.ReviewLatencyMax < config.Gateway.ReviewLatencyMin {
		return nil, fmt.Errorf("gateway review latency max %s is below min %s",
			config.Gateway.ReviewLatencyMax, config.Gateway.ReviewLatencyMin)
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
