package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DatabaseConfig PostgreSQL 连接配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取 lib/pq 连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// MQTTConfig 遥测镜像发布配置（默认关闭）
type MQTTConfig struct {
	Enabled     bool
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// Config khetbox-dashboard 配置
type Config struct {
	HTTP struct {
		Addr        string
		CORSOrigins []string
	}
	DeviceID string

	DBEnabled bool
	Database  DatabaseConfig
	Store     struct {
		Timeout      time.Duration
		ListLimit    int
		AlertsLimit  int
		PersistAlert bool
	}

	RedisEnabled bool
	Redis        struct {
		Addr       string
		Password   string
		DB         int
		PayloadTTL time.Duration
	}

	Broadcast struct {
		Interval  time.Duration
		QueueSize int
	}

	Report struct {
		CacheTTL    time.Duration
		FallbackTTL time.Duration
	}

	MQTT MQTTConfig

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置；工作目录下存在 .env 时先加载（不覆盖已设置的变量）
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8001")
	cfg.HTTP.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "*"))
	cfg.DeviceID = getEnv("DEVICE_ID", "khetbox-001")

	// Default to true: if PostgreSQL is unreachable the service falls back to the memory store.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "khetbox")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = cfg.Database.MaxConns / 2

	cfg.Store.Timeout = time.Duration(parseInt(getEnv("STORE_TIMEOUT_SEC", "5"), 5)) * time.Second
	cfg.Store.ListLimit = parseInt(getEnv("STORE_LIST_LIMIT", "10"), 10)
	cfg.Store.AlertsLimit = parseInt(getEnv("ALERTS_LIST_LIMIT", "100"), 100)
	cfg.Store.PersistAlert = getEnv("ALERTS_PERSIST", "true") == "true"

	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "true") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)
	cfg.Redis.PayloadTTL = time.Duration(parseInt(getEnv("PAYLOAD_CACHE_TTL_SEC", "60"), 60)) * time.Second

	cfg.Broadcast.Interval = time.Duration(parseInt(getEnv("BROADCAST_INTERVAL_SEC", "8"), 8)) * time.Second
	cfg.Broadcast.QueueSize = parseInt(getEnv("SUBSCRIBER_QUEUE_SIZE", "16"), 16)

	cfg.Report.CacheTTL = time.Duration(parseInt(getEnv("REPORT_CACHE_TTL_MIN", "1440"), 1440)) * time.Minute
	cfg.Report.FallbackTTL = time.Duration(parseInt(getEnv("REPORT_FALLBACK_TTL_SEC", "60"), 60)) * time.Second

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "khetbox-dashboard")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", "khetbox")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置取值
func (c *Config) Validate() error {
	if c.DeviceID == "" {
		return errors.New("DEVICE_ID must not be empty")
	}
	if c.Store.Timeout <= 0 {
		return errors.New("STORE_TIMEOUT_SEC must be positive")
	}
	if c.Broadcast.Interval <= 0 {
		return errors.New("BROADCAST_INTERVAL_SEC must be positive")
	}
	if c.Broadcast.QueueSize <= 0 {
		return errors.New("SUBSCRIBER_QUEUE_SIZE must be positive")
	}
	if c.Store.ListLimit <= 0 || c.Store.AlertsLimit <= 0 {
		return errors.New("list limits must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
