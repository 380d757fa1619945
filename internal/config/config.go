package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	commoncfg "github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/common/config"
)

// Config buildstate-inspections（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled    bool
	Database     commoncfg.DatabaseConfig
	RedisEnabled bool
	Redis        commoncfg.RedisConfig
	MQTT         MQTTConfig
	Events       struct {
		Stream string
	}
	Storage StorageConfig
	Summary SummaryConfig
	Log     struct {
		Level  string
		Format string
	}
}

// MQTTConfig MQTT 事件发布配置（默认禁用）
type MQTTConfig struct {
	Enabled     bool
	TopicPrefix string // 如 "buildstate" -> buildstate/inspections/{id}/status
	commoncfg.MQTTConfig
}

// StorageConfig 上传文件存储配置
type StorageConfig struct {
	Provider        string // local | gcs
	LocalDir        string
	PublicBaseURL   string
	GCSBucket       string
	CredentialsJSON string
}

// SummaryConfig AI 总结配置；APIKey 为空时 generate-summary 返回 503
type SummaryConfig struct {
	APIKey   string
	Model    string
	CacheTTL time.Duration
}

// Load reads .env (when present) and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// Default to true for local dev: if DB is unavailable the server falls back to the memory repositories.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "buildstate")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)

	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "buildstate-inspections")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))
	cfg.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", "buildstate")

	cfg.Events.Stream = getEnv("EVENTS_STREAM", "buildstate:inspections:events")

	cfg.Storage.Provider = getEnv("STORAGE_PROVIDER", "local")
	cfg.Storage.LocalDir = getEnv("STORAGE_LOCAL_DIR", "./uploads")
	cfg.Storage.PublicBaseURL = getEnv("PUBLIC_BASE_URL", "http://localhost:8080")
	cfg.Storage.GCSBucket = getEnv("GCS_BUCKET", "")
	cfg.Storage.CredentialsJSON = getEnv("GCS_CREDENTIALS_JSON", "")

	cfg.Summary.APIKey = getEnv("GEMINI_API_KEY", "")
	cfg.Summary.Model = getEnv("GEMINI_MODEL", "gemini-1.5-flash")
	cfg.Summary.CacheTTL = parseDuration(getEnv("SUMMARY_CACHE_TTL", "24h"), 24*time.Hour)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
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

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
