package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Logger     LoggerConfig
	Remote     RemoteConfig
	LocalStore LocalStoreConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	JWT        JWTConfig
	Bootstrap  BootstrapConfig
}

type ServerConfig struct {
	AppEnv   string
	GRPCPort string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type RemoteConfig struct {
	BaseURL          string
	Timeout          time.Duration
	ConnectAttempts  int
	ConnectBaseDelay time.Duration
}

type LocalStoreConfig struct {
	Driver string // memory, sqlite, postgres, redis
	DSN    string
	Prefix string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type JWTConfig struct {
	SecretKey   string
	ElevatedTTL time.Duration
}

type BootstrapConfig struct {
	Timeout  time.Duration
	PageSize int
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:   getEnv("APP_ENV", "dev"),
			GRPCPort: getEnv("GRPC_PORT", ":8090"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Remote: RemoteConfig{
			BaseURL:          getEnv("REMOTE_BASE_URL", "http://localhost:5000"),
			Timeout:          getEnvDuration("REMOTE_TIMEOUT", 10*time.Second),
			ConnectAttempts:  getEnvInt("REMOTE_CONNECT_ATTEMPTS", 5),
			ConnectBaseDelay: getEnvDuration("REMOTE_CONNECT_BASE_DELAY", 2*time.Second),
		},
		LocalStore: LocalStoreConfig{
			Driver: getEnv("LOCAL_STORE_DRIVER", "sqlite"),
			DSN:    getEnv("LOCAL_STORE_DSN", "file:storefront.db?_pragma=busy_timeout(5000)"),
			Prefix: getEnv("LOCAL_STORE_PREFIX", "storefront"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvSlice("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC_CATALOG", "catalog.events"),
			GroupID: getEnv("KAFKA_GROUP_STOREFRONT", "storefront"),
		},
		JWT: JWTConfig{
			SecretKey:   getEnv("JWT_SECRET_KEY", "your-secret-key-change-this-in-prod"),
			ElevatedTTL: getEnvDuration("JWT_ELEVATED_TTL", 5*time.Minute),
		},
		Bootstrap: BootstrapConfig{
			Timeout:  getEnvDuration("BOOTSTRAP_TIMEOUT", 2*time.Minute),
			PageSize: getEnvInt("BOOTSTRAP_PAGE_SIZE", 100),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return strings.Split(value, ",")
	}
	return fallback
}
