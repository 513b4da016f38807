package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	TicketAPI TicketAPIConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Receipts  ReceiptsConfig
}

type ServerConfig struct {
	Port        string
	ReadTimeout time.Duration
	IdleTimeout time.Duration
}

type TicketAPIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type RedisConfig struct {
	Addr    string
	SlugTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Enabled bool
}

type ReceiptsConfig struct {
	DBPath   string
	QRSecret string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", ":8080"),
			ReadTimeout: 15 * time.Second,
			IdleTimeout: 60 * time.Second,
		},
		TicketAPI: TicketAPIConfig{
			BaseURL: getEnv("TICKET_API_URL", "http://localhost:9000"),
			Token:   getEnv("TICKET_API_TOKEN", ""),
			Timeout: time.Duration(getEnvInt("TICKET_API_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		Redis: RedisConfig{
			Addr:    getEnv("REDIS_ADDR", "localhost:6379"),
			SlugTTL: time.Duration(getEnvInt("SLUG_TTL_HOURS", 24)) * time.Hour,
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			Topic:   getEnv("KAFKA_TOPIC_CHECKOUT", "checkout-events"),
			Enabled: getEnvBool("KAFKA_ENABLED", true),
		},
		Receipts: ReceiptsConfig{
			DBPath:   getEnv("RECEIPTS_DB_PATH", "storefront.db"),
			QRSecret: getEnv("QR_SECRET_KEY", "storefront-dev-secret"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
