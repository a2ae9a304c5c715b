package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DBConfig struct {
		DBHost     string `env:"SHOP_DB_HOST"`
		DBPort     string `env:"SHOP_DB_PORT"`
		DBUser     string `env:"SHOP_DB_USER"`
		DBPassword string `env:"SHOP_DB_PASSWORD"`
		DBName     string `env:"SHOP_DB_NAME"`
		DBSSLMode  string `env:"SHOP_DB_SSLMODE"`
	}

	RedisAddr     string `env:"SHOP_REDIS_ADDR"`
	RedisPassword string `env:"SHOP_REDIS_PASSWORD"`

	KafkaURL              string `env:"KAFKA_BROKER_URL"`
	KafkaOrderEventsTopic string `env:"KAFKA_ORDER_EVENTS_TOPIC"`

	RedsysMerchantCode string `env:"REDSYS_MERCHANT_CODE"`
	RedsysTerminal     string `env:"REDSYS_TERMINAL"`
	RedsysMerchantName string `env:"REDSYS_MERCHANT_NAME"`
	RedsysSecretKey    string `env:"REDSYS_SECRET_KEY"`
	RedsysMerchantURL  string `env:"REDSYS_MERCHANT_URL"`
	RedsysSandbox      bool   `env:"REDSYS_SANDBOX"`

	SuccessURL string `env:"PAYMENT_SUCCESS_URL"`
	FailureURL string `env:"PAYMENT_FAILURE_URL"`

	ServerPort         string        `env:"SHOP_HTTP_PORT"`
	MigrationsPath     string        `env:"SHOP_MIGRATIONS_PATH"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL"`
	OutboxPollTimeout  time.Duration `env:"OUTBOX_POLL_TIMEOUT"`
	ProductCacheTTL    time.Duration `env:"PRODUCT_CACHE_TTL"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	cfg.DBConfig.DBHost = getEnvOrDefault("SHOP_DB_HOST", "localhost")
	cfg.DBConfig.DBPort = getEnvOrDefault("SHOP_DB_PORT", "5432")
	cfg.DBConfig.DBUser = getEnvOrDefault("SHOP_DB_USER", "postgres")
	cfg.DBConfig.DBPassword = getEnvOrDefault("SHOP_DB_PASSWORD", "postgres")
	cfg.DBConfig.DBName = getEnvOrDefault("SHOP_DB_NAME", "gloveshop_db")
	cfg.DBConfig.DBSSLMode = getEnvOrDefault("SHOP_DB_SSLMODE", "disable")

	cfg.RedisAddr = getEnvOrDefault("SHOP_REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnvOrDefault("SHOP_REDIS_PASSWORD", "")

	cfg.KafkaURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.KafkaOrderEventsTopic = getEnvOrDefault("KAFKA_ORDER_EVENTS_TOPIC", "order_events")

	cfg.RedsysMerchantCode = getEnvOrDefault("REDSYS_MERCHANT_CODE", "")
	cfg.RedsysTerminal = getEnvOrDefault("REDSYS_TERMINAL", "001")
	cfg.RedsysMerchantName = getEnvOrDefault("REDSYS_MERCHANT_NAME", "Total Keepers")
	cfg.RedsysSecretKey = getEnvOrDefault("REDSYS_SECRET_KEY", "")
	cfg.RedsysMerchantURL = getEnvOrDefault("REDSYS_MERCHANT_URL", "")
	cfg.RedsysSandbox = getEnvOrDefault("REDSYS_SANDBOX", "true") == "true"

	cfg.SuccessURL = getEnvOrDefault("PAYMENT_SUCCESS_URL", "")
	cfg.FailureURL = getEnvOrDefault("PAYMENT_FAILURE_URL", "")

	cfg.ServerPort = getEnvOrDefault("SHOP_HTTP_PORT", "8080")
	cfg.MigrationsPath = getEnvOrDefault("SHOP_MIGRATIONS_PATH", "file://migrations")

	outboxPollIntervalStr := getEnvOrDefault("OUTBOX_POLL_INTERVAL", "5s")
	interval, err := time.ParseDuration(outboxPollIntervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_POLL_INTERVAL: %w", err)
	}
	cfg.OutboxPollInterval = interval

	outboxPollTimeoutStr := getEnvOrDefault("OUTBOX_POLL_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(outboxPollTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_POLL_TIMEOUT: %w", err)
	}
	cfg.OutboxPollTimeout = timeout

	cacheTTLStr := getEnvOrDefault("PRODUCT_CACHE_TTL", "5m")
	cacheTTL, err := time.ParseDuration(cacheTTLStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PRODUCT_CACHE_TTL: %w", err)
	}
	cfg.ProductCacheTTL = cacheTTL

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBConfig.DBHost, c.DBConfig.DBPort, c.DBConfig.DBUser, c.DBConfig.DBPassword, c.DBConfig.DBName, c.DBConfig.DBSSLMode)
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("%s:%s@%s:%s/%s?sslmode=%s",
		c.DBConfig.DBUser, c.DBConfig.DBPassword, c.DBConfig.DBHost, c.DBConfig.DBPort, c.DBConfig.DBName, c.DBConfig.DBSSLMode)
}

func (c *Config) GetKafkaBrokers() []string {
	return []string{c.KafkaURL}
}
