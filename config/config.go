package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Iyzico    IyzicoConfig
	FCM       FCMConfig
	Scheduler SchedulerConfig
	Auth      AuthConfig
	Logging   LoggingConfig
}

// ServerConfig HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

// StoreConfig selects the backing store implementation
type StoreConfig struct {
	// Driver is "postgres" or "memory"
	Driver string
}

// DatabaseConfig Postgres configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig Redis configuration for webhook event deduplication
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

// KafkaConfig Kafka configuration
type KafkaConfig struct {
	Brokers []string
	Enabled bool
}

// IyzicoConfig payment gateway configuration
type IyzicoConfig struct {
	APIKey        string
	SecretKey     string
	WebhookSecret string
	Sandbox       bool
	Simulate      bool
	// SimulateSuccessRate approval rate of the simulated gateway
	SimulateSuccessRate float64
}

// FCMConfig push delivery configuration
type FCMConfig struct {
	ProjectID   string
	AccessToken string
	Enabled     bool
}

// SchedulerConfig cron schedules
type SchedulerConfig struct {
	RenewalSweepSchedule string
	CleanupSchedule      string
	Timezone             string
	Enabled              bool
}

// AuthConfig JWT verification configuration
type AuthConfig struct {
	JWTSecret string
}

// LoggingConfig logger configuration
type LoggingConfig struct {
	Level string
}

// GetDSN returns the Postgres connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Load reads configuration from environment variables with defaults
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30)

	v.SetDefault("STORE_DRIVER", "postgres")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "subscription_service")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_ENABLED", true)

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_ENABLED", true)

	v.SetDefault("IYZICO_API_KEY", "")
	v.SetDefault("IYZICO_SECRET_KEY", "")
	v.SetDefault("IYZICO_WEBHOOK_SECRET", "")
	v.SetDefault("IYZICO_SANDBOX", true)
	v.SetDefault("IYZICO_SIMULATE", false)
	v.SetDefault("IYZICO_SIMULATE_SUCCESS_RATE", 0.9)

	v.SetDefault("FCM_PROJECT_ID", "")
	v.SetDefault("FCM_ACCESS_TOKEN", "")
	v.SetDefault("FCM_ENABLED", true)

	v.SetDefault("RENEWAL_SWEEP_SCHEDULE", "0 9 * * *")
	v.SetDefault("CLEANUP_SCHEDULE", "0 2 * * *")
	v.SetDefault("SCHEDULER_TIMEZONE", "Europe/Istanbul")
	v.SetDefault("SCHEDULER_ENABLED", true)

	v.SetDefault("JWT_SECRET", "")

	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("PORT"),
			ReadTimeout:     v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetInt("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetInt("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Store: StoreConfig{
			Driver: v.GetString("STORE_DRIVER"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Enabled:  v.GetBool("REDIS_ENABLED"),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			Enabled: v.GetBool("KAFKA_ENABLED"),
		},
		Iyzico: IyzicoConfig{
			APIKey:              v.GetString("IYZICO_API_KEY"),
			SecretKey:           v.GetString("IYZICO_SECRET_KEY"),
			WebhookSecret:       v.GetString("IYZICO_WEBHOOK_SECRET"),
			Sandbox:             v.GetBool("IYZICO_SANDBOX"),
			Simulate:            v.GetBool("IYZICO_SIMULATE"),
			SimulateSuccessRate: v.GetFloat64("IYZICO_SIMULATE_SUCCESS_RATE"),
		},
		FCM: FCMConfig{
			ProjectID:   v.GetString("FCM_PROJECT_ID"),
			AccessToken: v.GetString("FCM_ACCESS_TOKEN"),
			Enabled:     v.GetBool("FCM_ENABLED"),
		},
		Scheduler: SchedulerConfig{
			RenewalSweepSchedule: v.GetString("RENEWAL_SWEEP_SCHEDULE"),
			CleanupSchedule:      v.GetString("CLEANUP_SCHEDULE"),
			Timezone:             v.GetString("SCHEDULER_TIMEZONE"),
			Enabled:              v.GetBool("SCHEDULER_ENABLED"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}

	if cfg.Store.Driver != "postgres" && cfg.Store.Driver != "memory" {
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}

	return cfg, nil
}
