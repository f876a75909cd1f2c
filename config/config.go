package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// MongoDB connection pool.
	DatabaseURL          string        `mapstructure:"DATABASE_URL"`
	DatabaseName         string        `mapstructure:"DATABASE_NAME"`
	DBConnectTimeout     time.Duration `mapstructure:"DB_CONNECT_TIMEOUT"`
	DBSessionTimeout     time.Duration `mapstructure:"DB_SESSION_TIMEOUT"`
	DBTransactionTimeout time.Duration `mapstructure:"DB_TRANSACTION_TIMEOUT"`

	// Redis configuration.
	RedisAddr        string        `mapstructure:"REDIS_ADDR"`
	RedisPassword    string        `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB     int           `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB     int           `mapstructure:"REDIS_QUEUE_DB"`
	ScheduleCacheTTL time.Duration `mapstructure:"SCHEDULE_CACHE_TTL"`

	// Notifications.
	NotificationConcurrency int           `mapstructure:"NOTIFICATION_CONCURRENCY"`
	ReminderLeadTime        time.Duration `mapstructure:"REMINDER_LEAD_TIME"`
	OwnerContact            string        `mapstructure:"OWNER_CONTACT"`
	TwilioAccountSID        string        `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken         string        `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber        string        `mapstructure:"TWILIO_FROM_NUMBER"`

	HealthCheckSpec string `mapstructure:"HEALTH_CHECK_SPEC"`
}

var AppConfig Config

// LoadConfig reads config.yaml (if present) and the environment into AppConfig.
func LoadConfig() *Config {
	v := viper.New()
	// Look for a config file named "config.yaml" in the current and "config" directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	cfg, err := Load(v)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = *cfg
	return cfg
}

// Load applies defaults and environment overrides to v and decodes the result.
func Load(v *viper.Viper) (*Config, error) {
	// Automatically use environment variables where available.
	v.AutomaticEnv()

	// Set default values.
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("DATABASE_NAME", "appointly")
	v.SetDefault("DB_CONNECT_TIMEOUT", "10s")
	v.SetDefault("DB_SESSION_TIMEOUT", "5s")
	v.SetDefault("DB_TRANSACTION_TIMEOUT", "15s")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 3)
	v.SetDefault("SCHEDULE_CACHE_TTL", "30s")
	v.SetDefault("NOTIFICATION_CONCURRENCY", 10)
	v.SetDefault("REMINDER_LEAD_TIME", "24h")
	v.SetDefault("OWNER_CONTACT", "")
	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TWILIO_FROM_NUMBER", "")
	v.SetDefault("HEALTH_CHECK_SPEC", "@every 1m")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.DBSessionTimeout <= 0 {
		return nil, fmt.Errorf("DB_SESSION_TIMEOUT must be positive")
	}
	if cfg.DBTransactionTimeout <= 0 {
		return nil, fmt.Errorf("DB_TRANSACTION_TIMEOUT must be positive")
	}
	return &cfg, nil
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// TwilioEnabled reports whether SMS credentials are configured.
func (c *Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}
