package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the process settings read from the environment.
type Config struct {
	Host string
	Port int

	DBDriver    string // sqlite, postgres or memory
	DBPath      string
	DatabaseDSN string
	SeedMenu    bool

	PasswordPepper string
	SessionTTL     time.Duration

	RabbitMQURL string
	RedisURL    string

	LoginRatePerSec float64
	LoginRateBurst  int

	LogLevel  string
	LogFormat string
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("BACKEND_HOST", "127.0.0.1")
	v.SetDefault("BACKEND_PORT", 8081)
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_PATH", "restaurant.db")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=restaurant port=5432 sslmode=disable")
	v.SetDefault("SEED_MENU", true)
	v.SetDefault("PASSWORD_PEPPER", "restaurant-order-system-pepper")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("LOGIN_RATE_PER_SEC", 5)
	v.SetDefault("LOGIN_RATE_BURST", 10)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Host:            v.GetString("BACKEND_HOST"),
		Port:            v.GetInt("BACKEND_PORT"),
		DBDriver:        strings.ToLower(v.GetString("DB_DRIVER")),
		DBPath:          v.GetString("DB_PATH"),
		DatabaseDSN:     v.GetString("DATABASE_DSN"),
		SeedMenu:        v.GetBool("SEED_MENU"),
		PasswordPepper:  v.GetString("PASSWORD_PEPPER"),
		SessionTTL:      v.GetDuration("SESSION_TTL"),
		RabbitMQURL:     v.GetString("RABBITMQ_URL"),
		RedisURL:        v.GetString("REDIS_URL"),
		LoginRatePerSec: v.GetFloat64("LOGIN_RATE_PER_SEC"),
		LoginRateBurst:  v.GetInt("LOGIN_RATE_BURST"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
	}

	switch cfg.DBDriver {
	case "sqlite", "postgres", "memory":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid BACKEND_PORT %d", cfg.Port)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	if cfg.PasswordPepper == "" {
		return nil, fmt.Errorf("PASSWORD_PEPPER must not be empty")
	}
	return cfg, nil
}
