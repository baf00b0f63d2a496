// Package config содержит логику чтения конфигурации сервиса заказов.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

// ObjectStore содержит параметры S3-совместимого хранилища.
type ObjectStore struct {
	Endpoint        string `env:"ENDPOINT"`
	Region          string `env:"REGION" envDefault:"auto"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	Bucket          string `env:"BUCKET"`
	PublicBaseURL   string `env:"PUBLIC_BASE_URL"`
}

// Supabase содержит параметры Supabase Storage.
type Supabase struct {
	URL          string `env:"URL"`
	Key          string `env:"KEY"`
	BucketPrefix string `env:"BUCKET_PREFIX"`
}

// Config содержит параметры конфигурации сервиса заказов.
type Config struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	DatabaseURI string `env:"DATABASE_URI"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`
	JWTSecret   string `env:"JWT_SECRET"`

	DeliverySurcharge decimal.Decimal `env:"DELIVERY_SURCHARGE" envDefault:"15.00"`
	Timezone          string          `env:"TIMEZONE" envDefault:"America/Guatemala"`

	ReportMinBytes int64 `env:"REPORT_MIN_BYTES" envDefault:"1000"`
	ReportMaxBytes int64 `env:"REPORT_MAX_BYTES" envDefault:"10485760"`
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	ObjectStore ObjectStore `envPrefix:"OBJECT_STORE_"`
	Supabase    Supabase    `envPrefix:"SUPABASE_"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DeliverySurcharge.IsNegative() {
		return fmt.Errorf("DELIVERY_SURCHARGE must not be negative")
	}
	if c.ReportMaxBytes <= 0 || c.ReportMinBytes < 0 || c.ReportMinBytes > c.ReportMaxBytes {
		return fmt.Errorf("invalid report size limits: min %d, max %d", c.ReportMinBytes, c.ReportMaxBytes)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location возвращает часовой пояс, в котором считаются календарные дни и месяцы отчётов.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
