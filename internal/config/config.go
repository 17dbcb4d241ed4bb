package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Receipts ReceiptsConfig
	Share    ShareConfig
	SMTP     SMTPConfig
	Geocoder GeocoderConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// ReceiptsConfig holds receipt generation configuration.
type ReceiptsConfig struct {
	// Dir is where generated receipt PDFs are written.
	Dir string
	// BaseURL is the public base URL used when building shareable links.
	BaseURL string
}

// ShareConfig holds signed receipt link configuration.
type ShareConfig struct {
	// Secret signs share-link tokens. Required outside development.
	Secret string
	// TTL is how long an issued link stays valid.
	TTL time.Duration
}

// SMTPConfig holds outgoing mail configuration for late-payment notices.
type SMTPConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// GeocoderConfig holds the address geocoding service configuration.
type GeocoderConfig struct {
	// BaseURL of a Nominatim-compatible search endpoint.
	BaseURL string
	Timeout time.Duration
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "retam")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("RECEIPTS_DIR", "./data/receipts")
	v.SetDefault("RECEIPTS_BASE_URL", "http://localhost:8080")
	v.SetDefault("SHARE_TOKEN_SECRET", "")
	v.SetDefault("SHARE_TOKEN_TTL", "24h")
	v.SetDefault("SMTP_ENABLED", false)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEOCODER_TIMEOUT", "10s")

	// Bind environment variables
	v.AutomaticEnv()

	// Build configuration
	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Receipts: ReceiptsConfig{
			Dir:     v.GetString("RECEIPTS_DIR"),
			BaseURL: v.GetString("RECEIPTS_BASE_URL"),
		},
		Share: ShareConfig{
			Secret: v.GetString("SHARE_TOKEN_SECRET"),
			TTL:    v.GetDuration("SHARE_TOKEN_TTL"),
		},
		SMTP: SMTPConfig{
			Enabled:  v.GetBool("SMTP_ENABLED"),
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Geocoder: GeocoderConfig{
			BaseURL: v.GetString("GEOCODER_URL"),
			Timeout: v.GetDuration("GEOCODER_TIMEOUT"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	// Validate database config
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	// Validate CORS config
	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	// Validate receipts config
	if c.Receipts.Dir == "" {
		return fmt.Errorf("RECEIPTS_DIR is required")
	}
	if c.Receipts.BaseURL == "" {
		return fmt.Errorf("RECEIPTS_BASE_URL is required")
	}

	// Validate share-link config
	if c.Share.Secret == "" && c.Server.Env != "development" {
		return fmt.Errorf("SHARE_TOKEN_SECRET is required outside development")
	}
	if c.Share.TTL <= 0 {
		return fmt.Errorf("SHARE_TOKEN_TTL must be positive")
	}

	// Validate SMTP config when notifications are enabled
	if c.SMTP.Enabled {
		if c.SMTP.Host == "" {
			return fmt.Errorf("SMTP_HOST is required when SMTP_ENABLED is true")
		}
		if c.SMTP.From == "" {
			return fmt.Errorf("SMTP_FROM is required when SMTP_ENABLED is true")
		}
	}

	// Validate geocoder config
	if c.Geocoder.BaseURL == "" {
		return fmt.Errorf("GEOCODER_URL is required")
	}
	if c.Geocoder.Timeout <= 0 {
		return fmt.Errorf("GEOCODER_TIMEOUT must be positive")
	}

	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
