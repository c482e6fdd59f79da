package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the API.
type Config struct {
	Port             string
	WSPort           string
	JWTSecret        string
	AdminEmail       string
	AdminPassword    string
	DatabaseURL      string
	DatabaseConfig   DatabaseConfig
	CloudinaryConfig CloudinaryConfig
	AppEnv           string

	// TradeCompletionDelay is how long an accepted trade waits before the
	// scheduler finalizes it and debits stock.
	TradeCompletionDelay time.Duration
	// TradePollInterval is the sweep interval for due completions the
	// in-process timers may have missed (e.g. after a restart).
	TradePollInterval time.Duration
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// CloudinaryConfig holds the Cloudinary upload settings.
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
}

// LoadConfig loads variables from .env and the environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("PGHOST", "localhost"),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", "agrovest_user"),
		Password: getEnv("PGPASSWORD", "agrovest_pass"),
		Name:     getEnv("PGDATABASE", "agrovest"),
		SSLMode:  getEnv("PGSSLMODE", "disable"),
	}

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode)

	cloudinaryConfig := CloudinaryConfig{
		CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
		APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
		APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
		UploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", "agrovest_mvp"),
	}

	cfg := &Config{
		Port:                 getEnv("PORT", "4000"),
		WSPort:               getEnv("WS_PORT", "4001"),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		AdminEmail:           getEnv("ADMIN_EMAIL", ""),
		AdminPassword:        getEnv("ADMIN_PASSWORD", ""),
		DatabaseURL:          dbURL,
		DatabaseConfig:       dbConfig,
		CloudinaryConfig:     cloudinaryConfig,
		AppEnv:               getEnv("APP_ENV", "production"),
		TradeCompletionDelay: getDurationEnv("TRADE_COMPLETION_DELAY", 15*time.Second),
		TradePollInterval:    getDurationEnv("TRADE_POLL_INTERVAL", 30*time.Second),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	return cfg
}

// getEnv returns an environment variable or the default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getDurationEnv parses an environment variable as a duration.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid duration in %s: %v, using default %s", key, err, defaultValue)
		return defaultValue
	}
	return d
}
