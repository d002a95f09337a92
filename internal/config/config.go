package config

import (
	"fmt"
	"os"
)

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		d.Host, d.User, d.Password, d.Name, d.Port,
	)
}

type StorageConfig struct {
	AWSRegion    string
	AWSAccessKey string
	AWSSecretKey string
	Bucket       string
	UploadDir    string
	BaseURL      string
}

type Config struct {
	Port      string
	JWTSecret string
	RedisURL  string
	Database  DatabaseConfig
	Storage   StorageConfig
}

// Load builds the configuration from the environment. The struct is
// assembled once in main and passed down explicitly; nothing else in the
// codebase reads the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:      getenv("PORT", "8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		RedisURL:  os.Getenv("REDIS_URL"),
		Database: DatabaseConfig{
			Host:     getenv("DB_HOST", "localhost"),
			Port:     getenv("DB_PORT", "5432"),
			User:     getenv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getenv("DB_NAME", "wayfare"),
		},
		Storage: StorageConfig{
			AWSRegion:    os.Getenv("AWS_REGION"),
			AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Bucket:       os.Getenv("AWS_S3_BUCKET"),
			UploadDir:    getenv("UPLOAD_DIR", "./uploads"),
			BaseURL:      getenv("BASE_URL", "http://localhost:8080"),
		},
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
