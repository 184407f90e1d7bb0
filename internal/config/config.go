package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port      int
	DBDriver  string
	DBDSN     string
	JWTSecret string
	UploadDir string
	LogLevel  string
	SMTP      SMTPConfig
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Load reads the server configuration from the environment.
// Call godotenv.Load first to pick up a .env file.
func Load() Config {
	port := 5000
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}

	return Config{
		Port:      port,
		DBDriver:  getenv("DB_DRIVER", "sqlite3"),
		DBDSN:     getenv("DB_DSN", "eventplanner.db"),
		JWTSecret: getenv("JWT_SECRET", "change-me"),
		UploadDir: getenv("UPLOAD_DIR", "uploads"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getenv("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getenv("SMTP_FROM", "no-reply@eventplanner.local"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
