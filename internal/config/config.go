package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings for the application.
type Config struct {
	AppPort string
	BaseURL string

	// DatabaseDSN selects PostgreSQL when set; otherwise the app falls back
	// to the SQLite file at SQLitePath.
	DatabaseDSN string
	SQLitePath  string

	// SecretKey signs password-reset tokens and session-adjacent material.
	SecretKey     string
	ResetTokenTTL time.Duration

	// RabbitMQURL enables the asynchronous mail queue when set; empty means
	// reset emails are delivered synchronously over SMTP.
	RabbitMQURL string

	MailHost     string
	MailPort     string
	MailUsername string
	MailPassword string
	MailSender   string

	// StaticDir is the root under which profile_pics/ and post_pics/ live.
	StaticDir string
}

// Load reads configuration from environment variables with sensible
// defaults for local development.
func Load() *Config {
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("BASE_URL", "http://localhost:8080")
	viper.SetDefault("DATABASE_DSN", "")
	viper.SetDefault("SQLITE_PATH", "blog.db")
	viper.SetDefault("SECRET_KEY", "change-me-in-production")
	viper.SetDefault("RESET_TOKEN_TTL", "30m")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("MAIL_HOST", "localhost")
	viper.SetDefault("MAIL_PORT", "25")
	viper.SetDefault("MAIL_USERNAME", "")
	viper.SetDefault("MAIL_PASSWORD", "")
	viper.SetDefault("MAIL_SENDER", "noreply@blog.local")
	viper.SetDefault("STATIC_DIR", "static")
	viper.AutomaticEnv() // Load environment variables

	return &Config{
		AppPort:       viper.GetString("APP_PORT"),
		BaseURL:       viper.GetString("BASE_URL"),
		DatabaseDSN:   viper.GetString("DATABASE_DSN"),
		SQLitePath:    viper.GetString("SQLITE_PATH"),
		SecretKey:     viper.GetString("SECRET_KEY"),
		ResetTokenTTL: viper.GetDuration("RESET_TOKEN_TTL"),
		RabbitMQURL:   viper.GetString("RABBITMQ_URL"),
		MailHost:      viper.GetString("MAIL_HOST"),
		MailPort:      viper.GetString("MAIL_PORT"),
		MailUsername:  viper.GetString("MAIL_USERNAME"),
		MailPassword:  viper.GetString("MAIL_PASSWORD"),
		MailSender:    viper.GetString("MAIL_SENDER"),
		StaticDir:     viper.GetString("STATIC_DIR"),
	}
}
