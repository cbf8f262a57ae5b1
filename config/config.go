package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	OAuth      OAuthConfig
	Cloudinary CloudinaryConfig
	Chat       ChatConfig
	OTP        OTPConfig
	SMS        SMSConfig
	Admin      AdminConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// ChatConfig holds the presence/typing timing knobs. The stale window is how
// long a row may go without a heartbeat before the sweeper demotes it.
type ChatConfig struct {
	SweepInterval time.Duration
	StaleWindow   time.Duration
	TypingWindow  time.Duration
}

type OTPConfig struct {
	CodeLength     int
	Expiry         time.Duration
	ResendCooldown time.Duration
}

type SMSConfig struct {
	BaseURL  string
	APIKey   string
	SenderID string
}

type AdminConfig struct {
	Phone    string
	Password string
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("[config] invalid duration for %s, using default %s", key, fallback)
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func Load() *Config {
	// .env is optional; real deployments set env vars directly
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         env("PORT", "8080"),
			Env:          env("APP_ENV", "development"),
			ReadTimeout:  envDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: envDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			DSN:             env("DATABASE_DSN", "bysell:bysell@tcp(localhost:3306)/bysell?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			AccessSecret:  env("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: env("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  envDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: envDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),
			Issuer:        env("JWT_ISSUER", "bysell"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     env("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: env("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  env("GOOGLE_REDIRECT_URL", ""),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: env("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    env("CLOUDINARY_API_KEY", ""),
			APISecret: env("CLOUDINARY_API_SECRET", ""),
		},
		Chat: ChatConfig{
			SweepInterval: envDuration("PRESENCE_SWEEP_INTERVAL", 2*time.Minute),
			StaleWindow:   envDuration("PRESENCE_STALE_WINDOW", 5*time.Minute),
			TypingWindow:  envDuration("TYPING_WINDOW", time.Minute),
		},
		OTP: OTPConfig{
			CodeLength:     envInt("OTP_CODE_LENGTH", 6),
			Expiry:         envDuration("OTP_EXPIRY", 5*time.Minute),
			ResendCooldown: envDuration("OTP_RESEND_COOLDOWN", time.Minute),
		},
		SMS: SMSConfig{
			BaseURL:  env("SMS_BASE_URL", ""),
			APIKey:   env("SMS_API_KEY", ""),
			SenderID: env("SMS_SENDER_ID", "BYSELL"),
		},
		Admin: AdminConfig{
			Phone:    env("ADMIN_PHONE", "+10000000000"),
			Password: env("ADMIN_PASSWORD", "admin12345"),
		},
	}
}
