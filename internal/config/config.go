package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MinSecretLength is the shortest JWT secret accepted in production.
const MinSecretLength = 32

var ErrWeakSecret = errors.New("JWT_SECRET is missing or too weak for production")

// placeholder secrets shipped in sample env files
var knownPlaceholderSecrets = map[string]bool{
	"your_secret_key": true,
	"secret":          true,
	"changeme":        true,
	"change-me":       true,
}

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Login     LoginConfig
	RateLimit RateLimitConfig
	Upload    UploadConfig
	Report    ReportConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	Schema       string
	SSLMode      string
	MaxOpenConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
	// Ephemeral is set when a random secret was generated for a non-production run.
	Ephemeral bool
}

type LoginConfig struct {
	MaxFailures    int
	LockoutMinutes int
}

type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
}

type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

type ReportConfig struct {
	Timezone          string
	LowStockThreshold int
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "3000")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("REDIS_ENABLED", false)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("LOGIN_MAX_FAILURES", 5)
	viper.SetDefault("LOGIN_LOCKOUT_MINUTES", 15)
	viper.SetDefault("RATE_LIMIT_REQUESTS", 60)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("UPLOAD_DIR", "./uploads")
	viper.SetDefault("UPLOAD_MAX_BYTES", 5*1024*1024)
	viper.SetDefault("REPORT_TIMEZONE", "UTC")
	viper.SetDefault("LOW_STOCK_THRESHOLD", 10)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			LogLevel:       viper.GetString("LOG_LEVEL"),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetString("DB_PORT"),
			User:         viper.GetString("DB_USER"),
			Password:     viper.GetString("DB_PASSWORD"),
			Database:     viper.GetString("DB_DATABASE"),
			Schema:       viper.GetString("DB_SCHEMA"),
			SSLMode:      viper.GetString("DB_SSLMODE"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("REDIS_ENABLED"),
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			ExpiryHours: viper.GetInt("JWT_EXPIRY_HOURS"),
		},
		Login: LoginConfig{
			MaxFailures:    viper.GetInt("LOGIN_MAX_FAILURES"),
			LockoutMinutes: viper.GetInt("LOGIN_LOCKOUT_MINUTES"),
		},
		RateLimit: RateLimitConfig{
			Requests:      viper.GetInt("RATE_LIMIT_REQUESTS"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Upload: UploadConfig{
			Dir:      viper.GetString("UPLOAD_DIR"),
			MaxBytes: viper.GetInt64("UPLOAD_MAX_BYTES"),
		},
		Report: ReportConfig{
			Timezone:          viper.GetString("REPORT_TIMEZONE"),
			LowStockThreshold: viper.GetInt("LOW_STOCK_THRESHOLD"),
		},
	}
}

// IsProduction reports whether the server runs in a production posture.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks the configuration and fails closed on a weak signing secret
// in production. Outside production a missing secret is replaced by a random
// one that only lives as long as the process.
func (c *Config) Validate() error {
	secret := strings.TrimSpace(c.JWT.Secret)
	weak := secret == "" || knownPlaceholderSecrets[strings.ToLower(secret)]

	if c.IsProduction() {
		if weak || len(secret) < MinSecretLength {
			return ErrWeakSecret
		}
	} else if weak {
		generated, err := randomSecret()
		if err != nil {
			return fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		c.JWT.Secret = generated
		c.JWT.Ephemeral = true
	}

	if c.JWT.ExpiryHours <= 0 {
		return fmt.Errorf("JWT_EXPIRY_HOURS must be positive, got %d", c.JWT.ExpiryHours)
	}
	if c.Login.MaxFailures <= 0 {
		return fmt.Errorf("LOGIN_MAX_FAILURES must be positive, got %d", c.Login.MaxFailures)
	}
	if c.Login.LockoutMinutes <= 0 {
		return fmt.Errorf("LOGIN_LOCKOUT_MINUTES must be positive, got %d", c.Login.LockoutMinutes)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", c.Upload.MaxBytes)
	}
	if _, err := time.LoadLocation(c.Report.Timezone); err != nil {
		return fmt.Errorf("invalid REPORT_TIMEZONE %q: %w", c.Report.Timezone, err)
	}

	return nil
}

// TokenTTL returns the bearer token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.ExpiryHours) * time.Hour
}

// LockoutWindow returns the login lockout window.
func (c *Config) LockoutWindow() time.Duration {
	return time.Duration(c.Login.LockoutMinutes) * time.Minute
}

// Location returns the time zone reports are computed in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DSN builds the pgx connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s&search_path=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode, d.Schema)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
