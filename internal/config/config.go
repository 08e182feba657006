package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// Config holds all configuration
type Config struct {
	MySQL    MySQLConfig
	Redis    RedisConfig
	JWT      JWTConfig
	SMTP     SMTPConfig
	App      AppConfig
	Upload   UploadConfig
	Migrate  bool
	HTTPAddr string
}

// MySQLConfig holds MySQL configuration
type MySQLConfig struct {
	DSN string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	ExpireMinutes int
	Issuer        string
}

// SMTPConfig holds outbound mail configuration
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name          string
	BaseURL       string
	Env           string
	AdminEmail    string // operator address notified on registrations
	ContactEmail  string // recipient of contact form submissions
	AdminPassword string // initial admin seed password, only used on first migrate
	StaticDir     string // optional prebuilt SPA bundle to serve
}

// UploadConfig holds image upload configuration
type UploadConfig struct {
	Dir   string
	MaxMB int
}

// Load loads configuration from environment variables. A .env file is
// honored if present; when CONFIG_FILE points at an INI file its values
// are layered in with priority ENV > INI > default.
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	var iniFile *ini.File
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		f, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load INI file: %w", err)
		}
		iniFile = f
	}

	// Priority: ENV > INI > default
	getValue := func(envKey, iniSection, iniKey, defaultValue string) string {
		if value := os.Getenv(envKey); value != "" {
			return value
		}
		if iniFile != nil {
			if value := iniFile.Section(iniSection).Key(iniKey).String(); value != "" {
				return value
			}
		}
		return defaultValue
	}

	getValueInt := func(envKey, iniSection, iniKey string, defaultValue int) int {
		if value := os.Getenv(envKey); value != "" {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		if iniFile != nil && iniFile.Section(iniSection).HasKey(iniKey) {
			if value, err := iniFile.Section(iniSection).Key(iniKey).Int(); err == nil {
				return value
			}
		}
		return defaultValue
	}

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getValue("MYSQL_DSN", "mysql", "dsn", ""),
		},
		Redis: RedisConfig{
			Addr:     getValue("REDIS_ADDR", "redis", "addr", ""),
			Password: getValue("REDIS_PASS", "redis", "pass", ""),
			DB:       getValueInt("REDIS_DB", "redis", "db", 0),
		},
		JWT: JWTConfig{
			Secret:        getValue("JWT_SECRET", "jwt", "secret", ""),
			ExpireMinutes: getValueInt("JWT_EXPIRE_MINUTES", "jwt", "expire_minutes", 60),
			Issuer:        getValue("JWT_ISSUER", "jwt", "issuer", "codeclover"),
		},
		SMTP: SMTPConfig{
			Host: getValue("SMTP_HOST", "smtp", "host", ""),
			Port: getValueInt("SMTP_PORT", "smtp", "port", 465),
			User: getValue("SMTP_USER", "smtp", "user", ""),
			Pass: getValue("SMTP_PASS", "smtp", "pass", ""),
			From: getValue("EMAIL_FROM", "smtp", "from", ""),
		},
		App: AppConfig{
			Name:          getValue("APP_NAME", "app", "name", "CodeClover"),
			BaseURL:       getValue("APP_BASE_URL", "app", "base_url", "http://localhost:8080"),
			Env:           getValue("APP_ENV", "app", "env", "development"),
			AdminEmail:    getValue("ADMIN_EMAIL", "app", "admin_email", ""),
			ContactEmail:  getValue("CONTACT_EMAIL", "app", "contact_email", ""),
			AdminPassword: getValue("ADMIN_PASSWORD", "app", "admin_password", ""),
			StaticDir:     getValue("STATIC_DIR", "app", "static_dir", ""),
		},
		Upload: UploadConfig{
			Dir:   getValue("UPLOAD_DIR", "upload", "dir", "uploads"),
			MaxMB: getValueInt("MAX_UPLOAD_MB", "upload", "max_mb", 10),
		},
		Migrate:  getValue("MIGRATE", "app", "migrate", "0") == "1",
		HTTPAddr: getValue("HTTP_ADDR", "http", "addr", ":8080"),
	}

	// Validate required fields
	if cfg.MySQL.DSN == "" {
		return nil, fmt.Errorf("MYSQL_DSN is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// MaxUploadBytes returns the upload size ceiling in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Upload.MaxMB) * 1024 * 1024
}
