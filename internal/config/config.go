// File: internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageDriverPostgres  = "postgres"
	StorageDriverSQLite    = "sqlite"
	StorageDriverFirestore = "firestore"

	CacheDriverMemory    = "memory"
	CacheDriverRedis     = "redis"
	CacheDriverMemcached = "memcached"

	ImageDriverLocal      = "local"
	ImageDriverCloudinary = "cloudinary"
)

// SMTPTransport describes one outbound mail relay. Relays are tried in order.
type SMTPTransport struct {
	Name           string `json:"name"`
	Host           string `json:"host"`
	Port           int    `json:"port"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode            string        `mapstructure:"GIN_MODE"`
	ServerHost         string        `mapstructure:"SERVER_HOST"`
	ServerPort         string        `mapstructure:"SERVER_PORT"`
	ServerTimeout      time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`
	CORSAllowedOrigins []string      `mapstructure:"-"`

	// Storage
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	SQLitePath    string `mapstructure:"SQLITE_PATH"`

	// Database Configuration
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// JWT
	JWTSecretKey          string        `mapstructure:"JWT_SECRET_KEY"`
	JWTAccessTokenExpiry  time.Duration `mapstructure:"JWT_ACCESS_TOKEN_EXPIRY_MINUTES"`
	JWTRefreshTokenExpiry time.Duration `mapstructure:"JWT_REFRESH_TOKEN_EXPIRY_DAYS"`
	ResetTokenExpiry      time.Duration `mapstructure:"RESET_TOKEN_EXPIRY_MINUTES"`

	// OTP
	OTPTTL           time.Duration `mapstructure:"OTP_TTL_MINUTES"`
	OTPMaxAttempts   int           `mapstructure:"OTP_MAX_ATTEMPTS"`
	OTPSweepSchedule string        `mapstructure:"OTP_SWEEP_SCHEDULE"`

	// Cache
	CacheDriver      string        `mapstructure:"CACHE_DRIVER"`
	RedisAddr        string        `mapstructure:"REDIS_ADDR"`
	RedisPassword    string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB          int           `mapstructure:"REDIS_DB"`
	MemcachedServers []string      `mapstructure:"-"`
	PropertyCacheTTL time.Duration `mapstructure:"PROPERTY_CACHE_TTL_SECONDS"`

	// Mail
	SMTPHost               string          `mapstructure:"SMTP_HOST"`
	SMTPPort               int             `mapstructure:"SMTP_PORT"`
	SMTPUsername           string          `mapstructure:"SMTP_USERNAME"`
	SMTPPassword           string          `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom               string          `mapstructure:"SMTP_FROM"`
	SMTPTimeout            time.Duration   `mapstructure:"SMTP_TIMEOUT_SECONDS"`
	SMTPTransports         []SMTPTransport `mapstructure:"-"`
	AdminNotificationEmail string          `mapstructure:"ADMIN_NOTIFICATION_EMAIL"`

	// Images
	ImageStorageDriver  string `mapstructure:"IMAGE_STORAGE_DRIVER"`
	ImageStoragePath    string `mapstructure:"IMAGE_STORAGE_PATH"`
	ImagePublicBaseURL  string `mapstructure:"IMAGE_PUBLIC_BASE_URL"`
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`
	CloudinaryFolder    string `mapstructure:"CLOUDINARY_FOLDER"`
	MaxUploadSizeMB     int    `mapstructure:"MAX_UPLOAD_SIZE_MB"`

	// Cron Jobs
	PropertyReindexSchedule string `mapstructure:"PROPERTY_REINDEX_SCHEDULE"`

	// Firebase Configuration
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`

	// Elasticsearch Configuration
	ElasticsearchURL   string `mapstructure:"ELASTICSEARCH_URL"`
	ElasticsearchIndex string `mapstructure:"ELASTICSEARCH_INDEX"`

	// Messaging
	AMQPURL   string `mapstructure:"AMQP_URL"`
	AMQPQueue string `mapstructure:"AMQP_QUEUE"`
}

// DSN builds the GORM postgres connection string from the DB_* settings.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode, c.DBTimezone)
}

// FirebaseEnabled reports whether a service account key is configured.
func (c *Config) FirebaseEnabled() bool {
	return strings.TrimSpace(c.FirebaseServiceAccountKeyPath) != ""
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	v.SetDefault("SQLITE_PATH", "realestate.db")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "realestate_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("JWT_SECRET_KEY", "")
	v.SetDefault("JWT_ACCESS_TOKEN_EXPIRY_MINUTES", 60)
	v.SetDefault("JWT_REFRESH_TOKEN_EXPIRY_DAYS", 7)
	v.SetDefault("RESET_TOKEN_EXPIRY_MINUTES", 15)

	v.SetDefault("OTP_TTL_MINUTES", 10)
	v.SetDefault("OTP_MAX_ATTEMPTS", 3)
	v.SetDefault("OTP_SWEEP_SCHEDULE", "@every 5m")

	v.SetDefault("CACHE_DRIVER", CacheDriverMemory)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MEMCACHED_SERVERS", "localhost:11211")
	v.SetDefault("PROPERTY_CACHE_TTL_SECONDS", 60)

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "no-reply@localhost")
	v.SetDefault("SMTP_TIMEOUT_SECONDS", 5)
	v.SetDefault("SMTP_TRANSPORTS", "")
	v.SetDefault("ADMIN_NOTIFICATION_EMAIL", "")

	v.SetDefault("IMAGE_STORAGE_DRIVER", ImageDriverLocal)
	v.SetDefault("IMAGE_STORAGE_PATH", "./uploads")
	v.SetDefault("IMAGE_PUBLIC_BASE_URL", "/uploads")
	v.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	v.SetDefault("CLOUDINARY_API_KEY", "")
	v.SetDefault("CLOUDINARY_API_SECRET", "")
	v.SetDefault("CLOUDINARY_FOLDER", "real-estate")
	v.SetDefault("MAX_UPLOAD_SIZE_MB", 5)

	v.SetDefault("PROPERTY_REINDEX_SCHEDULE", "") // empty disables the job

	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")

	v.SetDefault("ELASTICSEARCH_URL", "") // empty disables search indexing
	v.SetDefault("ELASTICSEARCH_INDEX", "properties")

	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_QUEUE", "property_events")

	v.AutomaticEnv()
	return v
}

// FromViper unmarshals and validates configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.JWTAccessTokenExpiry = time.Duration(v.GetInt("JWT_ACCESS_TOKEN_EXPIRY_MINUTES")) * time.Minute
	cfg.JWTRefreshTokenExpiry = time.Duration(v.GetInt("JWT_REFRESH_TOKEN_EXPIRY_DAYS")) * 24 * time.Hour
	cfg.ResetTokenExpiry = time.Duration(v.GetInt("RESET_TOKEN_EXPIRY_MINUTES")) * time.Minute
	cfg.OTPTTL = time.Duration(v.GetInt("OTP_TTL_MINUTES")) * time.Minute
	cfg.PropertyCacheTTL = time.Duration(v.GetInt("PROPERTY_CACHE_TTL_SECONDS")) * time.Second
	cfg.SMTPTimeout = time.Duration(v.GetInt("SMTP_TIMEOUT_SECONDS")) * time.Second

	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.MemcachedServers = splitList(v.GetString("MEMCACHED_SERVERS"))

	if raw := strings.TrimSpace(v.GetString("SMTP_TRANSPORTS")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg.SMTPTransports); err != nil {
			return nil, fmt.Errorf("error parsing SMTP_TRANSPORTS: %w", err)
		}
	} else if cfg.SMTPHost != "" {
		cfg.SMTPTransports = []SMTPTransport{{
			Name:     "primary",
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres, StorageDriverSQLite:
	case StorageDriverFirestore:
		if !c.FirebaseEnabled() {
			return fmt.Errorf("FATAL: FIREBASE_SERVICE_ACCOUNT_KEY_PATH is required when STORAGE_DRIVER=firestore")
		}
	default:
		return fmt.Errorf("FATAL: unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.FirebaseEnabled() {
		if _, err := os.Stat(c.FirebaseServiceAccountKeyPath); os.IsNotExist(err) {
			return fmt.Errorf("FATAL: Firebase service account key file specified in FIREBASE_SERVICE_ACCOUNT_KEY_PATH (%s) not found", c.FirebaseServiceAccountKeyPath)
		}
	}

	switch c.CacheDriver {
	case CacheDriverMemory, CacheDriverRedis:
	case CacheDriverMemcached:
		if len(c.MemcachedServers) == 0 {
			return fmt.Errorf("FATAL: MEMCACHED_SERVERS is required when CACHE_DRIVER=memcached")
		}
	default:
		return fmt.Errorf("FATAL: unsupported CACHE_DRIVER %q", c.CacheDriver)
	}

	switch c.ImageStorageDriver {
	case ImageDriverLocal:
	case ImageDriverCloudinary:
		if c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "" {
			return fmt.Errorf("FATAL: CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required when IMAGE_STORAGE_DRIVER=cloudinary")
		}
	default:
		return fmt.Errorf("FATAL: unsupported IMAGE_STORAGE_DRIVER %q", c.ImageStorageDriver)
	}

	if strings.TrimSpace(c.JWTSecretKey) == "" {
		if c.GinMode == "release" {
			return fmt.Errorf("FATAL: JWT_SECRET_KEY must be set in release mode")
		}
		c.JWTSecretKey = "development-only-secret"
	}

	for _, t := range c.SMTPTransports {
		if t.TimeoutSeconds > 8 {
			return fmt.Errorf("FATAL: SMTP transport %q timeout %ds exceeds the 8s limit", t.Name, t.TimeoutSeconds)
		}
	}
	if c.OTPMaxAttempts <= 0 {
		return fmt.Errorf("FATAL: OTP_MAX_ATTEMPTS must be positive")
	}
	return nil
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
