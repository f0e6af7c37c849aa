package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// BlobConfig holds object storage settings. Backend selects between the
// MinIO client ("minio") and the AWS SDK ("s3"); both speak the S3 protocol.
type BlobConfig struct {
	Backend    string
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	Region     string
	UseSSL     bool
	PathStyle  bool
	PresignTTL time.Duration
}

// RedisConfig configures the tag cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level         string
	Format        string
	File          string
	MaxSizeMB     int
	MaxBackups    int
	MaxAgeDays    int
	TimeZone      string
	DisableCaller bool
}

// AccessConfig configures the access-code gate. An empty CodeHash disables it.
type AccessConfig struct {
	CodeHash     string
	TokenSecret  string
	TokenTTL     time.Duration
	CookieName   string
	SecureCookie bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost      string
	Port         string
	BodyLimitMB  int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Database     DatabaseConfig
	Blob         BlobConfig
	Redis        RedisConfig
	Log          LogConfig
	Access       AccessConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:      getEnv("APP_HOST", "localhost:8080"),
		Port:         getEnv("PORT", "8080"),
		BodyLimitMB:  getEnvInt("MAX_UPLOAD_MB", 50),
		ReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", 60*time.Second),
		WriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Blob: BlobConfig{
			Backend:    getEnv("BLOB_BACKEND", "minio"),
			Endpoint:   getEnv("BLOB_ENDPOINT", getEnv("MINIO_ENDPOINT", "")),
			AccessKey:  getEnv("BLOB_ACCESS_KEY", getEnv("MINIO_ACCESS_KEY", "")),
			SecretKey:  getEnv("BLOB_SECRET_KEY", getEnv("MINIO_SECRET_KEY", "")),
			Bucket:     getEnv("BLOB_BUCKET", getEnv("MINIO_BUCKET", "")),
			Region:     getEnv("BLOB_REGION", "us-east-1"),
			UseSSL:     getEnvBool("BLOB_USE_SSL", getEnvBool("MINIO_USE_SSL", false)),
			PathStyle:  getEnvBool("BLOB_PATH_STYLE", true),
			PresignTTL: getEnvDuration("BLOB_PRESIGN_TTL", 15*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("TAG_CACHE_TTL", 5*time.Minute),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
			TimeZone:   getEnv("TZ", "UTC"),
		},
		Access: AccessConfig{
			CodeHash:     getEnv("ACCESS_CODE_HASH", ""),
			TokenSecret:  getEnv("ACCESS_TOKEN_SECRET", ""),
			TokenTTL:     getEnvDuration("ACCESS_TOKEN_TTL", 12*time.Hour),
			CookieName:   getEnv("ACCESS_COOKIE_NAME", "access_token"),
			SecureCookie: getEnvBool("ACCESS_COOKIE_SECURE", false),
		},
	}
}

// Location resolves the configured log time zone, falling back to UTC.
func (c LogConfig) Location() *time.Location {
	if c.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
