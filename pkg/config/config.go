package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Storage       StorageConfig
	Imports       ImportsConfig
	Announcements AnnouncementsConfig
	Cache         CacheConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret       string
	Issuer       string
	Expiration   time.Duration
	CookieName   string
	CookieSecure bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig selects where uploaded files live.
type StorageConfig struct {
	Driver          string
	LocalDir        string
	PublicBaseURL   string
	MaxUploadBytes  int64
	AllowedMIMEs    []string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	S3              S3Config
}

type S3Config struct {
	Bucket       string
	Region       string
	Prefix       string
	Endpoint     string
	UsePathStyle bool
}

// ImportsConfig governs ledger workbook imports.
type ImportsConfig struct {
	MaxFileSizeBytes   int64
	OverwriteConfirmed bool
	WorkerConcurrency  int
	WorkerRetries      int
	QueueBuffer        int
}

// AnnouncementsConfig tunes the announcement board.
type AnnouncementsConfig struct {
	NormalizeHeaders bool
	DefaultPageSize  int
	MaxPageSize      int
}

// CacheConfig holds TTLs for read-through caches.
type CacheConfig struct {
	RoleTTL     time.Duration
	CategoryTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:       v.GetString("JWT_SECRET"),
		Issuer:       v.GetString("JWT_ISSUER"),
		Expiration:   parseDuration(v.GetString("JWT_EXPIRATION"), 7*24*time.Hour),
		CookieName:   v.GetString("JWT_COOKIE_NAME"),
		CookieSecure: v.GetBool("JWT_COOKIE_SECURE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxUpload := v.GetInt64("STORAGE_MAX_UPLOAD_SIZE")
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	cfg.Storage = StorageConfig{
		Driver:          strings.ToLower(v.GetString("STORAGE_DRIVER")),
		LocalDir:        v.GetString("STORAGE_LOCAL_DIR"),
		PublicBaseURL:   strings.TrimRight(v.GetString("STORAGE_PUBLIC_BASE_URL"), "/"),
		MaxUploadBytes:  maxUpload,
		AllowedMIMEs:    splitAndTrim(v.GetString("STORAGE_ALLOWED_MIME_TYPES")),
		SignedURLSecret: v.GetString("STORAGE_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("STORAGE_SIGNED_URL_TTL"), 30*time.Minute),
		S3: S3Config{
			Bucket:       v.GetString("S3_BUCKET"),
			Region:       v.GetString("S3_REGION"),
			Prefix:       strings.Trim(v.GetString("S3_PREFIX"), "/"),
			Endpoint:     v.GetString("S3_ENDPOINT"),
			UsePathStyle: v.GetBool("S3_USE_PATH_STYLE"),
		},
	}

	maxImport := v.GetInt64("IMPORT_MAX_FILE_SIZE")
	if maxImport <= 0 {
		maxImport = 5 * 1024 * 1024
	}
	cfg.Imports = ImportsConfig{
		MaxFileSizeBytes:   maxImport,
		OverwriteConfirmed: v.GetBool("IMPORT_OVERWRITE_CONFIRMED"),
		WorkerConcurrency:  v.GetInt("IMPORT_WORKER_CONCURRENCY"),
		WorkerRetries:      v.GetInt("IMPORT_WORKER_RETRIES"),
		QueueBuffer:        v.GetInt("IMPORT_QUEUE_BUFFER"),
	}

	cfg.Announcements = AnnouncementsConfig{
		NormalizeHeaders: v.GetBool("ANNOUNCEMENT_NORMALIZE_HEADERS"),
		DefaultPageSize:  v.GetInt("ANNOUNCEMENT_PAGE_SIZE"),
		MaxPageSize:      v.GetInt("ANNOUNCEMENT_MAX_PAGE_SIZE"),
	}

	cfg.Cache = CacheConfig{
		RoleTTL:     parseDuration(v.GetString("CACHE_ROLE_TTL"), 10*time.Minute),
		CategoryTTL: parseDuration(v.GetString("CACHE_CATEGORY_TTL"), 5*time.Minute),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "student_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "student-portal-api")
	v.SetDefault("JWT_EXPIRATION", "168h")
	v.SetDefault("JWT_COOKIE_NAME", "token")
	v.SetDefault("JWT_COOKIE_SECURE", false)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORAGE_DRIVER", StorageDriverLocal)
	v.SetDefault("STORAGE_LOCAL_DIR", "./uploads")
	v.SetDefault("STORAGE_PUBLIC_BASE_URL", "/uploads")
	v.SetDefault("STORAGE_MAX_UPLOAD_SIZE", 5*1024*1024)
	v.SetDefault("STORAGE_ALLOWED_MIME_TYPES", "image/png,image/jpeg,image/webp,application/pdf")
	v.SetDefault("STORAGE_SIGNED_URL_SECRET", "dev_storage_secret")
	v.SetDefault("STORAGE_SIGNED_URL_TTL", "30m")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_USE_PATH_STYLE", false)

	v.SetDefault("IMPORT_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("IMPORT_OVERWRITE_CONFIRMED", false)
	v.SetDefault("IMPORT_WORKER_CONCURRENCY", 1)
	v.SetDefault("IMPORT_WORKER_RETRIES", 0)
	v.SetDefault("IMPORT_QUEUE_BUFFER", 16)

	v.SetDefault("ANNOUNCEMENT_NORMALIZE_HEADERS", true)
	v.SetDefault("ANNOUNCEMENT_PAGE_SIZE", 50)
	v.SetDefault("ANNOUNCEMENT_MAX_PAGE_SIZE", 100)

	v.SetDefault("CACHE_ROLE_TTL", "10m")
	v.SetDefault("CACHE_CATEGORY_TTL", "5m")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
