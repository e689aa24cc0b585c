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

// Identity provider modes.
const (
	IdentityModeHosted = "hosted"
	IdentityModeLocal  = "local"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Identity  IdentityConfig
	Mutations MutationsConfig
	Cache     CacheConfig
	Cleanup   CleanupConfig
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
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig verifies HS256 bearer tokens. In local mode the API issues them itself. In hosted mode
// the provider must mint them through a session token template signed with JWT_SECRET (HS256)
// whose claims are {"user_id": "{{user.id}}", "role": "{{user.public_metadata.role}}",
// "username": "{{user.username}}"}; tokens without a known role are rejected.
type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// IdentityConfig selects and configures the identity provider paired with person records.
type IdentityConfig struct {
	Mode      string
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// MutationsConfig bounds the store and provider calls made by a single mutation.
type MutationsConfig struct {
	Timeout             time.Duration
	CompensationTimeout time.Duration
}

// CacheConfig governs the detail-read cache invalidated by mutations.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// CleanupConfig drives the out-of-band retry of failed identity deprovisioning.
type CleanupConfig struct {
	Enabled    bool
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
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
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{
		AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS")),
		MaxAge:         parseDuration(v.GetString("CORS_MAX_AGE"), 10*time.Minute),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	mode := strings.ToLower(strings.TrimSpace(v.GetString("IDENTITY_MODE")))
	if mode != IdentityModeHosted {
		mode = IdentityModeLocal
	}
	cfg.Identity = IdentityConfig{
		Mode:      mode,
		BaseURL:   strings.TrimRight(v.GetString("IDENTITY_BASE_URL"), "/"),
		SecretKey: v.GetString("IDENTITY_SECRET_KEY"),
		Timeout:   parseDuration(v.GetString("IDENTITY_TIMEOUT"), 5*time.Second),
	}

	cfg.Mutations = MutationsConfig{
		Timeout:             parseDuration(v.GetString("MUTATION_TIMEOUT"), 15*time.Second),
		CompensationTimeout: parseDuration(v.GetString("COMPENSATION_TIMEOUT"), 10*time.Second),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.Cleanup = CleanupConfig{
		Enabled:    v.GetBool("ENABLE_IDENTITY_CLEANUP"),
		Workers:    v.GetInt("IDENTITY_CLEANUP_WORKERS"),
		MaxRetries: v.GetInt("IDENTITY_CLEANUP_RETRIES"),
		RetryDelay: parseDuration(v.GetString("IDENTITY_CLEANUP_RETRY_DELAY"), 30*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "school_dashboard")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "school-dashboard")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("CORS_MAX_AGE", "10m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("IDENTITY_MODE", IdentityModeLocal)
	v.SetDefault("IDENTITY_BASE_URL", "https://api.clerk.com/v1")
	v.SetDefault("IDENTITY_SECRET_KEY", "")
	v.SetDefault("IDENTITY_TIMEOUT", "5s")

	v.SetDefault("MUTATION_TIMEOUT", "15s")
	v.SetDefault("COMPENSATION_TIMEOUT", "10s")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("ENABLE_IDENTITY_CLEANUP", false)
	v.SetDefault("IDENTITY_CLEANUP_WORKERS", 1)
	v.SetDefault("IDENTITY_CLEANUP_RETRIES", 5)
	v.SetDefault("IDENTITY_CLEANUP_RETRY_DELAY", "30s")
}

// viper reports a missing explicit config file as a path error rather than ConfigFileNotFoundError.
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
