package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	CORS     CORSConfig
	Log      LogConfig
	Reviews  ReviewsConfig
	Courses  CoursesConfig
	Jobs     JobsConfig
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

// CacheConfig toggles Redis-backed read caching.
type CacheConfig struct {
	Enabled       bool
	CourseTTL     time.Duration
	DepartmentTTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ReviewsConfig tunes submission throttling and read aggregation windows.
type ReviewsConfig struct {
	ThrottleEnabled bool
	ThrottleFile    string
	SubmitCooldown  time.Duration
	RecentWindow    time.Duration
	ExportLimit     int
}

// CoursesConfig bounds the popularity ranking.
type CoursesConfig struct {
	PopularLimit int
}

// JobsConfig sizes the background worker pool.
type JobsConfig struct {
	Workers    int
	MaxRetries int
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
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled:       v.GetBool("ENABLE_CACHE"),
		CourseTTL:     parseDuration(v.GetString("COURSE_CACHE_TTL"), 5*time.Minute),
		DepartmentTTL: parseDuration(v.GetString("DEPARTMENT_CACHE_TTL"), 10*time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	exportLimit := v.GetInt("REVIEW_EXPORT_LIMIT")
	if exportLimit <= 0 {
		exportLimit = 500
	}
	cfg.Reviews = ReviewsConfig{
		ThrottleEnabled: v.GetBool("ENABLE_SUBMIT_THROTTLE"),
		ThrottleFile:    v.GetString("THROTTLE_STORE_PATH"),
		SubmitCooldown:  parseDuration(v.GetString("REVIEW_SUBMIT_COOLDOWN"), 5*time.Minute),
		RecentWindow:    parseDuration(v.GetString("RECENT_REVIEW_WINDOW"), 7*24*time.Hour),
		ExportLimit:     exportLimit,
	}

	popular := v.GetInt("POPULAR_COURSE_LIMIT")
	if popular <= 0 {
		popular = 100
	}
	cfg.Courses = CoursesConfig{PopularLimit: popular}

	cfg.Jobs = JobsConfig{
		Workers:    v.GetInt("JOB_WORKERS"),
		MaxRetries: v.GetInt("JOB_MAX_RETRIES"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "teacher_reviews")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_CACHE", true)
	v.SetDefault("COURSE_CACHE_TTL", "5m")
	v.SetDefault("DEPARTMENT_CACHE_TTL", "10m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_SUBMIT_THROTTLE", true)
	v.SetDefault("THROTTLE_STORE_PATH", "")
	v.SetDefault("REVIEW_SUBMIT_COOLDOWN", "5m")
	v.SetDefault("RECENT_REVIEW_WINDOW", "168h")
	v.SetDefault("REVIEW_EXPORT_LIMIT", 500)
	v.SetDefault("POPULAR_COURSE_LIMIT", 100)

	v.SetDefault("JOB_WORKERS", 2)
	v.SetDefault("JOB_MAX_RETRIES", 3)
}

// isMissingFile reports a missing .env. SetConfigFile bypasses the search path, so viper
// surfaces the raw fs error rather than ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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
