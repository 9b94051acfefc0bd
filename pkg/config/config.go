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

type Config struct {
	Env  string
	Port int

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	CheckIn  CheckInConfig
	Poller   PollerConfig
	Courses  CoursesConfig
	Export   ExportConfig
	Verifier VerifierConfig
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

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CheckInConfig governs eligibility evaluation at the HTTP boundary.
type CheckInConfig struct {
	WindowMode string
}

// PollerConfig drives the periodic schedule check for tracked students.
type PollerConfig struct {
	Enabled     bool
	Interval    time.Duration
	TickTimeout time.Duration
	StudentIDs  []string
	WindowMode  string
	PromptTTL   time.Duration
}

// CoursesConfig toggles behaviour of the course settings endpoints.
type CoursesConfig struct {
	// UpdateMissingIsNotFound makes PUT /courses/{id} return 404 when the
	// course does not exist instead of the legacy 200-with-null response.
	UpdateMissingIsNotFound bool
}

// ExportConfig gates the attendance export endpoints.
type ExportConfig struct {
	Enabled bool
}

// VerifierConfig configures the stub identity verifier.
type VerifierConfig struct {
	AutoApprove bool
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

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

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.CheckIn = CheckInConfig{
		WindowMode: v.GetString("CHECKIN_WINDOW_MODE"),
	}

	cfg.Poller = PollerConfig{
		Enabled:     v.GetBool("ENABLE_POLLER"),
		Interval:    parseDuration(v.GetString("POLLER_INTERVAL"), time.Minute),
		TickTimeout: parseDuration(v.GetString("POLLER_TICK_TIMEOUT"), 30*time.Second),
		StudentIDs:  splitAndTrim(v.GetString("POLLER_STUDENT_IDS")),
		WindowMode:  v.GetString("POLLER_WINDOW_MODE"),
		PromptTTL:   parseDuration(v.GetString("POLLER_PROMPT_TTL"), time.Hour),
	}

	cfg.Courses = CoursesConfig{
		UpdateMissingIsNotFound: v.GetBool("COURSES_UPDATE_MISSING_NOT_FOUND"),
	}

	cfg.Export = ExportConfig{
		Enabled: v.GetBool("ENABLE_EXPORT"),
	}

	cfg.Verifier = VerifierConfig{
		AutoApprove: v.GetBool("VERIFIER_AUTO_APPROVE"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "attendr")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CHECKIN_WINDOW_MODE", "absolute")

	v.SetDefault("ENABLE_POLLER", false)
	v.SetDefault("POLLER_INTERVAL", "1m")
	v.SetDefault("POLLER_TICK_TIMEOUT", "30s")
	v.SetDefault("POLLER_STUDENT_IDS", "")
	v.SetDefault("POLLER_WINDOW_MODE", "weekly")
	v.SetDefault("POLLER_PROMPT_TTL", "1h")

	v.SetDefault("COURSES_UPDATE_MISSING_NOT_FOUND", false)
	v.SetDefault("ENABLE_EXPORT", true)
	v.SetDefault("VERIFIER_AUTO_APPROVE", true)
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
