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

// Week-start anchors accepted by the planner.
const (
	WeekStartSaturday = "saturday"
	WeekStartSunday   = "sunday"
)

// Conflict resolution policies accepted by the planner.
const (
	ConflictReschedule = "reschedule"
	ConflictSkip       = "skip"
	ConflictError      = "error"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Planner  PlannerConfig
	Exports  ExportsConfig
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

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PlannerConfig tunes the maintenance-visit planning algorithm.
// MinDaysBetweenVisits, IncludeExistingVisits and BatchSize are
// accepted but not consulted by the current pipeline; they are
// reserved knobs kept for compatibility with existing deployment
// manifests. Existing visits are always counted for conflict
// detection.
type PlannerConfig struct {
	MaxVisitsPerDay       int
	PreferredWeekStart    string
	MinDaysBetweenVisits  int
	IncludeExistingVisits bool
	ConflictResolution    string
	BatchSize             int
	CountPlannedInRun     bool
	CacheTTL              time.Duration
}

// ExportsConfig governs schedule export rendering.
type ExportsConfig struct {
	MaxRows int
}

// JobsConfig configures the asynchronous planning queue.
type JobsConfig struct {
	Workers    int
	BufferSize int
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
		// With an explicit config file viper surfaces a plain
		// *fs.PathError when .env is absent, not its own
		// ConfigFileNotFoundError. A missing .env is fine, the
		// defaults and the environment carry the config.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
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
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Planner = PlannerConfig{
		MaxVisitsPerDay:       v.GetInt("PLANNER_MAX_VISITS_PER_DAY"),
		PreferredWeekStart:    normalizeWeekStart(v.GetString("PLANNER_WEEK_START")),
		MinDaysBetweenVisits:  v.GetInt("PLANNER_MIN_DAYS_BETWEEN_VISITS"),
		IncludeExistingVisits: v.GetBool("PLANNER_INCLUDE_EXISTING_VISITS"),
		ConflictResolution:    normalizeConflictResolution(v.GetString("PLANNER_CONFLICT_RESOLUTION")),
		BatchSize:             v.GetInt("PLANNER_BATCH_SIZE"),
		CountPlannedInRun:     v.GetBool("PLANNER_COUNT_PLANNED_IN_RUN"),
		CacheTTL:              parseDuration(v.GetString("PLANNER_CACHE_TTL"), 30*time.Minute),
	}

	cfg.Exports = ExportsConfig{
		MaxRows: v.GetInt("EXPORTS_MAX_ROWS"),
	}

	cfg.Jobs = JobsConfig{
		Workers:    v.GetInt("JOBS_WORKERS"),
		BufferSize: v.GetInt("JOBS_BUFFER_SIZE"),
		MaxRetries: v.GetInt("JOBS_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("JOBS_RETRY_DELAY"), time.Second),
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
	v.SetDefault("DB_NAME", "fire_maintenance")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PLANNER_MAX_VISITS_PER_DAY", 5)
	v.SetDefault("PLANNER_WEEK_START", WeekStartSaturday)
	v.SetDefault("PLANNER_MIN_DAYS_BETWEEN_VISITS", 0)
	v.SetDefault("PLANNER_INCLUDE_EXISTING_VISITS", true)
	v.SetDefault("PLANNER_CONFLICT_RESOLUTION", ConflictReschedule)
	v.SetDefault("PLANNER_BATCH_SIZE", 0)
	v.SetDefault("PLANNER_COUNT_PLANNED_IN_RUN", false)
	v.SetDefault("PLANNER_CACHE_TTL", "30m")

	v.SetDefault("EXPORTS_MAX_ROWS", 5000)

	v.SetDefault("JOBS_WORKERS", 1)
	v.SetDefault("JOBS_BUFFER_SIZE", 8)
	v.SetDefault("JOBS_MAX_RETRIES", 3)
	v.SetDefault("JOBS_RETRY_DELAY", "1s")
}

func normalizeWeekStart(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case WeekStartSunday:
		return WeekStartSunday
	default:
		return WeekStartSaturday
	}
}

func normalizeConflictResolution(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ConflictSkip:
		return ConflictSkip
	case ConflictError:
		return ConflictError
	default:
		return ConflictReschedule
	}
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
