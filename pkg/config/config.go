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

// Instructor availability scopes.
const (
	ScopeGlobal = "global"
	ScopeTerm   = "term"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Scheduler SchedulerConfig
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

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig tunes the placement engine, the availability resolver and the layered grid.
type SchedulerConfig struct {
	LookbackMax           int
	DefaultSite           string
	DefaultSectionType    string
	UnassignedInstructors []string
	CapacityWarnRatio     float64
	LoadWarnRatio         float64
	InstructorScope       string
	IndexResyncCron       string
	RulesFile             string
	GridCacheTTL          time.Duration
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
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
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

	lookback := v.GetInt("SCHEDULER_LOOKBACK_MAX")
	if lookback < 0 {
		lookback = 0
	}
	scope := strings.ToLower(strings.TrimSpace(v.GetString("SCHEDULER_INSTRUCTOR_SCOPE")))
	if scope != ScopeTerm {
		scope = ScopeGlobal
	}
	cfg.Scheduler = SchedulerConfig{
		LookbackMax:           lookback,
		DefaultSite:           v.GetString("SCHEDULER_DEFAULT_SITE"),
		DefaultSectionType:    v.GetString("SCHEDULER_DEFAULT_SECTION_TYPE"),
		UnassignedInstructors: splitAndTrim(v.GetString("SCHEDULER_UNASSIGNED_INSTRUCTORS")),
		CapacityWarnRatio:     positiveFloat(v.GetFloat64("SCHEDULER_CAPACITY_WARN_RATIO"), 1),
		LoadWarnRatio:         positiveFloat(v.GetFloat64("SCHEDULER_LOAD_WARN_RATIO"), 0.8),
		InstructorScope:       scope,
		IndexResyncCron:       strings.TrimSpace(v.GetString("SCHEDULER_INDEX_RESYNC_CRON")),
		RulesFile:             v.GetString("SCHEDULER_RULES_FILE"),
		GridCacheTTL:          parseDuration(v.GetString("SCHEDULER_GRID_CACHE_TTL"), 2*time.Minute),
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
	v.SetDefault("DB_NAME", "horario")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_LOOKBACK_MAX", 2)
	v.SetDefault("SCHEDULER_DEFAULT_SITE", "")
	v.SetDefault("SCHEDULER_DEFAULT_SECTION_TYPE", "Catedra")
	v.SetDefault("SCHEDULER_UNASSIGNED_INSTRUCTORS", "N/A,Varios")
	v.SetDefault("SCHEDULER_CAPACITY_WARN_RATIO", 1.0)
	v.SetDefault("SCHEDULER_LOAD_WARN_RATIO", 0.8)
	v.SetDefault("SCHEDULER_INSTRUCTOR_SCOPE", ScopeGlobal)
	v.SetDefault("SCHEDULER_INDEX_RESYNC_CRON", "@every 5m")
	v.SetDefault("SCHEDULER_RULES_FILE", "")
	v.SetDefault("SCHEDULER_GRID_CACHE_TTL", "2m")
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

func positiveFloat(value, fallback float64) float64 {
	if value <= 0 {
		return fallback
	}
	return value
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
