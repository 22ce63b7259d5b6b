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
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Solver   SolverConfig
	Problem  ProblemConfig
	Export   ExportConfig
}

type DatabaseConfig struct {
	Enabled      bool
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
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SolverConfig governs local search behaviour and job lifecycle.
type SolverConfig struct {
	Workers         int
	MoveLimit       int
	InitialTemp     float64
	CoolingRate     float64
	RandomSeed      int64
	JobTTL          time.Duration
	TerminationWait time.Duration
}

// ProblemConfig supplies defaults used by the problem builder when the caller
// leaves employee count or horizon unset.
type ProblemConfig struct {
	EmployeeCount  int
	DaysInSchedule int
	RequiredSkills []string
	OptionalSkills []string
}

// ExportConfig controls on-disk archiving of rendered exports. An empty Dir
// disables archiving and the signed download links that depend on it.
type ExportConfig struct {
	Dir     string
	LinkTTL time.Duration
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
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Enabled:      v.GetBool("DB_ENABLED"),
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
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Solver = SolverConfig{
		Workers:         v.GetInt("SOLVER_WORKERS"),
		MoveLimit:       v.GetInt("SOLVER_MOVE_LIMIT"),
		InitialTemp:     v.GetFloat64("SOLVER_INITIAL_TEMP"),
		CoolingRate:     v.GetFloat64("SOLVER_COOLING_RATE"),
		RandomSeed:      v.GetInt64("SOLVER_RANDOM_SEED"),
		JobTTL:          parseDuration(v.GetString("SOLVER_JOB_TTL"), 2*time.Hour),
		TerminationWait: parseDuration(v.GetString("SOLVER_TERMINATION_WAIT"), 5*time.Second),
	}

	cfg.Problem = ProblemConfig{
		EmployeeCount:  v.GetInt("PROBLEM_EMPLOYEE_COUNT"),
		DaysInSchedule: v.GetInt("PROBLEM_DAYS_IN_SCHEDULE"),
		RequiredSkills: splitAndTrim(v.GetString("PROBLEM_REQUIRED_SKILLS")),
		OptionalSkills: splitAndTrim(v.GetString("PROBLEM_OPTIONAL_SKILLS")),
	}

	cfg.Export = ExportConfig{
		Dir:     v.GetString("EXPORT_DIR"),
		LinkTTL: parseDuration(v.GetString("EXPORT_LINK_TTL"), 24*time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "yuga_planner")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SOLVER_WORKERS", 4)
	v.SetDefault("SOLVER_MOVE_LIMIT", 200000)
	v.SetDefault("SOLVER_INITIAL_TEMP", 2.0)
	v.SetDefault("SOLVER_COOLING_RATE", 0.9995)
	v.SetDefault("SOLVER_RANDOM_SEED", 37)
	v.SetDefault("SOLVER_JOB_TTL", "2h")
	v.SetDefault("SOLVER_TERMINATION_WAIT", "5s")

	v.SetDefault("EXPORT_DIR", "")
	v.SetDefault("EXPORT_LINK_TTL", "24h")

	v.SetDefault("PROBLEM_EMPLOYEE_COUNT", 5)
	v.SetDefault("PROBLEM_DAYS_IN_SCHEDULE", 30)
	v.SetDefault("PROBLEM_REQUIRED_SKILLS", "Full-stack Development,DevOps,Technical Writing")
	v.SetDefault("PROBLEM_OPTIONAL_SKILLS", "UI/UX Design,Data Engineering,Project Management,QA Testing")
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
