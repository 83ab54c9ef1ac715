package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL           string
	JWTSecretKey          string
	OrganizerPasswordHash string
	ServerPort            int
	CORSAllowedOrigins    []string

	RosterDir string

	Redis RedisConfig
	R2    R2Config

	Draw DrawConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// Enabled reports whether Redis is configured. Without it the service uses
// an in-process lock and no draw cache.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

func (r R2Config) Enabled() bool { return r.AccountID != "" }

// DrawConfig holds the budgets of the draw pipeline.
type DrawConfig struct {
	MaxAttempts           int
	ScheduleRestarts      int
	ScheduleMatchingTries int
	ScheduleMaxPasses     int
	PipelineRetries       int
	Timeout               time.Duration
	AllowDegradedSchedule bool
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		JWTSecretKey:          os.Getenv("JWT_SECRET_KEY"),
		OrganizerPasswordHash: os.Getenv("ORGANIZER_PASSWORD_HASH"),
		RosterDir:             os.Getenv("ROSTER_DIR"),
		CORSAllowedOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		R2: R2Config{
			AccountID:       os.Getenv("R2_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
			BucketName:      os.Getenv("R2_BUCKET_NAME"),
			PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}
	if cfg.OrganizerPasswordHash == "" {
		return nil, fmt.Errorf("ORGANIZER_PASSWORD_HASH environment variable is not set")
	}

	var err error
	if cfg.ServerPort, err = intEnv("SERVER_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}

	if cfg.Redis.DB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.Redis.CacheTTL, err = durationEnv("CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}

	if err := cfg.R2.validate(); err != nil {
		return nil, err
	}

	if cfg.Draw, err = LoadDraw(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDraw reads only the draw pipeline settings. The offline CLI uses it
// without the server variables.
func LoadDraw() (DrawConfig, error) {
	var (
		d   DrawConfig
		err error
	)
	positive := []struct {
		name string
		def  int
		dst  *int
	}{
		{"DRAW_MAX_ATTEMPTS", 100, &d.MaxAttempts},
		{"SCHEDULE_RESTARTS", 10, &d.ScheduleRestarts},
		{"SCHEDULE_MATCHING_ATTEMPTS", 100, &d.ScheduleMatchingTries},
		{"SCHEDULE_MAX_PASSES", 250000, &d.ScheduleMaxPasses},
		{"PIPELINE_RETRIES", 3, &d.PipelineRetries},
	}
	for _, p := range positive {
		if *p.dst, err = intEnv(p.name, p.def); err != nil {
			return d, err
		}
		if *p.dst <= 0 {
			return d, fmt.Errorf("%s must be positive, got %d", p.name, *p.dst)
		}
	}

	if d.Timeout, err = durationEnv("DRAW_TIMEOUT", 20*time.Second); err != nil {
		return d, err
	}
	if d.Timeout <= 0 {
		return d, fmt.Errorf("DRAW_TIMEOUT must be positive, got %s", d.Timeout)
	}

	if v := os.Getenv("ALLOW_DEGRADED_SCHEDULE"); v != "" {
		if d.AllowDegradedSchedule, err = strconv.ParseBool(v); err != nil {
			return d, fmt.Errorf("invalid ALLOW_DEGRADED_SCHEDULE environment variable: %w", err)
		}
	}
	return d, nil
}

// validate accepts either no R2 settings at all or all of them.
func (r R2Config) validate() error {
	set := 0
	for _, v := range []string{r.AccountID, r.AccessKeyID, r.SecretAccessKey, r.BucketName, r.PublicBaseURL} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 5 {
		return fmt.Errorf("R2 export is partially configured: set all R2_* variables or none")
	}
	return nil
}

func getEnv(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func intEnv(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return n, nil
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
