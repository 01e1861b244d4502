package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
	APIKey   string `envconfig:"API_KEY" required:"true"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".agenda/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"agenda/"`
	S3Region string `envconfig:"S3_REGION" default:"sa-east-1"`
	// Postgres settings (used when Type == "postgres")
	DatabaseURL string `envconfig:"DATABASE_URL"`
}

// KafkaEnv enables forwarding of domain events when Brokers is set.
type KafkaEnv struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"agenda.events"`
}

type ScheduleEnv struct {
	Timezone           string   `envconfig:"TIMEZONE" default:"Local"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173,http://localhost:5174"`
}

type Env struct {
	BaseEnv
	StorageEnv
	KafkaEnv
	ScheduleEnv
}

const namespace = "AGENDA"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	if env.StorageEnv.Type == "postgres" && env.StorageEnv.DatabaseURL == "" {
		return nil, fmt.Errorf("%s_DATABASE_URL is required when %s_STORAGE_TYPE=postgres", namespace, namespace)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

// Location resolves the zone in which scheduled times and reporting periods
// are interpreted.
func (e *ScheduleEnv) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", e.Timezone, err)
	}
	return loc, nil
}

func (e *KafkaEnv) Enabled() bool {
	return len(e.Brokers) > 0
}
