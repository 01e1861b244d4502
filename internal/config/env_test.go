package config

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_Defaults(t *testing.T) {
	t.Setenv("AGENDA_API_KEY", "secret")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "local", env.Env)
	assert.Equal(t, "8080", env.HTTPPort)
	assert.Equal(t, "local", env.StorageEnv.Type)
	assert.False(t, env.KafkaEnv.Enabled())
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173", "http://localhost:5174"}, env.CORSAllowedOrigins)
	assert.Equal(t, slog.LevelDebug, env.SlogLevel())
}

func TestLoadEnv_RequiresAPIKey(t *testing.T) {
	t.Setenv("AGENDA_API_KEY", "")
	require.NoError(t, os.Unsetenv("AGENDA_API_KEY"))
	_, err := LoadEnv()
	assert.Error(t, err)
}

func TestLoadEnv_PostgresNeedsURL(t *testing.T) {
	t.Setenv("AGENDA_API_KEY", "secret")
	t.Setenv("AGENDA_STORAGE_TYPE", "postgres")
	_, err := LoadEnv()
	assert.Error(t, err)

	t.Setenv("AGENDA_DATABASE_URL", "postgres://localhost/agenda")
	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/agenda", env.DatabaseURL)
}

func TestLoadEnv_Kafka(t *testing.T) {
	t.Setenv("AGENDA_API_KEY", "secret")
	t.Setenv("AGENDA_KAFKA_BROKERS", "k1:9092,k2:9092")
	env, err := LoadEnv()
	require.NoError(t, err)
	assert.True(t, env.KafkaEnv.Enabled())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, env.Brokers)
	assert.Equal(t, "agenda.events", env.Topic)
}

func TestScheduleEnv_Location(t *testing.T) {
	env := &ScheduleEnv{Timezone: "America/Sao_Paulo"}
	loc, err := env.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", loc.String())

	env.Timezone = "Mars/Olympus"
	_, err = env.Location()
	assert.Error(t, err)

	assert.Equal(t, slog.LevelWarn, (&BaseEnv{LogLevel: "warn"}).SlogLevel())
}
