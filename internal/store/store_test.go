package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmmanagement/agenda/internal/config"
)

func TestOpen_Local(t *testing.T) {
	repos, err := Open(context.Background(), &config.StorageEnv{Type: TypeLocal, BaseDir: t.TempDir()})
	require.NoError(t, err)
	defer repos.Close()

	assert.NotNil(t, repos.Tasks)
	assert.NotNil(t, repos.Clients)

	n, err := repos.Tasks.CountByClient(context.Background(), "c1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpen_UnknownType(t *testing.T) {
	_, err := Open(context.Background(), &config.StorageEnv{Type: "mongo"})
	assert.ErrorContains(t, err, "mongo")
}
