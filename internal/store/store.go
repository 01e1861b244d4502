// Package store picks the repository backend named by the storage config.
package store

import (
	"context"
	"fmt"

	"github.com/kmmanagement/agenda/internal/client"
	clientrepo "github.com/kmmanagement/agenda/internal/client/repositoryimpl"
	"github.com/kmmanagement/agenda/internal/config"
	"github.com/kmmanagement/agenda/internal/pgstore"
	"github.com/kmmanagement/agenda/internal/task"
	taskrepo "github.com/kmmanagement/agenda/internal/task/repositoryimpl"
	"github.com/kmmanagement/agenda/pkg/storage"
)

const (
	TypeLocal    = "local"
	TypeS3       = "s3"
	TypePostgres = "postgres"
)

// Repositories is the set of repositories sharing one backend. The task
// repository also answers client reference counts.
type Repositories struct {
	Tasks   task.Repository
	Clients client.Repository
	close   func()
}

func (r *Repositories) Close() {
	if r.close != nil {
		r.close()
	}
}

func Open(ctx context.Context, env *config.StorageEnv) (*Repositories, error) {
	switch env.Type {
	case TypePostgres:
		pool, err := pgstore.Open(ctx, env.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &Repositories{
			Tasks:   taskrepo.NewPostgresRepository(pool),
			Clients: clientrepo.NewPostgresRepository(pool),
			close:   pool.Close,
		}, nil
	case TypeS3:
		s, err := storage.NewS3Storage(ctx, env.S3Bucket, env.S3Prefix, env.S3Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 storage: %w", err)
		}
		return yamlRepositories(s), nil
	case TypeLocal, "":
		s, err := storage.NewLocalStorage(env.BaseDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create local storage: %w", err)
		}
		return yamlRepositories(s), nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", env.Type)
	}
}

func yamlRepositories(s storage.Storage) *Repositories {
	return &Repositories{
		Tasks:   taskrepo.NewYAMLRepository(s),
		Clients: clientrepo.NewYAMLRepository(s),
	}
}
