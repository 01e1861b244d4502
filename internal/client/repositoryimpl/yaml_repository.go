package repositoryimpl

import (
	"context"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kmmanagement/agenda/internal/client"
	"github.com/kmmanagement/agenda/pkg/cerr"
	"github.com/kmmanagement/agenda/pkg/storage"
)

const clientsPrefix = "clients"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return storage.DocumentPath(clientsPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, c *client.Client) error {
	exists, err := r.storage.Exists(ctx, path(c.ID))
	if err != nil {
		return cerr.WrapStorageError(cerr.OpRead, "client", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "client already exists", nil)
	}
	return r.write(ctx, c)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*client.Client, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageError(cerr.OpRead, "client", err)
	}
	var c client.Client
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, cerr.WrapStorageError(cerr.OpDecode, "client", err)
	}
	return &c, nil
}

// List orders clients by name, case-insensitively.
func (r *YAMLRepository) List(ctx context.Context, limit, offset int) ([]*client.Client, int, error) {
	docs, err := storage.ReadAll(ctx, r.storage, clientsPrefix)
	if err != nil {
		return nil, 0, cerr.WrapStorageError(cerr.OpRead, "clients", err)
	}

	all := make([]*client.Client, 0, len(docs))
	for _, data := range docs {
		var c client.Client
		if err := yaml.Unmarshal(data, &c); err != nil {
			continue
		}
		all = append(all, &c)
	}
	sort.SliceStable(all, func(i, j int) bool {
		a, b := strings.ToLower(all[i].Name), strings.ToLower(all[j].Name)
		if a != b {
			return a < b
		}
		return all[i].ID < all[j].ID
	})

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *YAMLRepository) Update(ctx context.Context, c *client.Client) error {
	exists, err := r.storage.Exists(ctx, path(c.ID))
	if err != nil {
		return cerr.WrapStorageError(cerr.OpRead, "client", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "client not found", nil)
	}
	return r.write(ctx, c)
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageError(cerr.OpDelete, "client", err)
	}
	return nil
}

func (r *YAMLRepository) write(ctx context.Context, c *client.Client) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return cerr.WrapStorageError(cerr.OpEncode, "client", err)
	}
	return cerr.WrapStorageError(cerr.OpWrite, "client", r.storage.Write(ctx, path(c.ID), data))
}
