package repositoryimpl

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kmmanagement/agenda/internal/task"
	"github.com/kmmanagement/agenda/pkg/cerr"
	"github.com/kmmanagement/agenda/pkg/storage"
)

const tasksPrefix = "tasks"

// YAMLRepository stores one YAML document per task. Writes are serialized
// so that the slot check and the write it guards cannot interleave with
// another writer in this process.
type YAMLRepository struct {
	storage storage.Storage
	writeMu sync.Mutex
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return storage.DocumentPath(tasksPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, t *task.Task) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	exists, err := r.storage.Exists(ctx, path(t.ID))
	if err != nil {
		return cerr.WrapStorageError(cerr.OpRead, "task", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "task already exists", nil)
	}
	if err := r.ensureSlotFree(ctx, t); err != nil {
		return err
	}
	return r.write(ctx, t)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*task.Task, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageError(cerr.OpRead, "task", err)
	}
	var t task.Task
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, cerr.WrapStorageError(cerr.OpDecode, "task", err)
	}
	return &t, nil
}

func (r *YAMLRepository) List(ctx context.Context, clientID string, limit, offset int) ([]*task.Task, int, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	if clientID != "" {
		all = slices.DeleteFunc(all, func(t *task.Task) bool { return t.ClientID != clientID })
	}
	slices.SortStableFunc(all, compareSchedule)

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

func (r *YAMLRepository) Update(ctx context.Context, t *task.Task) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	exists, err := r.storage.Exists(ctx, path(t.ID))
	if err != nil {
		return cerr.WrapStorageError(cerr.OpRead, "task", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	if err := r.ensureSlotFree(ctx, t); err != nil {
		return err
	}
	return r.write(ctx, t)
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageError(cerr.OpDelete, "task", err)
	}
	return nil
}

func (r *YAMLRepository) FindInTimeRange(ctx context.Context, start, end time.Time) ([]*task.Task, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	found := slices.DeleteFunc(all, func(t *task.Task) bool { return !t.ScheduledIn(start, end) })
	slices.SortStableFunc(found, compareSchedule)
	return found, nil
}

func (r *YAMLRepository) ExistsAt(ctx context.Context, at time.Time) (bool, error) {
	return r.ExistsAtExcluding(ctx, at, "")
}

func (r *YAMLRepository) ExistsAtExcluding(ctx context.Context, at time.Time, id string) (bool, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(all, func(t *task.Task) bool {
		return t.ID != id && t.OccupiesSlot(at)
	}), nil
}

func (r *YAMLRepository) CountByClient(ctx context.Context, clientID string) (int, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, t := range all {
		if t.ClientID == clientID {
			n++
		}
	}
	return n, nil
}

// ensureSlotFree must be called with writeMu held.
func (r *YAMLRepository) ensureSlotFree(ctx context.Context, t *task.Task) error {
	if t.ScheduledAt == nil {
		return nil
	}
	taken, err := r.ExistsAtExcluding(ctx, *t.ScheduledAt, t.ID)
	if err != nil {
		return err
	}
	if taken {
		return task.NewSlotConflictError(*t.ScheduledAt)
	}
	return nil
}

func (r *YAMLRepository) write(ctx context.Context, t *task.Task) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return cerr.WrapStorageError(cerr.OpEncode, "task", err)
	}
	return cerr.WrapStorageError(cerr.OpWrite, "task", r.storage.Write(ctx, path(t.ID), data))
}

// loadAll skips documents that fail to decode.
func (r *YAMLRepository) loadAll(ctx context.Context) ([]*task.Task, error) {
	docs, err := storage.ReadAll(ctx, r.storage, tasksPrefix)
	if err != nil {
		return nil, cerr.WrapStorageError(cerr.OpRead, "tasks", err)
	}
	all := make([]*task.Task, 0, len(docs))
	for _, data := range docs {
		var t task.Task
		if err := yaml.Unmarshal(data, &t); err != nil {
			slog.WarnContext(ctx, "skipping undecodable task document", "error", err)
			continue
		}
		all = append(all, &t)
	}
	return all, nil
}

// compareSchedule orders by scheduled time with unscheduled tasks last.
func compareSchedule(a, b *task.Task) int {
	switch {
	case a.ScheduledAt == nil && b.ScheduledAt == nil:
		return cmp.Compare(a.ID, b.ID)
	case a.ScheduledAt == nil:
		return 1
	case b.ScheduledAt == nil:
		return -1
	}
	if c := a.ScheduledAt.Compare(*b.ScheduledAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
