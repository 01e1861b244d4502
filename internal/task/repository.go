package task

import (
	"context"
	"time"
)

// Repository persists tasks. Implementations must reject a Create or Update
// that would book a slot already held by another task with an error
// satisfying IsSlotConflict.
type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context, clientID string, limit, offset int) ([]*Task, int, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id string) error

	// FindInTimeRange returns tasks scheduled within [start, end].
	FindInTimeRange(ctx context.Context, start, end time.Time) ([]*Task, error)
	ExistsAt(ctx context.Context, at time.Time) (bool, error)
	ExistsAtExcluding(ctx context.Context, at time.Time, id string) (bool, error)
	CountByClient(ctx context.Context, clientID string) (int, error)
}
