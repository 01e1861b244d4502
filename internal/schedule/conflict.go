// Package schedule decides whether a timestamp is already booked.
package schedule

import (
	"context"
	"time"

	"github.com/kmmanagement/agenda/internal/task"
)

// SlotStore is the part of task.Repository the checker reads.
type SlotStore interface {
	ExistsAt(ctx context.Context, at time.Time) (bool, error)
	ExistsAtExcluding(ctx context.Context, at time.Time, id string) (bool, error)
}

// Checker answers "is this minute taken" before a write. Stores enforce the
// same rule on their own, so a race between check and write still fails
// with a slot conflict.
type Checker struct {
	store SlotStore
}

func NewChecker(store SlotStore) *Checker {
	return &Checker{store: store}
}

// HasConflict reports whether some task is scheduled exactly at. A nil
// timestamp never conflicts and does not touch the store.
func (c *Checker) HasConflict(ctx context.Context, at *time.Time) (bool, error) {
	if at == nil {
		return false, nil
	}
	return c.store.ExistsAt(ctx, *at)
}

// HasConflictExcluding is HasConflict ignoring the task selfID, for updates
// that keep their own slot.
func (c *Checker) HasConflictExcluding(ctx context.Context, at *time.Time, selfID string) (bool, error) {
	if at == nil {
		return false, nil
	}
	return c.store.ExistsAtExcluding(ctx, *at, selfID)
}

// EnsureFree returns a slot conflict error when at is taken by a task other
// than selfID. An empty selfID checks against every task.
func (c *Checker) EnsureFree(ctx context.Context, at *time.Time, selfID string) error {
	var (
		taken bool
		err   error
	)
	if selfID == "" {
		taken, err = c.HasConflict(ctx, at)
	} else {
		taken, err = c.HasConflictExcluding(ctx, at, selfID)
	}
	if err != nil {
		return err
	}
	if taken {
		return task.NewSlotConflictError(*at)
	}
	return nil
}
