package repositoryimpl

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmmanagement/agenda/internal/pgstore"
	"github.com/kmmanagement/agenda/internal/task"
	"github.com/kmmanagement/agenda/pkg/cerr"
)

func TestPostgresRepository_WriteError(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	scheduled := &task.Task{ID: "t1", ScheduledAt: &at}

	tests := []struct {
		name         string
		task         *task.Task
		err          error
		code         cerr.Code
		slotConflict bool
	}{
		{
			name:         "slot index violation",
			task:         scheduled,
			err:          &pgconn.PgError{Code: "23505", ConstraintName: pgstore.SlotIndex},
			code:         cerr.AlreadyExists,
			slotConflict: true,
		},
		{
			name:         "wrapped slot index violation",
			task:         scheduled,
			err:          fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", ConstraintName: pgstore.SlotIndex}),
			code:         cerr.AlreadyExists,
			slotConflict: true,
		},
		{
			name: "primary key violation",
			task: scheduled,
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "tasks_pkey"},
			code: cerr.AlreadyExists,
		},
		{
			name: "unknown client",
			task: &task.Task{ID: "t2", ClientID: "ghost"},
			err:  &pgconn.PgError{Code: "23503", ConstraintName: "tasks_client_id_fkey"},
			code: cerr.InvalidArgument,
		},
		{
			name: "connection failure",
			task: scheduled,
			err:  errors.New("conn closed"),
			code: cerr.Internal,
		},
	}
	r := &PostgresRepository{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.writeError(tt.task, tt.err)

			var ce *cerr.Error
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.code, ce.Code)
			assert.Equal(t, tt.slotConflict, task.IsSlotConflict(err))
			if tt.slotConflict {
				assert.Equal(t, http.StatusConflict, ce.Code.HTTPCode())
			}
		})
	}
}
