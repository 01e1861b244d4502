package repositoryimpl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kmmanagement/agenda/internal/pgstore"
	"github.com/kmmanagement/agenda/internal/task"
	"github.com/kmmanagement/agenda/pkg/cerr"
)

const taskColumns = `id, title, description, status, COALESCE(client_id, ''), client_type, scheduled_at,
	amount_paid::text, unit_price::text, total_amount::text, people_count,
	created_by, created_at, updated_at`

// PostgresRepository relies on the tasks_scheduled_at_key index to reject
// double bookings that slip past the service's pre-check.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, t *task.Task) error {
	const q = `
		INSERT INTO tasks (id, title, description, status, client_id, client_type, scheduled_at,
			amount_paid, unit_price, total_amount, people_count, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7,
			$8::numeric, $9::numeric, $10::numeric, $11, $12, $13, $14)`

	_, err := r.pool.Exec(ctx, q,
		t.ID, t.Title, t.Description, string(t.Status), t.ClientID, string(t.ClientType), t.ScheduledAt,
		pgstore.DecimalArg(t.AmountPaid), pgstore.DecimalArg(t.UnitPrice), pgstore.DecimalArg(t.TotalAmount), t.PeopleCount,
		t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return r.writeError(t, err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*task.Task, error) {
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	t, err := scanTask(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cerr.NewError(cerr.NotFound, "task not found", err)
		}
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to get task: %w", err))
	}
	return t, nil
}

func (r *PostgresRepository) List(ctx context.Context, clientID string, limit, offset int) ([]*task.Task, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM tasks WHERE $1 = '' OR client_id = $1`, clientID,
	).Scan(&total); err != nil {
		return nil, 0, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to count tasks: %w", err))
	}

	q := `SELECT ` + taskColumns + ` FROM tasks
		WHERE $1 = '' OR client_id = $1
		ORDER BY scheduled_at ASC NULLS LAST, id ASC
		LIMIT NULLIF($2, 0) OFFSET $3`
	rows, err := r.pool.Query(ctx, q, clientID, limit, offset)
	if err != nil {
		return nil, 0, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to list tasks: %w", err))
	}
	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *PostgresRepository) Update(ctx context.Context, t *task.Task) error {
	const q = `
		UPDATE tasks SET title = $2, description = $3, status = $4, client_id = NULLIF($5, ''),
			client_type = $6, scheduled_at = $7, amount_paid = $8::numeric, unit_price = $9::numeric,
			total_amount = $10::numeric, people_count = $11, updated_at = $12
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, q,
		t.ID, t.Title, t.Description, string(t.Status), t.ClientID, string(t.ClientType), t.ScheduledAt,
		pgstore.DecimalArg(t.AmountPaid), pgstore.DecimalArg(t.UnitPrice), pgstore.DecimalArg(t.TotalAmount), t.PeopleCount,
		t.UpdatedAt,
	)
	if err != nil {
		return r.writeError(t, err)
	}
	if tag.RowsAffected() == 0 {
		return cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to delete task: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return nil
}

func (r *PostgresRepository) FindInTimeRange(ctx context.Context, start, end time.Time) ([]*task.Task, error) {
	q := `SELECT ` + taskColumns + ` FROM tasks
		WHERE scheduled_at BETWEEN $1 AND $2
		ORDER BY scheduled_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, q, start, end)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to query tasks in range: %w", err))
	}
	return collectTasks(rows)
}

func (r *PostgresRepository) ExistsAt(ctx context.Context, at time.Time) (bool, error) {
	return r.ExistsAtExcluding(ctx, at, "")
}

func (r *PostgresRepository) ExistsAtExcluding(ctx context.Context, at time.Time, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE scheduled_at = $1 AND id <> $2)`, at, id,
	).Scan(&exists)
	if err != nil {
		return false, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to check slot: %w", err))
	}
	return exists, nil
}

func (r *PostgresRepository) CountByClient(ctx context.Context, clientID string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM tasks WHERE client_id = $1`, clientID).Scan(&n); err != nil {
		return 0, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to count client tasks: %w", err))
	}
	return n, nil
}

func (r *PostgresRepository) writeError(t *task.Task, err error) error {
	switch {
	case pgstore.IsUniqueViolation(err, pgstore.SlotIndex) && t.ScheduledAt != nil:
		return task.NewSlotConflictError(*t.ScheduledAt)
	case pgstore.IsUniqueViolation(err, ""):
		return cerr.NewError(cerr.AlreadyExists, "task already exists", err)
	case pgstore.IsForeignKeyViolation(err):
		return cerr.NewError(cerr.InvalidArgument, "client not found", err)
	}
	return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to write task: %w", err))
}

func collectTasks(rows pgx.Rows) ([]*task.Task, error) {
	defer rows.Close()
	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to scan task: %w", err))
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to read tasks: %w", err))
	}
	return tasks, nil
}

func scanTask(row pgx.Row) (*task.Task, error) {
	var (
		t                        task.Task
		status, clientType       string
		amountPaid, unit, totalS *string
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &status, &t.ClientID, &clientType, &t.ScheduledAt,
		&amountPaid, &unit, &totalS, &t.PeopleCount,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = task.Status(status)
	t.ClientType = task.ClientType(clientType)
	if t.AmountPaid, err = pgstore.ScanDecimal(amountPaid); err != nil {
		return nil, err
	}
	if t.UnitPrice, err = pgstore.ScanDecimal(unit); err != nil {
		return nil, err
	}
	if t.TotalAmount, err = pgstore.ScanDecimal(totalS); err != nil {
		return nil, err
	}
	return &t, nil
}
