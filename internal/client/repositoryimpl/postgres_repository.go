package repositoryimpl

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kmmanagement/agenda/internal/client"
	"github.com/kmmanagement/agenda/internal/pgstore"
	"github.com/kmmanagement/agenda/pkg/cerr"
)

const clientColumns = `id, name, phone, address, email, notes, created_at, updated_at`

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, c *client.Client) error {
	const q = `
		INSERT INTO clients (id, name, phone, address, email, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, q, c.ID, c.Name, c.Phone, c.Address, c.Email, c.Notes, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if pgstore.IsUniqueViolation(err, "") {
			return cerr.NewError(cerr.AlreadyExists, "client already exists", err)
		}
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to insert client: %w", err))
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*client.Client, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	c, err := scanClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cerr.NewError(cerr.NotFound, "client not found", err)
		}
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to get client: %w", err))
	}
	return c, nil
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*client.Client, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM clients`).Scan(&total); err != nil {
		return nil, 0, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to count clients: %w", err))
	}

	rows, err := r.pool.Query(ctx, `SELECT `+clientColumns+` FROM clients
		ORDER BY lower(name) ASC, id ASC
		LIMIT NULLIF($1, 0) OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to list clients: %w", err))
	}
	defer rows.Close()

	var clients []*client.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to scan client: %w", err))
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to read clients: %w", err))
	}
	return clients, total, nil
}

func (r *PostgresRepository) Update(ctx context.Context, c *client.Client) error {
	const q = `
		UPDATE clients SET name = $2, phone = $3, address = $4, email = $5, notes = $6, updated_at = $7
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, q, c.ID, c.Name, c.Phone, c.Address, c.Email, c.Notes, c.UpdatedAt)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to update client: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return cerr.NewError(cerr.NotFound, "client not found", nil)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		if pgstore.IsForeignKeyViolation(err) {
			return cerr.NewError(cerr.FailedPrecondition, "client still has tasks", err)
		}
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to delete client: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return cerr.NewError(cerr.NotFound, "client not found", nil)
	}
	return nil
}

func scanClient(row pgx.Row) (*client.Client, error) {
	var c client.Client
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.Email, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
