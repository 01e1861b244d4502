package client

import "context"

type Repository interface {
	Create(ctx context.Context, c *Client) error
	Get(ctx context.Context, id string) (*Client, error)
	List(ctx context.Context, limit, offset int) ([]*Client, int, error)
	Update(ctx context.Context, c *Client) error
	Delete(ctx context.Context, id string) error
}

// TaskCounter reports how many tasks still reference a client.
type TaskCounter interface {
	CountByClient(ctx context.Context, clientID string) (int, error)
}
