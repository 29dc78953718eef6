package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Clock draws block heights from a database sequence, so every node sharing
// the database observes one monotonically increasing clock.
type Clock struct {
	pool *pgxpool.Pool
}

func NewClock(pool *pgxpool.Pool) *Clock {
	return &Clock{pool: pool}
}

func (c *Clock) Height(ctx context.Context) (uint64, error) {
	var h int64
	if err := c.pool.QueryRow(ctx, `SELECT nextval('block_height_seq')`).Scan(&h); err != nil {
		return 0, err
	}
	return uint64(h), nil
}
