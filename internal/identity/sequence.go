// Package identity allocates record identifiers. Constructors receive a
// Sequence instead of sharing hidden global counters, so concurrent
// construction and test isolation both work.
package identity

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Sequence hands out strictly increasing, never-repeating identifiers.
type Sequence interface {
	Next(ctx context.Context) (int64, error)
}

// Memory is an in-process allocator safe for concurrent use.
type Memory struct {
	last int64
}

// NewMemory returns an allocator whose first value is 1.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Next(ctx context.Context) (int64, error) {
	return atomic.AddInt64(&m.last, 1), nil
}

// Postgres draws identifiers from a named database sequence, one sequence
// per entity type.
type Postgres struct {
	db   *sql.DB
	name string
}

func NewPostgres(db *sql.DB, name string) *Postgres {
	return &Postgres{db: db, name: name}
}

func (p *Postgres) Next(ctx context.Context) (int64, error) {
	var id int64
	if err := p.db.QueryRowContext(ctx, "SELECT nextval($1)", p.name).Scan(&id); err != nil {
		return 0, errors.Wrapf(err, "next value of sequence %s", p.name)
	}
	return id, nil
}
