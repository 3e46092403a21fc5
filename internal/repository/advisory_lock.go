package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AdvisoryLocker serializes work on a key with a transaction-scoped Postgres
// advisory lock. The lock is held until the surrounding transaction ends.
type AdvisoryLocker struct {
	pool *pgxpool.Pool
}

// NewAdvisoryLocker builds a locker.
func NewAdvisoryLocker(pool *pgxpool.Pool) *AdvisoryLocker {
	return &AdvisoryLocker{pool: pool}
}

// Lock blocks until the advisory lock on key is granted. ctx must carry a
// transaction opened by TxManager.
func (l *AdvisoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	if !InTx(ctx) {
		return nil, errors.New("advisory lock requires a transaction")
	}
	if _, err := conn(ctx, l.pool).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return nil, err
	}
	return func() {}, nil
}
