package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore using PostgreSQL. A single
// row holds the latest snapshot; Save overwrites it in place.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a new SnapshotStore backed by the given pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Save persists the snapshot taken at seq, replacing any previous one.
func (s *SnapshotStore) Save(ctx context.Context, seq uint64, state []byte) error {
	const query = `
		INSERT INTO ledger_snapshots (singleton, seq, state, taken_at)
		VALUES (TRUE, $1, $2, NOW())
		ON CONFLICT (singleton) DO UPDATE
		SET seq = EXCLUDED.seq, state = EXCLUDED.state, taken_at = EXCLUDED.taken_at`
	if _, err := s.pool.Exec(ctx, query, int64(seq), state); err != nil {
		return fmt.Errorf("postgres: save snapshot seq=%d: %w", seq, err)
	}
	return nil
}

// Load returns the latest snapshot, or domain.ErrNotFound when none was ever
// saved.
func (s *SnapshotStore) Load(ctx context.Context) (uint64, []byte, error) {
	var (
		seq   int64
		state []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT seq, state FROM ledger_snapshots WHERE singleton`).Scan(&seq, &state)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil, domain.ErrNotFound
	}
	if err != nil {
		return 0, nil, fmt.Errorf("postgres: load snapshot: %w", err)
	}
	return uint64(seq), state, nil
}
