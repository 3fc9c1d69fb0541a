package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// EventStore persists the append-only journal of committed events. The
// journal is the durable audit trail consumed by indexers; the engine itself
// never reads it back except during replay.
type EventStore interface {
	Append(ctx context.Context, ev Event) error
	ListAfter(ctx context.Context, seq uint64, limit int) ([]Event, error)
	ListBefore(ctx context.Context, before time.Time) ([]Event, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
	LastSeq(ctx context.Context) (uint64, error)
}

// SnapshotStore persists the latest engine snapshot for crash recovery. The
// snapshot payload is opaque to the store; seq is the commit sequence the
// snapshot was taken at.
type SnapshotStore interface {
	Save(ctx context.Context, seq uint64, state []byte) error
	Load(ctx context.Context) (seq uint64, state []byte, err error)
}
