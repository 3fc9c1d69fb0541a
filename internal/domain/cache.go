package domain

import (
	"context"
	"time"
)

// OrderBookSegment is the cached read-model for one (project, option) market
// segment: the active order ids and their prices, in the engine's iteration
// order at the time the segment was materialized.
type OrderBookSegment struct {
	ProjectID   uint64    `json:"project_id"`
	OptionIndex int       `json:"option_index"`
	OrderIDs    []uint64  `json:"order_ids"`
	Prices      []uint64  `json:"prices"`
	Timestamp   time.Time `json:"timestamp"`
}

// OrderBookCache caches per-segment order-book reads. Segments are
// invalidated by the service layer whenever a commit touches them.
type OrderBookCache interface {
	SetSegment(ctx context.Context, seg OrderBookSegment) error
	GetSegment(ctx context.Context, projectID uint64, optionIndex int) (OrderBookSegment, error)
	InvalidateSegment(ctx context.Context, projectID uint64, optionIndex int) error
}

// RateLimiter provides distributed rate limiting for mutating API calls.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// StreamMessage is a single entry read back from a durable stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus carries committed events to out-of-process consumers: pub/sub
// for the WebSocket hub, durable streams for indexers that need catch-up.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}
