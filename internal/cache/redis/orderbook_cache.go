package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// segmentTTL bounds staleness if an invalidation is ever lost.
const segmentTTL = 5 * time.Minute

// OrderBookCache implements domain.OrderBookCache using one JSON value per
// (project, option) market segment.
//
// Key schema:
//
//	book:{projectID}:{optionIndex} - JSON-encoded domain.OrderBookSegment
type OrderBookCache struct {
	rdb *redis.Client
}

// NewOrderBookCache creates an OrderBookCache backed by the given Client.
func NewOrderBookCache(c *Client) *OrderBookCache {
	return &OrderBookCache{rdb: c.Underlying()}
}

func segmentKey(projectID uint64, optionIndex int) string {
	return "book:" + strconv.FormatUint(projectID, 10) + ":" + strconv.Itoa(optionIndex)
}

// SetSegment stores the materialized segment, replacing any previous value.
func (oc *OrderBookCache) SetSegment(ctx context.Context, seg domain.OrderBookSegment) error {
	data, err := json.Marshal(seg)
	if err != nil {
		return fmt.Errorf("redis: marshal segment %d/%d: %w", seg.ProjectID, seg.OptionIndex, err)
	}
	key := segmentKey(seg.ProjectID, seg.OptionIndex)
	if err := oc.rdb.Set(ctx, key, data, segmentTTL).Err(); err != nil {
		return fmt.Errorf("redis: set segment %s: %w", key, err)
	}
	return nil
}

// GetSegment returns the cached segment, or domain.ErrNotFound on a miss.
func (oc *OrderBookCache) GetSegment(ctx context.Context, projectID uint64, optionIndex int) (domain.OrderBookSegment, error) {
	key := segmentKey(projectID, optionIndex)
	data, err := oc.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return domain.OrderBookSegment{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.OrderBookSegment{}, fmt.Errorf("redis: get segment %s: %w", key, err)
	}

	var seg domain.OrderBookSegment
	if err := json.Unmarshal(data, &seg); err != nil {
		return domain.OrderBookSegment{}, fmt.Errorf("redis: unmarshal segment %s: %w", key, err)
	}
	return seg, nil
}

// InvalidateSegment drops the cached segment so the next read rebuilds it
// from the engine.
func (oc *OrderBookCache) InvalidateSegment(ctx context.Context, projectID uint64, optionIndex int) error {
	key := segmentKey(projectID, optionIndex)
	if err := oc.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: invalidate segment %s: %w", key, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.OrderBookCache = (*OrderBookCache)(nil)
