package events

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const rosterKeyPrefix = "grupetto:roster:"

// RosterKey builds the cache key holding the confirmed entry count for an
// event. The background roster refresh writes these keys; RosterCache reads
// them.
func RosterKey(eventID string) string {
	return rosterKeyPrefix + eventID
}

// RosterCache serves confirmed entry counts from Redis so the detail read
// path does not count registration rows inline.
type RosterCache struct {
	client *redis.Client
}

// NewRosterCache constructs a cache reader.
func NewRosterCache(client *redis.Client) *RosterCache {
	return &RosterCache{client: client}
}

// Count returns the cached confirmed entry count for eventID. The boolean is
// false on a cache miss; callers fall back to counting rows in storage.
func (c *RosterCache) Count(ctx context.Context, eventID uuid.UUID) (int, bool, error) {
	val, err := c.client.Get(ctx, RosterKey(eventID.String())).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		// An unparseable entry counts as a miss; the next refresh rewrites it.
		return 0, false, nil
	}
	return count, true, nil
}
