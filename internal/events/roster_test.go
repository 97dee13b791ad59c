package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRosterFixture(t *testing.T) (*RosterCache, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRosterCache(client), client
}

func TestRosterCountReadsRefreshedKey(t *testing.T) {
	cache, client := newRosterFixture(t)
	eventID := uuid.New()

	// Same key and encoding the background refresh writes.
	require.NoError(t, client.Set(context.Background(), RosterKey(eventID.String()), "42", time.Hour).Err())

	count, ok, err := cache.Count(context.Background(), eventID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 42, count)
}

func TestRosterCountMiss(t *testing.T) {
	cache, _ := newRosterFixture(t)

	_, ok, err := cache.Count(context.Background(), uuid.New())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRosterCountTreatsGarbageAsMiss(t *testing.T) {
	cache, client := newRosterFixture(t)
	eventID := uuid.New()

	require.NoError(t, client.Set(context.Background(), RosterKey(eventID.String()), "not-a-number", time.Hour).Err())

	_, ok, err := cache.Count(context.Background(), eventID)
	require.NoError(t, err)
	require.False(t, ok)
}
