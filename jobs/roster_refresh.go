package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/grupetto/grupetto/internal/events"
)

// RosterRefreshJob recomputes confirmed entry counts for published events
// and caches them in Redis; the event detail read path serves counts from
// this cache before falling back to counting rows.
type RosterRefreshJob struct {
	pool   *pgxpool.Pool
	cache  *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// NewRosterRefreshJob constructs the job.
func NewRosterRefreshJob(pool *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) *RosterRefreshJob {
	return &RosterRefreshJob{pool: pool, cache: cache, logger: logger, ttl: 2 * time.Hour}
}

// Handle processes TaskRosterRefresh tasks.
func (j *RosterRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload RosterRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	rows, err := j.pool.Query(ctx, `SELECT e.id, COUNT(r.id)
FROM events e
LEFT JOIN registrations r ON r.event_id = e.id AND r.status = 'approved'
WHERE e.is_published
GROUP BY e.id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	refreshed := 0
	for rows.Next() {
		var eventID string
		var count int64
		if err := rows.Scan(&eventID, &count); err != nil {
			return err
		}
		if err := j.cache.Set(ctx, events.RosterKey(eventID), strconv.FormatInt(count, 10), j.ttl).Err(); err != nil {
			return err
		}
		refreshed++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if j.logger != nil {
		j.logger.Info("roster refresh complete",
			slog.String("scope", payload.Scope),
			slog.Int("events", refreshed))
	}
	return nil
}
