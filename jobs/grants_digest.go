package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GrantsDigestJob summarises the pending approval backlog for operators:
// role requests awaiting a super_admin and registrations awaiting an
// organizer, with the oldest item's age in each bucket.
type GrantsDigestJob struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewGrantsDigestJob constructs the job.
func NewGrantsDigestJob(pool *pgxpool.Pool, logger *slog.Logger) *GrantsDigestJob {
	return &GrantsDigestJob{pool: pool, logger: logger}
}

// Handle processes TaskGrantsDigest tasks.
func (j *GrantsDigestJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload GrantsDigestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	var pendingGrants int64
	var oldestGrant *time.Time
	err := j.pool.QueryRow(ctx, `SELECT COUNT(*), MIN(requested_at) FROM role_grants WHERE status='pending'`).
		Scan(&pendingGrants, &oldestGrant)
	if err != nil {
		return err
	}

	var pendingRegs int64
	var oldestReg *time.Time
	err = j.pool.QueryRow(ctx, `SELECT COUNT(*), MIN(created_at) FROM registrations WHERE status='pending'`).
		Scan(&pendingRegs, &oldestReg)
	if err != nil {
		return err
	}

	if j.logger != nil {
		attrs := []any{
			slog.Int64("pending_role_grants", pendingGrants),
			slog.Int64("pending_registrations", pendingRegs),
		}
		if oldestGrant != nil {
			attrs = append(attrs, slog.Duration("oldest_role_grant_age", time.Since(*oldestGrant)))
		}
		if oldestReg != nil {
			attrs = append(attrs, slog.Duration("oldest_registration_age", time.Since(*oldestReg)))
		}
		j.logger.Info("approval backlog digest", attrs...)
	}
	return nil
}
