package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRosterRefresh recomputes cached roster counts for published events.
	TaskRosterRefresh = "roster:refresh"
	// TaskGrantsDigest summarises the pending approval backlog.
	TaskGrantsDigest = "grants:digest"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// RosterRefreshPayload selects which events to refresh.
type RosterRefreshPayload struct {
	Scope string `json:"scope"`
}

// NewRosterRefreshTask constructs an Asynq task.
func NewRosterRefreshTask(scope string) (*asynq.Task, error) {
	data, err := json.Marshal(RosterRefreshPayload{Scope: scope})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRosterRefresh, data), nil
}

// GrantsDigestPayload configures the digest window.
type GrantsDigestPayload struct {
	WindowHours int `json:"window_hours"`
}

// NewGrantsDigestTask constructs an Asynq task.
func NewGrantsDigestTask(windowHours int) (*asynq.Task, error) {
	data, err := json.Marshal(GrantsDigestPayload{WindowHours: windowHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGrantsDigest, data), nil
}

// IdempotencyCleanupPayload configures the retention horizon.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewIdempotencyCleanupTask constructs an Asynq task.
func NewIdempotencyCleanupTask(retentionHours int) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: retentionHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
