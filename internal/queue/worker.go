package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
)

func (q *Queue) HandleSyncAnalyticsTask(ctx context.Context, task *asynq.Task) error {
	var payload SyncAnalyticsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decoding %s payload: %w: %w", task.Type(), err, asynq.SkipRetry)
	}

	lookback := payload.LookbackDays
	if lookback <= 0 {
		lookback = q.lookbackDays
	}
	return q.analytics.SyncAll(ctx, lookback)
}

func (q *Queue) HandleConfirmPostsTask(ctx context.Context, task *asynq.Task) error {
	var payload ConfirmPostsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decoding %s payload: %w: %w", task.Type(), err, asynq.SkipRetry)
	}

	before := time.Now().UTC()
	if payload.Before > 0 {
		before = time.Unix(payload.Before, 0).UTC()
	}
	limit := payload.Limit
	if limit <= 0 {
		limit = q.confirmBatch
	}

	results, err := q.orch.ConfirmDue(ctx, before, limit)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
	}
	slog.Info("due posts confirmed", "checked", len(results), "failed", failed)
	return nil
}

// Register binds every task handler to mux.
func (q *Queue) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypeSyncAnalytics, q.HandleSyncAnalyticsTask)
	mux.HandleFunc(TaskTypeConfirmPosts, q.HandleConfirmPostsTask)
}
