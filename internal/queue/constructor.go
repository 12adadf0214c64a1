package queue

import (
	"errors"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
)

// Tasks run once. The next tick re-enqueues, so retries would only overlap it.
func enqueue(client *asynq.Client, taskType string, payload any, opts ...asynq.Option) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(taskType, taskPayload, asynq.MaxRetry(0))

	info, err := client.Enqueue(task, opts...)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		slog.Info("task already pending", "type", taskType)
		return nil
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	slog.Info("task enqueued", "type", taskType, "id", info.ID)
	return nil
}

func EnqueueAnalyticsSync(client *asynq.Client, payload SyncAnalyticsPayload) error {
	return enqueue(client, TaskTypeSyncAnalytics, payload, asynq.Unique(time.Hour))
}

func EnqueueConfirmPosts(client *asynq.Client, payload ConfirmPostsPayload) error {
	return enqueue(client, TaskTypeConfirmPosts, payload, asynq.Unique(5*time.Minute))
}

func NewConfirmPostsPayload(now time.Time, limit int) ConfirmPostsPayload {
	return ConfirmPostsPayload{Before: now.Unix(), Limit: limit}
}
