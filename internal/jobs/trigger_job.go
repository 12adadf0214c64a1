package job

import (
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	config "github.com/maheshrc27/postbridge/configs"
	"github.com/maheshrc27/postbridge/internal/queue"
	"github.com/robfig/cron"
)

// TriggerJob turns cron ticks into asynq tasks, so the work runs on whichever
// instance's worker picks it up.
type TriggerJob struct {
	client *asynq.Client
	cfg    config.Config
}

func NewTriggerJob(client *asynq.Client, cfg config.Config) *TriggerJob {
	return &TriggerJob{
		client: client,
		cfg:    cfg,
	}
}

func (j *TriggerJob) ConfirmPosts() {
	payload := queue.NewConfirmPostsPayload(time.Now().UTC(), j.cfg.Provider.ConfirmBatch)
	if err := queue.EnqueueConfirmPosts(j.client, payload); err != nil {
		slog.Info("Unable to enqueue post confirmation", "error", err)
	}
}

func (j *TriggerJob) SyncAnalytics() {
	payload := queue.SyncAnalyticsPayload{LookbackDays: j.cfg.Analytics.LookbackDays}
	if err := queue.EnqueueAnalyticsSync(j.client, payload); err != nil {
		slog.Info("Unable to enqueue analytics sync", "error", err)
	}
}

func (j *TriggerJob) Register(c *cron.Cron) error {
	if err := c.AddFunc(j.cfg.Provider.ConfirmSchedule, j.ConfirmPosts); err != nil {
		return err
	}
	return c.AddFunc(j.cfg.Analytics.SyncSchedule, j.SyncAnalytics)
}
