package queue

import (
	"github.com/maheshrc27/postbridge/internal/service"
)

// Queue holds the services the background task handlers drive.
type Queue struct {
	orch         service.Orchestrator
	analytics    service.AnalyticsService
	confirmBatch int
	lookbackDays int
}

func NewQueue(
	orch service.Orchestrator,
	analytics service.AnalyticsService,
	confirmBatch int,
	lookbackDays int) *Queue {
	return &Queue{
		orch:         orch,
		analytics:    analytics,
		confirmBatch: confirmBatch,
		lookbackDays: lookbackDays,
	}
}

const (
	TaskTypeSyncAnalytics = "analytics:sync"
	TaskTypeConfirmPosts  = "post:confirm"
)

type SyncAnalyticsPayload struct {
	LookbackDays int `json:"lookback_days"`
}

// ConfirmPostsPayload carries the cutoff so a delayed task still confirms the
// posts that were due when it was enqueued.
type ConfirmPostsPayload struct {
	Before int64 `json:"before"`
	Limit  int   `json:"limit"`
}
