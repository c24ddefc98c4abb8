// Package worker drains the grading job queue, handing each queued
// assessment id to the GradingPipeline. Grounded on the teacher's
// BLPop-poll-loop-with-requeue-on-failure idiom
// (scoring_worker.go/autosave_worker.go), collapsed from a batching
// persistence worker into a one-job-at-a-time dispatcher since C7's own
// Pipeline already bounds its internal fan-out concurrency — the queue
// only needs to hand off one assessment id per pop, not batch rows.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/classhub-backend/internal/config"
	"github.com/stemsi/classhub-backend/internal/grading"
)

const gradingPollTimeout = 2 * time.Second

// gradingJobPayload is the queue entry an assessment-creation handler
// pushes; the worker never receives more than the ids it needs.
type gradingJobPayload struct {
	TenantID     string `json:"tenant_id"`
	AssessmentID string `json:"assessment_id"`
}

type GradingWorker struct {
	rdb      *redis.Client
	pipeline *grading.Pipeline
	log      zerolog.Logger
}

func NewGradingWorker(rdb *redis.Client, pipeline *grading.Pipeline, log zerolog.Logger) *GradingWorker {
	return &GradingWorker{
		rdb:      rdb,
		pipeline: pipeline,
		log:      log.With().Str("component", "grading_worker").Logger(),
	}
}

// Start runs the poll loop until ctx is cancelled.
func (w *GradingWorker) Start(ctx context.Context) {
	w.log.Info().Msg("grading worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("grading worker shutting down")
			return
		default:
		}

		item, err := w.rdb.BLPop(ctx, gradingPollTimeout, config.WorkerKey.GradingJobQueue).Result()
		if err != nil {
			if err != redis.Nil && ctx.Err() == nil {
				w.log.Error().Err(err).Msg("BLPop error")
			}
			continue
		}
		if len(item) < 2 {
			continue
		}

		var job gradingJobPayload
		if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
			w.log.Error().Err(err).Msg("invalid grading job payload, dropping")
			continue
		}

		if err := w.pipeline.ProcessJob(ctx, job.TenantID, job.AssessmentID); err != nil {
			w.log.Error().Err(err).Str("assessment_id", job.AssessmentID).Msg("grading job failed, not requeueing (job status already set to FAILED)")
		}
	}
}

// Enqueue pushes a job onto the queue a running GradingWorker drains.
func Enqueue(ctx context.Context, rdb *redis.Client, tenantID, assessmentID string) error {
	raw, err := json.Marshal(gradingJobPayload{TenantID: tenantID, AssessmentID: assessmentID})
	if err != nil {
		return err
	}
	return rdb.RPush(ctx, config.WorkerKey.GradingJobQueue, raw).Err()
}
