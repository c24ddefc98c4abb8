package config

// WorkerKeyStruct names the Redis list queues the background worker pool
// consumes. Grounded on the teacher's named-queue-per-worker pattern
// (internal/worker/autosave_worker.go, scoring_worker.go), generalized to
// the single grading job queue C7's GradingPipeline drains.
type WorkerKeyStruct struct {
	GradingJobQueue string
}

var WorkerKey = &WorkerKeyStruct{
	GradingJobQueue: "grading_job_queue",
}
