// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package workflow combines the pipeline commands into the summarization
// chain and runs jobs through it. This file defines the Orchestrator, the
// public face of the pipeline: it accepts submissions, runs jobs through
// the chain on a bounded worker pool, and serves status, result, and
// stats lookups from the job store.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/videopulse/video-insights/internal/core/commands"
	"github.com/videopulse/video-insights/internal/core/cor"
	"github.com/videopulse/video-insights/internal/core/jobs"
	"github.com/videopulse/video-insights/internal/core/model"
)

// Stats is a point-in-time snapshot of the orchestrator's workload.
type Stats struct {
	Jobs       map[model.JobStatus]int `json:"jobs"`
	QueueDepth int                     `json:"queue_depth"`
}

// Orchestrator owns the job store, the submission queue, and the worker
// pool that drains it. One pipeline instance is shared by all workers;
// the commands are stateless between executions, all per-job state lives
// in the chain context.
type Orchestrator struct {
	store    jobs.Store
	pipeline *SummarizationWorkflow
	queue    chan string
	workers  int
	wg       sync.WaitGroup

	submitCounter   metric.Int64Counter
	completeCounter metric.Int64Counter
	failCounter     metric.Int64Counter
}

// NewOrchestrator creates an orchestrator with a bounded queue. Start
// must be called before submissions are processed.
func NewOrchestrator(store jobs.Store, pipeline *SummarizationWorkflow, workers int, queueSize int) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	meter := otel.Meter("github.com/videopulse/video-insights")
	out := &Orchestrator{
		store:    store,
		pipeline: pipeline,
		queue:    make(chan string, queueSize),
		workers:  workers,
	}
	out.submitCounter, _ = meter.Int64Counter("orchestrator.jobs.submitted")
	out.completeCounter, _ = meter.Int64Counter("orchestrator.jobs.completed")
	out.failCounter, _ = meter.Int64Counter("orchestrator.jobs.failed")
	return out
}

// Start launches the worker pool. Workers exit when the queue is closed
// by Stop or when ctx is canceled.
func (o *Orchestrator) Start(ctx context.Context) {
	for i := 0; i < o.workers; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case id, ok := <-o.queue:
					if !ok {
						return
					}
					o.run(ctx, id)
				}
			}
		}()
	}
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (o *Orchestrator) Stop() {
	close(o.queue)
	o.wg.Wait()
}

// Submit validates the reference, registers a pending job, and enqueues
// it. Invalid references are rejected before a job exists; a full queue
// is reported as NotReady so callers can retry.
func (o *Orchestrator) Submit(ctx context.Context, source model.VideoReference, displayName string) (string, error) {
	if err := source.Validate(); err != nil {
		return "", jobs.NewError(jobs.CodeInvalidArgument, "", err)
	}

	job := model.NewJob(uuid.NewString(), source, displayName)
	if err := o.store.Create(job); err != nil {
		return "", err
	}
	_ = jobs.NewTracker(o.store, job.ID).Event("job accepted")

	select {
	case o.queue <- job.ID:
	default:
		err := jobs.Errorf(jobs.CodeNotReady, "", "submission queue is full")
		_ = jobs.NewTracker(o.store, job.ID).Fail(err)
		o.failCounter.Add(ctx, 1)
		// The ID comes back with the error so the rejection stays
		// queryable through GetStatus.
		return job.ID, err
	}

	o.submitCounter.Add(ctx, 1)
	slog.InfoContext(ctx, "job submitted", "job_id", job.ID, "source_kind", string(source.Kind))
	return job.ID, nil
}

// GetStatus returns a snapshot of the job.
func (o *Orchestrator) GetStatus(id string) (*model.Job, error) {
	return o.store.Get(id)
}

// GetResult returns the summary of a completed job. A failed job yields
// its stored pipeline error; a job still in flight yields NotReady.
func (o *Orchestrator) GetResult(id string) (*model.SummaryResult, error) {
	job, err := o.store.Get(id)
	if err != nil {
		return nil, err
	}
	switch job.Status {
	case model.StatusCompleted:
		return job.Result, nil
	case model.StatusFailed:
		return nil, jobs.Errorf(jobs.Code(job.ErrorCode), job.CurrentStage, "%s", job.ErrorMessage)
	default:
		return nil, jobs.ErrNotReady
	}
}

// Stats reports job counts by status and the current queue depth.
func (o *Orchestrator) Stats() *Stats {
	return &Stats{
		Jobs:       o.store.CountByStatus(),
		QueueDepth: len(o.queue),
	}
}

// run executes one job through the pipeline and settles its terminal
// state.
func (o *Orchestrator) run(ctx context.Context, id string) {
	job, err := o.store.Get(id)
	if err != nil {
		slog.ErrorContext(ctx, "queued job missing from store", "job_id", id, "error", err)
		return
	}
	tracker := jobs.NewTracker(o.store, id)

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, job)
	chainCtx.Add(commands.GetJobParamName(), job)
	chainCtx.Add(commands.GetTrackerParamName(), tracker)

	o.pipeline.Execute(chainCtx)

	if chainCtx.HasErrors() {
		err := firstError(chainCtx)
		_ = tracker.Fail(err)
		o.failCounter.Add(ctx, 1)
		slog.ErrorContext(ctx, "job failed", "job_id", id, "error_code", string(jobs.CodeOf(err)), "error", err)
		return
	}

	result, ok := chainCtx.Get(commands.GetResultParamName()).(*model.SummaryResult)
	if !ok || result == nil {
		err := jobs.Errorf(jobs.CodeExternalService, model.StatusSynthesizing, "pipeline produced no result")
		_ = tracker.Fail(err)
		o.failCounter.Add(ctx, 1)
		slog.ErrorContext(ctx, "job failed", "job_id", id, "error", err)
		return
	}

	_ = tracker.Complete(result)
	o.completeCounter.Add(ctx, 1)
	slog.InfoContext(ctx, "job completed", "job_id", id, "topics", len(result.Topics), "frames", result.TotalFrames)
}

// firstError extracts the most specific error the chain recorded,
// preferring typed pipeline errors over raw ones.
func firstError(chainCtx cor.Context) error {
	var fallback error
	for _, err := range chainCtx.GetErrors() {
		var pe *jobs.PipelineError
		if errors.As(err, &pe) {
			return err
		}
		fallback = err
	}
	if fallback == nil {
		fallback = fmt.Errorf("pipeline failed with no recorded error")
	}
	return fallback
}
