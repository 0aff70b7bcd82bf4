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

// Package jobs holds the job store, the progress tracker, and the error
// taxonomy. This file defines the Tracker, the single writer of job
// status. It enforces the invariants of the state machine: progress never
// decreases, (status, progress, stage) change atomically, progress is 1.0
// exactly when the job completes, and terminal jobs never change again.
package jobs

import (
	"time"

	"github.com/videopulse/video-insights/internal/core/model"
)

// stageSpans maps each processing stage to its [floor, ceiling] slice of
// the overall progress range.
var stageSpans = map[model.JobStatus][2]float64{
	model.StatusDownloading:         {0.00, 0.05},
	model.StatusExtractingAudio:     {0.05, 0.10},
	model.StatusTranscribing:        {0.10, 0.40},
	model.StatusAnalyzingTranscript: {0.40, 0.55},
	model.StatusExtractingFrames:    {0.55, 0.60},
	model.StatusAnalyzingFrames:     {0.60, 0.90},
	model.StatusSynthesizing:        {0.90, 1.00},
}

// maxInFlightProgress caps what a running stage may report. Exactly 1.0
// is reserved for Complete, so a poll can never observe a finished
// progress bar on an unfinished job.
const maxInFlightProgress = 0.99

// Tracker applies status transitions for one job through the store. All
// pipeline commands report through it rather than touching the job.
type Tracker struct {
	store Store
	id    string
}

// NewTracker creates a tracker bound to one job ID.
func NewTracker(store Store, id string) *Tracker {
	return &Tracker{store: store, id: id}
}

// JobID returns the ID of the tracked job.
func (t *Tracker) JobID() string {
	return t.id
}

// Begin moves the job into a processing stage. Progress jumps to the
// stage floor unless the job is already past it.
func (t *Tracker) Begin(stage model.JobStatus, message string) error {
	return t.store.Update(t.id, func(job *model.Job) error {
		if job.Status.Terminal() {
			return nil
		}
		job.Status = stage
		job.CurrentStage = stage
		if span, ok := stageSpans[stage]; ok && span[0] > job.Progress {
			job.Progress = span[0]
		}
		if len(message) > 0 {
			job.AppendEvent(stage, message)
		}
		return nil
	})
}

// StageProgress reports fractional completion (0..1) within a stage. The
// overall progress interpolates inside the stage span and never moves
// backwards. A stage reporting full completion still shows below 1.0
// until Complete settles the job.
func (t *Tracker) StageProgress(stage model.JobStatus, fraction float64) error {
	span, ok := stageSpans[stage]
	if !ok {
		return nil
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	target := span[0] + fraction*(span[1]-span[0])
	if target > maxInFlightProgress {
		target = maxInFlightProgress
	}
	return t.store.Update(t.id, func(job *model.Job) error {
		if job.Status.Terminal() {
			return nil
		}
		if target > job.Progress {
			job.Progress = target
		}
		return nil
	})
}

// Event appends a message to the job's capped event log.
func (t *Tracker) Event(message string) error {
	return t.store.Update(t.id, func(job *model.Job) error {
		if job.Status.Terminal() {
			return nil
		}
		job.AppendEvent(job.CurrentStage, message)
		return nil
	})
}

// SetDuration records the probed media duration on the job.
func (t *Tracker) SetDuration(seconds float64) error {
	return t.store.Update(t.id, func(job *model.Job) error {
		if job.Status.Terminal() {
			return nil
		}
		job.DurationSeconds = seconds
		return nil
	})
}

// Complete finishes the job with its result. Progress snaps to 1.0 and
// the job becomes immutable.
func (t *Tracker) Complete(result *model.SummaryResult) error {
	return t.store.Update(t.id, func(job *model.Job) error {
		if job.Status.Terminal() {
			return nil
		}
		now := time.Now().UTC()
		job.Status = model.StatusCompleted
		job.CurrentStage = model.StatusCompleted
		job.Progress = 1.0
		job.Result = result
		job.CompletedAt = &now
		job.AppendEvent(model.StatusCompleted, "job completed")
		return nil
	})
}

// Fail finishes the job with an error. Progress freezes at its last
// value; the failing stage stays visible in CurrentStage.
func (t *Tracker) Fail(err error) error {
	return t.store.Update(t.id, func(job *model.Job) error {
		if job.Status.Terminal() {
			return nil
		}
		now := time.Now().UTC()
		job.Status = model.StatusFailed
		if stage := StageOf(err); stage != "" {
			job.CurrentStage = stage
		}
		job.ErrorCode = string(CodeOf(err))
		job.ErrorMessage = err.Error()
		job.CompletedAt = &now
		job.AppendEvent(model.StatusFailed, err.Error())
		return nil
	})
}
