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

// Package model defines the core data structures for the application.
// This file holds the Job entity and its state machine. A job moves
// through a fixed sequence of stages; every stage may transition to
// failed, and completed/failed are terminal.
package model

import (
	"fmt"
	"strings"
	"time"
)

// JobStatus enumerates the states of the summarization state machine.
type JobStatus string

const (
	StatusPending             JobStatus = "pending"
	StatusDownloading         JobStatus = "downloading"
	StatusExtractingAudio     JobStatus = "extracting_audio"
	StatusTranscribing        JobStatus = "transcribing"
	StatusAnalyzingTranscript JobStatus = "analyzing_transcript"
	StatusExtractingFrames    JobStatus = "extracting_frames"
	StatusAnalyzingFrames     JobStatus = "analyzing_frames"
	StatusSynthesizing        JobStatus = "synthesizing"
	StatusCompleted           JobStatus = "completed"
	StatusFailed              JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// SourceKind enumerates the supported video reference kinds.
type SourceKind string

const (
	SourceURL    SourceKind = "url"
	SourceGCS    SourceKind = "gcs"
	SourceUpload SourceKind = "upload"
)

// VideoReference points at the video a job should process. The meaning of
// Locator depends on Kind: an http(s) URL, a gs:// URI, or a local path
// for files already uploaded to this server.
type VideoReference struct {
	Kind    SourceKind `json:"kind"`
	Locator string     `json:"locator"`
}

// Validate checks the reference shape before a job is created. It returns
// a plain error; callers wrap it with the proper pipeline error code.
func (r VideoReference) Validate() error {
	if len(strings.TrimSpace(r.Locator)) == 0 {
		return fmt.Errorf("video reference locator is empty")
	}
	switch r.Kind {
	case SourceURL:
		if !strings.HasPrefix(r.Locator, "http://") && !strings.HasPrefix(r.Locator, "https://") {
			return fmt.Errorf("url reference must start with http:// or https://: %s", r.Locator)
		}
	case SourceGCS:
		if !strings.HasPrefix(r.Locator, "gs://") {
			return fmt.Errorf("gcs reference must start with gs://: %s", r.Locator)
		}
	case SourceUpload:
		// Local path, existence is checked by the acquire stage.
	default:
		return fmt.Errorf("unknown video reference kind: %q", r.Kind)
	}
	return nil
}

// EventLogCap bounds the per-job event log. When the log is full the
// oldest entry is dropped.
const EventLogCap = 32

// JobEvent is one entry in the job's capped event log.
type JobEvent struct {
	Time    time.Time `json:"time"`
	Stage   JobStatus `json:"stage"`
	Message string    `json:"message"`
}

// Job is the unit of work tracked by the orchestrator. All mutation goes
// through the job store so that (Status, Progress, CurrentStage) always
// change together.
type Job struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name,omitempty"`
	Source      VideoReference `json:"source"`

	Status       JobStatus `json:"status"`
	CurrentStage JobStatus `json:"current_stage"`
	Progress     float64   `json:"progress"`

	Events []JobEvent `json:"events,omitempty"`

	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	DurationSeconds float64 `json:"duration_seconds,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Result *SummaryResult `json:"result,omitempty"`
}

// NewJob creates a pending job for the given source.
func NewJob(id string, source VideoReference, displayName string) *Job {
	return &Job{
		ID:           id,
		DisplayName:  displayName,
		Source:       source,
		Status:       StatusPending,
		CurrentStage: StatusPending,
		Progress:     0,
		Events:       make([]JobEvent, 0, 8),
		CreatedAt:    time.Now().UTC(),
	}
}

// AppendEvent records a log entry, dropping the oldest one once the log
// holds EventLogCap entries.
func (j *Job) AppendEvent(stage JobStatus, message string) {
	if len(j.Events) >= EventLogCap {
		j.Events = j.Events[1:]
	}
	j.Events = append(j.Events, JobEvent{Time: time.Now().UTC(), Stage: stage, Message: message})
}

// Clone returns a snapshot of the job safe to hand to readers while the
// live record keeps mutating. The result pointer is shared because
// results are immutable once set.
func (j *Job) Clone() *Job {
	out := *j
	out.Events = make([]JobEvent, len(j.Events))
	copy(out.Events, j.Events)
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}
