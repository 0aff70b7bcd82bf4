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
// This file holds the final summary result assembled by the synthesis
// stage, and the flattened row shape used when results are archived to
// BigQuery.
package model

import "time"

// TopicSection is a topic with the frame insights whose timestamps fall
// inside its [Start, End) span.
type TopicSection struct {
	Topic  *Topic          `json:"topic"`
	Frames []*FrameInsight `json:"frames,omitempty"`
}

// SummaryResult is the immutable output of a completed job.
type SummaryResult struct {
	Overview  string          `json:"overview"`
	KeyPoints []string        `json:"key_points,omitempty"`
	Topics    []*TopicSection `json:"topics,omitempty"`
	Entities  []*Entity       `json:"entities,omitempty"`

	Transcript []*TranscriptSegment `json:"transcript,omitempty"`

	TotalFrames  int `json:"total_frames"`
	FailedFrames int `json:"failed_frames"`
	OrphanFrames int `json:"orphan_frames"`
	GapCount     int `json:"gap_count"`

	DurationSeconds float64 `json:"duration_seconds"`
}

// ArchivedResult is the row written to the BigQuery results table after a
// job completes. Payload carries the SummaryResult as JSON so the table
// schema stays stable while the result shape evolves.
type ArchivedResult struct {
	JobID       string    `json:"job_id" bigquery:"job_id"`
	DisplayName string    `json:"display_name" bigquery:"display_name"`
	CompletedAt time.Time `json:"completed_at" bigquery:"completed_at"`
	Payload     string    `json:"payload" bigquery:"payload"`
}
