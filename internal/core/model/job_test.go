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

// Package model_test contains unit tests for the core data structures:
// the job state machine, reference validation, and the closed enums.
package model_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/videopulse/video-insights/internal/core/model"
)

// TestVideoReferenceValidate covers the accepted shapes per source kind.
func TestVideoReferenceValidate(t *testing.T) {
	valid := []model.VideoReference{
		{Kind: model.SourceURL, Locator: "https://example.com/a.mp4"},
		{Kind: model.SourceURL, Locator: "http://example.com/a.mp4"},
		{Kind: model.SourceGCS, Locator: "gs://bucket/a.mp4"},
		{Kind: model.SourceUpload, Locator: "/tmp/a.mp4"},
	}
	for _, ref := range valid {
		assert.NoError(t, ref.Validate(), "expected %v to validate", ref)
	}

	invalid := []model.VideoReference{
		{Kind: model.SourceURL, Locator: "ftp://example.com/a.mp4"},
		{Kind: model.SourceGCS, Locator: "https://bucket/a.mp4"},
		{Kind: model.SourceKind("torrent"), Locator: "magnet:x"},
		{Kind: model.SourceURL, Locator: ""},
		{Kind: model.SourceUpload, Locator: "   "},
	}
	for _, ref := range invalid {
		assert.Error(t, ref.Validate(), "expected %v to be rejected", ref)
	}
}

// TestNewJob verifies the initial state of a freshly accepted job.
func TestNewJob(t *testing.T) {
	ref := model.VideoReference{Kind: model.SourceURL, Locator: "https://example.com/a.mp4"}
	job := model.NewJob("id-1", ref, "demo")

	assert.Equal(t, model.StatusPending, job.Status)
	assert.Equal(t, model.StatusPending, job.CurrentStage)
	assert.Equal(t, 0.0, job.Progress)
	assert.Empty(t, job.Events)
	assert.Nil(t, job.Result)
	assert.WithinDuration(t, time.Now(), job.CreatedAt, time.Second)
}

// TestTerminal verifies only completed and failed are terminal.
func TestTerminal(t *testing.T) {
	assert.True(t, model.StatusCompleted.Terminal())
	assert.True(t, model.StatusFailed.Terminal())
	assert.False(t, model.StatusPending.Terminal())
	assert.False(t, model.StatusSynthesizing.Terminal())
}

// TestAppendEventCap verifies the ring behavior of the event log.
func TestAppendEventCap(t *testing.T) {
	job := model.NewJob("id-1", model.VideoReference{Kind: model.SourceUpload, Locator: "/tmp/a"}, "")
	for i := 0; i < model.EventLogCap*2; i++ {
		job.AppendEvent(model.StatusTranscribing, fmt.Sprintf("event %d", i))
	}
	assert.Len(t, job.Events, model.EventLogCap)
	assert.Equal(t, fmt.Sprintf("event %d", model.EventLogCap), job.Events[0].Message)
}

// TestCloneIsolation verifies a clone does not share mutable state with
// the original.
func TestCloneIsolation(t *testing.T) {
	job := model.NewJob("id-1", model.VideoReference{Kind: model.SourceUpload, Locator: "/tmp/a"}, "")
	job.AppendEvent(model.StatusDownloading, "original")

	clone := job.Clone()
	clone.AppendEvent(model.StatusDownloading, "cloned")
	clone.Status = model.StatusFailed

	assert.Len(t, job.Events, 1)
	assert.Equal(t, model.StatusPending, job.Status)
}

// TestNormalizeEntityCategory verifies the closed enum boundary.
func TestNormalizeEntityCategory(t *testing.T) {
	assert.Equal(t, model.EntityPeople, model.NormalizeEntityCategory("People"))
	assert.Equal(t, model.EntityTechnologies, model.NormalizeEntityCategory(" technologies "))
	assert.Equal(t, model.EntityOther, model.NormalizeEntityCategory("celebrities"))
	assert.Equal(t, model.EntityOther, model.NormalizeEntityCategory(""))
}

// TestNormalizeFrameType verifies unknown frame types fall back to
// general.
func TestNormalizeFrameType(t *testing.T) {
	assert.Equal(t, model.FrameSlide, model.NormalizeFrameType("SLIDE"))
	assert.Equal(t, model.FrameCode, model.NormalizeFrameType("code"))
	assert.Equal(t, model.FrameGeneral, model.NormalizeFrameType("meme"))
}

// TestFormatTimestamp verifies the HH:MM:SS rendering.
func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "00:00:00", model.FormatTimestamp(0))
	assert.Equal(t, "00:04:30", model.FormatTimestamp(270))
	assert.Equal(t, "01:02:05", model.FormatTimestamp(3725))
	assert.Equal(t, "00:00:00", model.FormatTimestamp(-5))
}
