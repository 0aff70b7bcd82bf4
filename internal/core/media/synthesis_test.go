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

// Package media_test contains unit tests for the pure planning logic.
// This file covers topic assignment and result synthesis.
package media_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/videopulse/video-insights/internal/core/media"
	"github.com/videopulse/video-insights/internal/core/model"
)

// TestAssignFramesToTopics verifies [start, end) containment: a frame at
// exactly a topic boundary belongs to the following topic.
func TestAssignFramesToTopics(t *testing.T) {
	topics := []*model.Topic{
		{Title: "Intro", Start: 0, End: 120},
		{Title: "Demo", Start: 120, End: 480},
	}
	frames := []*model.FrameInsight{
		{Sequence: 0, Timestamp: 0},
		{Sequence: 1, Timestamp: 119.9},
		{Sequence: 2, Timestamp: 120}, // boundary: belongs to Demo
		{Sequence: 3, Timestamp: 479.9},
		{Sequence: 4, Timestamp: 480}, // past the last topic: orphan
	}

	sections, orphans := media.AssignFramesToTopics(topics, frames)
	assert.Len(t, sections, 2)
	assert.Len(t, sections[0].Frames, 2)
	assert.Len(t, sections[1].Frames, 2)
	assert.Equal(t, 2, sections[1].Frames[0].Sequence)
	assert.Equal(t, 1, orphans)
}

// TestAssignFramesNoTopics verifies that without topics every frame is an
// orphan and the section list stays empty.
func TestAssignFramesNoTopics(t *testing.T) {
	frames := []*model.FrameInsight{
		{Sequence: 0, Timestamp: 10},
		{Sequence: 1, Timestamp: 20},
	}
	sections, orphans := media.AssignFramesToTopics(nil, frames)
	assert.Empty(t, sections)
	assert.Equal(t, 2, orphans)
}

// TestBuildResultCounts verifies that failed frames stay in the totals:
// ten sampled frames with two failures still report ten total.
func TestBuildResultCounts(t *testing.T) {
	analysis := &model.TranscriptAnalysis{
		Overview:  "a talk",
		KeyPoints: []string{"point one"},
		Topics:    []*model.Topic{{Title: "All", Start: 0, End: 600}},
	}
	transcript := []*model.TranscriptSegment{
		{Start: 0, End: 250, Text: "speech"},
		{Start: 270, End: 570, Text: model.GapMarkerText, Gap: true},
	}
	frames := make([]*model.FrameInsight, 0, 10)
	for i := 0; i < 10; i++ {
		ts := float64(i * 60)
		if i == 9 {
			// The sampler places the final frame at the exact end of the
			// video, past the last [start, end) topic span.
			ts = 600
		}
		frames = append(frames, &model.FrameInsight{
			Sequence:  i,
			Timestamp: ts,
			Type:      model.FrameGeneral,
			Failed:    i == 3 || i == 7,
		})
	}

	result := media.BuildResult(analysis, transcript, frames, 600)
	assert.Equal(t, 10, result.TotalFrames)
	assert.Equal(t, 2, result.FailedFrames)
	assert.Equal(t, 1, result.GapCount)
	assert.Equal(t, 600.0, result.DurationSeconds)
	assert.Equal(t, "a talk", result.Overview)

	// Timestamp 600 is outside [0, 600).
	assert.Equal(t, 1, result.OrphanFrames)
	assert.Len(t, result.Topics, 1)
	assert.Len(t, result.Topics[0].Frames, 9)
}

// TestBuildResultDeterministic verifies identical inputs yield identical
// results.
func TestBuildResultDeterministic(t *testing.T) {
	analysis := &model.TranscriptAnalysis{
		Overview: "overview",
		Topics:   []*model.Topic{{Title: "A", Start: 0, End: 100}},
	}
	transcript := []*model.TranscriptSegment{{Start: 0, End: 50, Text: "x"}}
	frames := []*model.FrameInsight{{Sequence: 0, Timestamp: 10}}

	first := media.BuildResult(analysis, transcript, frames, 100)
	second := media.BuildResult(analysis, transcript, frames, 100)
	assert.Equal(t, first, second)
}
