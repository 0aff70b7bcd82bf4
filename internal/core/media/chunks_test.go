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
// This file covers the chunk planner.
package media_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/videopulse/video-insights/internal/core/media"
)

// TestPlanChunksWithOverlap verifies the canonical case: a ten-minute
// recording with five-minute chunks and thirty seconds of overlap yields
// three chunks, the last ending exactly at the duration.
func TestPlanChunksWithOverlap(t *testing.T) {
	chunks, err := media.PlanChunks(600, 300, 30)
	assert.NoError(t, err)
	assert.Len(t, chunks, 3)

	assert.Equal(t, 0.0, chunks[0].Start)
	assert.Equal(t, 300.0, chunks[0].End)
	assert.Equal(t, 270.0, chunks[1].Start)
	assert.Equal(t, 570.0, chunks[1].End)
	assert.Equal(t, 540.0, chunks[2].Start)
	assert.Equal(t, 600.0, chunks[2].End)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
}

// TestPlanChunksShortDuration verifies that media at or below the chunk
// length produces a single chunk covering the whole recording.
func TestPlanChunksShortDuration(t *testing.T) {
	chunks, err := media.PlanChunks(120, 300, 30)
	assert.NoError(t, err)
	assert.Len(t, chunks, 1)
	assert.Equal(t, 0.0, chunks[0].Start)
	assert.Equal(t, 120.0, chunks[0].End)

	// Exact fit also yields one chunk.
	chunks, err = media.PlanChunks(300, 300, 30)
	assert.NoError(t, err)
	assert.Len(t, chunks, 1)
	assert.Equal(t, 300.0, chunks[0].End)
}

// TestPlanChunksCoverage verifies that every instant of the recording is
// covered and that consecutive chunks overlap by the configured amount.
func TestPlanChunksCoverage(t *testing.T) {
	chunks, err := media.PlanChunks(3600, 300, 30)
	assert.NoError(t, err)

	assert.Equal(t, 0.0, chunks[0].Start)
	assert.Equal(t, 3600.0, chunks[len(chunks)-1].End)
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].Start+270, chunks[i].Start)
		assert.Less(t, chunks[i].Start, chunks[i-1].End, "chunks must overlap")
	}
}

// TestPlanChunksValidation verifies the rejection of degenerate inputs.
func TestPlanChunksValidation(t *testing.T) {
	_, err := media.PlanChunks(0, 300, 30)
	assert.Error(t, err)

	_, err = media.PlanChunks(600, 0, 0)
	assert.Error(t, err)

	_, err = media.PlanChunks(600, 300, -1)
	assert.Error(t, err)

	// Overlap equal to the chunk length would never advance.
	_, err = media.PlanChunks(600, 300, 300)
	assert.Error(t, err)
}
