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
// This file covers transcript shifting, merging, and rendering.
package media_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/videopulse/video-insights/internal/core/media"
	"github.com/videopulse/video-insights/internal/core/model"
)

// TestShiftSegments verifies chunk-local times are moved to global time.
func TestShiftSegments(t *testing.T) {
	local := []*model.TranscriptSegment{
		{Start: 0, End: 5, Text: "hello"},
		{Start: 5, End: 12, Text: "world"},
	}
	global := media.ShiftSegments(local, 270)
	assert.Equal(t, 270.0, global[0].Start)
	assert.Equal(t, 275.0, global[0].End)
	assert.Equal(t, 282.0, global[1].End)
	// The input is not mutated.
	assert.Equal(t, 0.0, local[0].Start)
}

// TestMergeLaterChunkWins verifies that across a chunk overlap the later
// chunk's segments replace the earlier chunk's.
func TestMergeLaterChunkWins(t *testing.T) {
	chunks := []*model.Chunk{
		{Index: 0, Start: 0, End: 300},
		{Index: 1, Start: 270, End: 570},
	}
	perChunk := [][]*model.TranscriptSegment{
		{
			{Start: 0, End: 100, Text: "first chunk body"},
			{Start: 275, End: 295, Text: "first chunk overlap take"},
		},
		{
			{Start: 272, End: 296, Text: "second chunk overlap take"},
			{Start: 300, End: 400, Text: "second chunk body"},
		},
	}

	merged := media.MergeChunkTranscripts(chunks, perChunk)
	assert.Len(t, merged, 3)
	assert.Equal(t, "first chunk body", merged[0].Text)
	assert.Equal(t, "second chunk overlap take", merged[1].Text)
	assert.Equal(t, "second chunk body", merged[2].Text)

	for i := 1; i < len(merged); i++ {
		assert.GreaterOrEqual(t, merged[i].Start, merged[i-1].Start)
	}
}

// TestMergeFailedChunkBecomesGap verifies that a nil per-chunk slice
// produces a gap marker spanning the chunk and that gaps are counted.
func TestMergeFailedChunkBecomesGap(t *testing.T) {
	chunks := []*model.Chunk{
		{Index: 0, Start: 0, End: 300},
		{Index: 1, Start: 270, End: 570},
		{Index: 2, Start: 540, End: 600},
	}
	perChunk := [][]*model.TranscriptSegment{
		{{Start: 0, End: 250, Text: "before the gap"}},
		nil,
		{{Start: 575, End: 590, Text: "after the gap"}},
	}

	merged := media.MergeChunkTranscripts(chunks, perChunk)
	assert.Len(t, merged, 3)
	assert.True(t, merged[1].Gap)
	assert.Equal(t, model.GapMarkerText, merged[1].Text)
	assert.Equal(t, 270.0, merged[1].Start)
	assert.Equal(t, 570.0, merged[1].End)
	assert.Equal(t, 1, media.CountGaps(merged))
	assert.True(t, media.HasSpeech(merged))
}

// TestMergeAllChunksFailed verifies an all-gap transcript reports no
// usable speech.
func TestMergeAllChunksFailed(t *testing.T) {
	chunks := []*model.Chunk{
		{Index: 0, Start: 0, End: 300},
		{Index: 1, Start: 270, End: 600},
	}
	merged := media.MergeChunkTranscripts(chunks, [][]*model.TranscriptSegment{nil, nil})
	assert.Len(t, merged, 2)
	assert.False(t, media.HasSpeech(merged))
	assert.Equal(t, 2, media.CountGaps(merged))
}

// TestRenderTranscript verifies the timestamped text layout handed to the
// analysis prompt.
func TestRenderTranscript(t *testing.T) {
	segments := []*model.TranscriptSegment{
		{Start: 0, End: 65, Text: "intro"},
		{Start: 3600, End: 3725, Text: "closing"},
	}
	rendered := media.RenderTranscript(segments)
	lines := strings.Split(strings.TrimRight(rendered, "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "[00:00:00 - 00:01:05] intro", lines[0])
	assert.Equal(t, "[01:00:00 - 01:02:05] closing", lines[1])
}
