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
// This file covers the frame sampling planner.
package media_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/videopulse/video-insights/internal/core/media"
)

// TestPlanFrameTimestampsRegularInterval verifies plain interval sampling
// when the cap is not reached.
func TestPlanFrameTimestampsRegularInterval(t *testing.T) {
	timestamps, err := media.PlanFrameTimestamps(90, 30, 20)
	assert.NoError(t, err)
	assert.Equal(t, []float64{0, 30, 60, 90}, timestamps)
}

// TestPlanFrameTimestampsWidensInterval verifies that when interval
// sampling would exceed the cap, the interval widens so exactly maxFrames
// frames cover [0, duration] evenly.
func TestPlanFrameTimestampsWidensInterval(t *testing.T) {
	// 100s at 10s would be 11 frames; capped at 5 the spacing becomes 25s.
	timestamps, err := media.PlanFrameTimestamps(100, 10, 5)
	assert.NoError(t, err)
	assert.Equal(t, []float64{0, 25, 50, 75, 100}, timestamps)
}

// TestPlanFrameTimestampsEndpoints verifies the first frame is at zero
// and the last lands exactly on the duration when widened.
func TestPlanFrameTimestampsEndpoints(t *testing.T) {
	timestamps, err := media.PlanFrameTimestamps(3600, 30, 20)
	assert.NoError(t, err)
	assert.Len(t, timestamps, 20)
	assert.Equal(t, 0.0, timestamps[0])
	assert.Equal(t, 3600.0, timestamps[len(timestamps)-1])
}

// TestPlanFrameTimestampsDegenerate covers zero duration, a cap of one,
// and invalid inputs.
func TestPlanFrameTimestampsDegenerate(t *testing.T) {
	timestamps, err := media.PlanFrameTimestamps(0, 30, 20)
	assert.NoError(t, err)
	assert.Equal(t, []float64{0}, timestamps)

	timestamps, err = media.PlanFrameTimestamps(600, 30, 1)
	assert.NoError(t, err)
	assert.Equal(t, []float64{0}, timestamps)

	_, err = media.PlanFrameTimestamps(-1, 30, 20)
	assert.Error(t, err)
	_, err = media.PlanFrameTimestamps(600, 0, 20)
	assert.Error(t, err)
	_, err = media.PlanFrameTimestamps(600, 30, 0)
	assert.Error(t, err)
}
