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

// This file covers the frame analysis stage: per-frame failure
// tolerance through the worker pool and ordering of the insights.
package commands_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/videopulse/video-insights/internal/core/commands"
	"github.com/videopulse/video-insights/internal/core/cor"
	"github.com/videopulse/video-insights/internal/core/jobs"
	"github.com/videopulse/video-insights/internal/core/model"
)

// writeTestFrames creates n frame files whose bytes identify their
// sequence, so a fake vision model can decide per frame.
func writeTestFrames(t *testing.T, n int) []*model.Frame {
	t.Helper()
	dir := t.TempDir()
	frames := make([]*model.Frame, 0, n)
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("frame_%04d.jpg", i))
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("frame-%d", i)), 0o644))
		frames = append(frames, &model.Frame{
			Sequence:   i,
			Timestamp:  float64(i * 30),
			LocalPath:  path,
			StorageURI: fmt.Sprintf("gs://frames/job/frame_%04d.jpg", i),
		})
	}
	return frames
}

func newFrameContext(t *testing.T, frames []*model.Frame) cor.Context {
	t.Helper()
	store := jobs.NewMemoryStore()
	job := model.NewJob("job-1", model.VideoReference{Kind: model.SourceUpload, Locator: "/tmp/a.mp4"}, "")
	require.NoError(t, store.Create(job))

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(commands.GetJobParamName(), job)
	chainCtx.Add(commands.GetTrackerParamName(), jobs.NewTracker(store, "job-1"))
	chainCtx.Add(cor.CtxIn, frames)
	return chainCtx
}

// TestFrameAnalyzerToleratesFailedFrames verifies a vision failure on
// some frames never fails the stage: every frame keeps its slot, failed
// ones carry the failed flag and the general type, and the insights come
// back ordered by sequence.
func TestFrameAnalyzerToleratesFailedFrames(t *testing.T) {
	frames := writeTestFrames(t, 5)
	tpl, err := template.New("frame").Parse("describe {{.EXAMPLE_JSON}}")
	require.NoError(t, err)

	failing := map[string]bool{"frame-1": true, "frame-3": true}
	analyzer := commands.NewFrameAnalyzer("analyze-frames",
		generatorFunc(func(_ context.Context, contents []*genai.Content) (string, error) {
			image := string(contents[0].Parts[1].InlineData.Data)
			if failing[image] {
				return "", fmt.Errorf("vision model unavailable")
			}
			return `{"type": "slide", "description": "A slide.", "extracted_text": "Agenda"}`, nil
		}),
		tpl, 2, 1)

	chainCtx := newFrameContext(t, frames)
	analyzer.Execute(chainCtx)
	require.False(t, chainCtx.HasErrors())

	insights := chainCtx.Get(commands.GetFrameInsightsParamName()).([]*model.FrameInsight)
	require.Len(t, insights, 5)

	failed := 0
	for i, insight := range insights {
		assert.Equal(t, i, insight.Sequence)
		assert.Equal(t, float64(i*30), insight.Timestamp)
		assert.Equal(t, frames[i].StorageURI, insight.StorageURI)
		if insight.Failed {
			failed++
			assert.Equal(t, model.FrameGeneral, insight.Type)
			assert.Empty(t, insight.Description)
		} else {
			assert.Equal(t, model.FrameSlide, insight.Type)
			assert.Equal(t, "A slide.", insight.Description)
		}
	}
	assert.Equal(t, 2, failed)
	assert.True(t, insights[1].Failed)
	assert.True(t, insights[3].Failed)
}

// TestFrameAnalyzerUnreadableFrame verifies a frame whose file never
// materialized is a failed insight, not a stage error.
func TestFrameAnalyzerUnreadableFrame(t *testing.T) {
	tpl, err := template.New("frame").Parse("describe {{.EXAMPLE_JSON}}")
	require.NoError(t, err)

	analyzer := commands.NewFrameAnalyzer("analyze-frames",
		generatorFunc(func(_ context.Context, _ []*genai.Content) (string, error) {
			t.Error("a frame without a file must not reach the model")
			return "", nil
		}),
		tpl, 1, 1)

	frames := []*model.Frame{{Sequence: 0, Timestamp: 0, LocalPath: ""}}
	chainCtx := newFrameContext(t, frames)
	analyzer.Execute(chainCtx)
	require.False(t, chainCtx.HasErrors())

	insights := chainCtx.Get(commands.GetFrameInsightsParamName()).([]*model.FrameInsight)
	require.Len(t, insights, 1)
	assert.True(t, insights[0].Failed)
}
