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

// Package commands_test contains unit tests for the pipeline stage
// commands, run against fake generators. This file covers the transcript
// analysis stage's boundary validation.
package commands_test

import (
	"context"
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

type generatorFunc func(ctx context.Context, contents []*genai.Content) (string, error)

func (g generatorFunc) Generate(ctx context.Context, contents []*genai.Content) (string, error) {
	return g(ctx, contents)
}

func newAnalyzerContext(t *testing.T, segments []*model.TranscriptSegment) cor.Context {
	t.Helper()
	store := jobs.NewMemoryStore()
	job := model.NewJob("job-1", model.VideoReference{Kind: model.SourceUpload, Locator: "/tmp/a.mp4"}, "")
	require.NoError(t, store.Create(job))

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(commands.GetJobParamName(), job)
	chainCtx.Add(commands.GetTrackerParamName(), jobs.NewTracker(store, "job-1"))
	chainCtx.Add(commands.GetMediaDurationParamName(), 600.0)
	chainCtx.Add(cor.CtxIn, segments)
	return chainCtx
}

func analyzerTemplate(t *testing.T) *template.Template {
	t.Helper()
	tpl, err := template.New("analysis").Parse("{{.EXAMPLE_JSON}} {{.TRANSCRIPT}}")
	require.NoError(t, err)
	return tpl
}

// TestAnalyzerNormalizesResponse verifies topic and entity validation:
// malformed topics are dropped, unknown categories land on other, and
// duplicate entities collapse case-insensitively.
func TestAnalyzerNormalizesResponse(t *testing.T) {
	response := `{
	  "overview": "ok",
	  "topics": [
	    {"title": "Valid", "start": 0, "end": 100},
	    {"title": "", "start": 100, "end": 200},
	    {"title": "Inverted", "start": 300, "end": 200},
	    {"title": "Negative", "start": -5, "end": 50}
	  ],
	  "entities": [
	    {"name": "BigQuery", "category": "technologies"},
	    {"name": "bigquery", "category": "products"},
	    {"name": "Mars Base", "category": "sci-fi location"}
	  ]
	}`
	analyzer := commands.NewTranscriptAnalyzer("analyze",
		generatorFunc(func(_ context.Context, _ []*genai.Content) (string, error) { return response, nil }),
		analyzerTemplate(t), 1000, 1)

	chainCtx := newAnalyzerContext(t, []*model.TranscriptSegment{{Start: 0, End: 10, Text: "speech"}})
	analyzer.Execute(chainCtx)
	require.False(t, chainCtx.HasErrors())

	analysis := chainCtx.Get(commands.GetAnalysisParamName()).(*model.TranscriptAnalysis)
	require.Len(t, analysis.Topics, 1)
	assert.Equal(t, "Valid", analysis.Topics[0].Title)

	require.Len(t, analysis.Entities, 2)
	assert.Equal(t, model.EntityTechnologies, analysis.Entities[0].Category)
	assert.Equal(t, model.EntityOther, analysis.Entities[1].Category)
}

// TestAnalyzerBoundsTopicsToDuration verifies topic spans stay within
// [0, duration]: ends past the media duration are clamped and topics
// starting at or past it are dropped.
func TestAnalyzerBoundsTopicsToDuration(t *testing.T) {
	response := `{
	  "overview": "ok",
	  "topics": [
	    {"title": "Inside", "start": 0, "end": 300},
	    {"title": "Runs over", "start": 300, "end": 900},
	    {"title": "Past the end", "start": 700, "end": 800}
	  ]
	}`
	analyzer := commands.NewTranscriptAnalyzer("analyze",
		generatorFunc(func(_ context.Context, _ []*genai.Content) (string, error) { return response, nil }),
		analyzerTemplate(t), 1000, 1)

	chainCtx := newAnalyzerContext(t, []*model.TranscriptSegment{{Start: 0, End: 10, Text: "speech"}})
	analyzer.Execute(chainCtx)
	require.False(t, chainCtx.HasErrors())

	analysis := chainCtx.Get(commands.GetAnalysisParamName()).(*model.TranscriptAnalysis)
	require.Len(t, analysis.Topics, 2)
	assert.Equal(t, 300.0, analysis.Topics[0].End)
	assert.Equal(t, "Runs over", analysis.Topics[1].Title)
	assert.Equal(t, 600.0, analysis.Topics[1].End)
}

// TestAnalyzerRejectsGapOnlyTranscript verifies a transcript with no
// usable speech fails with the external service code before any model
// call.
func TestAnalyzerRejectsGapOnlyTranscript(t *testing.T) {
	called := false
	analyzer := commands.NewTranscriptAnalyzer("analyze",
		generatorFunc(func(_ context.Context, _ []*genai.Content) (string, error) {
			called = true
			return "", nil
		}),
		analyzerTemplate(t), 1000, 1)

	gaps := []*model.TranscriptSegment{
		{Start: 0, End: 300, Text: model.GapMarkerText, Gap: true},
		{Start: 270, End: 600, Text: model.GapMarkerText, Gap: true},
	}
	chainCtx := newAnalyzerContext(t, gaps)
	analyzer.Execute(chainCtx)

	require.True(t, chainCtx.HasErrors())
	assert.False(t, called)
	for _, err := range chainCtx.GetErrors() {
		assert.Equal(t, jobs.CodeExternalService, jobs.CodeOf(err))
	}
}

// TestAnalyzerRejectsEmptyOverview verifies a response without an
// overview is treated as a model failure.
func TestAnalyzerRejectsEmptyOverview(t *testing.T) {
	analyzer := commands.NewTranscriptAnalyzer("analyze",
		generatorFunc(func(_ context.Context, _ []*genai.Content) (string, error) {
			return `{"overview": "  "}`, nil
		}),
		analyzerTemplate(t), 1000, 1)

	chainCtx := newAnalyzerContext(t, []*model.TranscriptSegment{{Start: 0, End: 10, Text: "speech"}})
	analyzer.Execute(chainCtx)
	assert.True(t, chainCtx.HasErrors())
}
