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

// Package commands provides the concrete pipeline stages of the
// summarization workflow. This file defines the transcript analysis
// stage. The rendered transcript goes to the language model, which
// returns an overview, key points, topic boundaries, and named entities.
// The response is validated at the boundary: entity categories are
// normalized onto the closed enum, malformed topics are dropped, and
// duplicate entities are collapsed.
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/cenkalti/backoff/v4"

	"github.com/videopulse/video-insights/internal/cloud"
	"github.com/videopulse/video-insights/internal/core/cor"
	"github.com/videopulse/video-insights/internal/core/jobs"
	"github.com/videopulse/video-insights/internal/core/media"
	"github.com/videopulse/video-insights/internal/core/model"
)

// TranscriptAnalyzer runs the transcript analysis stage.
type TranscriptAnalyzer struct {
	cor.BaseCommand
	generator      TextGenerator
	promptTemplate *template.Template
	maxPromptChars int
	maxAttempts    int
}

// looseAnalysis mirrors the model response before validation. Categories
// arrive as free strings and are normalized afterwards.
type looseAnalysis struct {
	Overview  string   `json:"overview"`
	KeyPoints []string `json:"key_points"`
	Topics    []*struct {
		Title   string  `json:"title"`
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		Summary string  `json:"summary"`
	} `json:"topics"`
	Entities []*struct {
		Name     string `json:"name"`
		Category string `json:"category"`
	} `json:"entities"`
}

// NewTranscriptAnalyzer constructs the transcript analysis stage.
func NewTranscriptAnalyzer(
	name string,
	generator TextGenerator,
	prompt *template.Template,
	maxPromptChars int,
	maxAttempts int) *TranscriptAnalyzer {
	if maxPromptChars < 1 {
		maxPromptChars = 120000
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &TranscriptAnalyzer{
		BaseCommand:    *cor.NewBaseCommand(name),
		generator:      generator,
		promptTemplate: prompt,
		maxPromptChars: maxPromptChars,
		maxAttempts:    maxAttempts,
	}
}

// Execute analyzes the merged transcript and publishes the validated
// analysis.
func (c *TranscriptAnalyzer) Execute(context cor.Context) {
	segments := context.Get(c.GetInputParam()).([]*model.TranscriptSegment)
	tracker := trackerFrom(context)
	_ = tracker.Begin(model.StatusAnalyzingTranscript, "analyzing transcript")

	if !media.HasSpeech(segments) {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), jobs.Errorf(jobs.CodeExternalService, model.StatusAnalyzingTranscript,
			"transcript contains no usable speech"))
		return
	}

	duration, _ := context.Get(GetMediaDurationParamName()).(float64)
	parts := splitOnLines(media.RenderTranscript(segments), c.maxPromptChars)
	analysis := &model.TranscriptAnalysis{}
	seen := make(map[string]bool)

	for i, part := range parts {
		loose, err := c.analyzePart(context, part)
		if err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), jobs.NewError(jobs.CodeExternalService, model.StatusAnalyzingTranscript, err))
			return
		}
		mergeAnalysis(analysis, loose, seen, duration)
		_ = tracker.StageProgress(model.StatusAnalyzingTranscript, float64(i+1)/float64(len(parts)))
	}

	if len(strings.TrimSpace(analysis.Overview)) == 0 {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), jobs.Errorf(jobs.CodeExternalService, model.StatusAnalyzingTranscript,
			"analysis response has no overview"))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetAnalysisParamName(), analysis)
	context.Add(cor.CtxOut, analysis)
}

// analyzePart prompts the model for one transcript slice and decodes the
// loose response.
func (c *TranscriptAnalyzer) analyzePart(context cor.Context, transcript string) (*looseAnalysis, error) {
	exampleJson, _ := json.Marshal(model.GetExampleTranscriptAnalysis())
	params := map[string]interface{}{
		"TRANSCRIPT":   transcript,
		"EXAMPLE_JSON": string(exampleJson),
	}
	var buffer bytes.Buffer
	if err := c.promptTemplate.Execute(&buffer, params); err != nil {
		return nil, fmt.Errorf("failed to execute analysis prompt template: %w", err)
	}

	var raw string
	operation := func() error {
		out, err := c.generator.Generate(context.GetContext(), cloud.NewTextContent(buffer.String()))
		if err != nil {
			return err
		}
		raw = out
		return nil
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxAttempts-1))
	if err := backoff.Retry(operation, backoff.WithContext(policy, context.GetContext())); err != nil {
		return nil, err
	}

	loose := &looseAnalysis{}
	if err := json.Unmarshal([]byte(raw), loose); err != nil {
		return nil, fmt.Errorf("unparsable analysis response: %w", err)
	}
	return loose, nil
}

// mergeAnalysis folds one validated part into the accumulated analysis.
// The first non-empty overview wins; topics need a title, a positive
// span, and must lie within the media duration (ends are clamped, topics
// starting past the end are dropped); entities dedupe case-insensitively
// by name.
func mergeAnalysis(acc *model.TranscriptAnalysis, loose *looseAnalysis, seen map[string]bool, duration float64) {
	if len(acc.Overview) == 0 {
		acc.Overview = strings.TrimSpace(loose.Overview)
	}
	for _, point := range loose.KeyPoints {
		if p := strings.TrimSpace(point); len(p) > 0 {
			acc.KeyPoints = append(acc.KeyPoints, p)
		}
	}
	for _, topic := range loose.Topics {
		if topic == nil || len(strings.TrimSpace(topic.Title)) == 0 || topic.Start < 0 || topic.End <= topic.Start {
			continue
		}
		end := topic.End
		if duration > 0 {
			if topic.Start >= duration {
				continue
			}
			if end > duration {
				end = duration
			}
		}
		acc.Topics = append(acc.Topics, &model.Topic{
			Title:   strings.TrimSpace(topic.Title),
			Start:   topic.Start,
			End:     end,
			Summary: strings.TrimSpace(topic.Summary),
		})
	}
	for _, entity := range loose.Entities {
		if entity == nil {
			continue
		}
		name := strings.TrimSpace(entity.Name)
		if len(name) == 0 || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		acc.Entities = append(acc.Entities, &model.Entity{
			Name:     name,
			Category: model.NormalizeEntityCategory(entity.Category),
		})
	}
}

// splitOnLines breaks text into pieces no longer than limit, cutting only
// at line boundaries so no transcript segment is split mid-utterance.
func splitOnLines(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	parts := make([]string, 0)
	var current strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		if current.Len() > 0 && current.Len()+len(line) > limit {
			parts = append(parts, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}
