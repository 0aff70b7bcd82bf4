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
// summarization workflow. This file defines the frame analysis stage: a
// worker pool sends each sampled frame to the vision model and normalizes
// the response onto the closed frame-type enum. A frame that cannot be
// read or analyzed becomes a failed insight; only the stage as a whole
// never fails here.
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"text/template"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/genai"

	"github.com/videopulse/video-insights/internal/cloud"
	"github.com/videopulse/video-insights/internal/core/cor"
	"github.com/videopulse/video-insights/internal/core/model"
)

// FrameAnalyzer runs the per-frame vision analysis stage.
type FrameAnalyzer struct {
	cor.BaseCommand
	generator       TextGenerator
	promptTemplate  *template.Template
	numberOfWorkers int
	maxAttempts     int
}

// looseFrameInsight mirrors the vision model response before the frame
// type is normalized.
type looseFrameInsight struct {
	Type          string `json:"type"`
	Description   string `json:"description"`
	ExtractedText string `json:"extracted_text"`
}

// NewFrameAnalyzer constructs the frame analysis stage.
func NewFrameAnalyzer(
	name string,
	generator TextGenerator,
	prompt *template.Template,
	numberOfWorkers int,
	maxAttempts int) *FrameAnalyzer {
	if numberOfWorkers < 1 {
		numberOfWorkers = 1
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &FrameAnalyzer{
		BaseCommand:     *cor.NewBaseCommand(name),
		generator:       generator,
		promptTemplate:  prompt,
		numberOfWorkers: numberOfWorkers,
		maxAttempts:     maxAttempts,
	}
}

// Execute analyzes the sampled frames concurrently and publishes the
// insights ordered by sequence.
func (c *FrameAnalyzer) Execute(context cor.Context) {
	frames := context.Get(c.GetInputParam()).([]*model.Frame)
	tracker := trackerFrom(context)
	_ = tracker.Begin(model.StatusAnalyzingFrames, fmt.Sprintf("analyzing %d frames", len(frames)))

	prompt, err := c.renderPrompt()
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to execute frame prompt template: %w", err))
		return
	}

	var wg sync.WaitGroup
	work := make(chan *model.Frame, len(frames))
	results := make(chan *model.FrameInsight, len(frames))
	var done atomic.Int64
	total := float64(len(frames))

	for w := 0; w < c.numberOfWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for frame := range work {
				insight := c.analyzeFrame(context, prompt, frame)
				if insight.Failed {
					_ = tracker.Event(fmt.Sprintf("frame %d analysis failed", frame.Sequence))
				}
				_ = tracker.StageProgress(model.StatusAnalyzingFrames, float64(done.Add(1))/total)
				results <- insight
			}
		}()
	}

	for _, frame := range frames {
		work <- frame
	}
	close(work)
	wg.Wait()
	close(results)

	insights := make([]*model.FrameInsight, 0, len(frames))
	for insight := range results {
		insights = append(insights, insight)
	}
	sort.Slice(insights, func(a, b int) bool { return insights[a].Sequence < insights[b].Sequence })

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetFrameInsightsParamName(), insights)
	context.Add(cor.CtxOut, insights)
}

func (c *FrameAnalyzer) renderPrompt() (string, error) {
	exampleJson, _ := json.Marshal(model.GetExampleFrameInsight())
	params := map[string]interface{}{
		"EXAMPLE_JSON": string(exampleJson),
	}
	var buffer bytes.Buffer
	if err := c.promptTemplate.Execute(&buffer, params); err != nil {
		return "", err
	}
	return buffer.String(), nil
}

// analyzeFrame sends one frame image to the vision model. Every failure
// path returns a failed insight rather than an error so one bad frame
// never takes down the stage.
func (c *FrameAnalyzer) analyzeFrame(context cor.Context, prompt string, frame *model.Frame) *model.FrameInsight {
	insight := &model.FrameInsight{
		Sequence:   frame.Sequence,
		Timestamp:  frame.Timestamp,
		Type:       model.FrameGeneral,
		StorageURI: frame.StorageURI,
	}
	if len(frame.LocalPath) == 0 {
		insight.Failed = true
		return insight
	}

	data, err := os.ReadFile(frame.LocalPath)
	if err != nil {
		insight.Failed = true
		return insight
	}

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{
			{Text: prompt},
			cloud.NewInlinePart(data, "image/jpeg"),
		}},
	}

	var raw string
	operation := func() error {
		out, err := c.generator.Generate(context.GetContext(), contents)
		if err != nil {
			return err
		}
		raw = out
		return nil
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxAttempts-1))
	if err := backoff.Retry(operation, backoff.WithContext(policy, context.GetContext())); err != nil {
		insight.Failed = true
		return insight
	}

	loose := &looseFrameInsight{}
	if err := json.Unmarshal([]byte(raw), loose); err != nil {
		insight.Failed = true
		return insight
	}

	insight.Type = model.NormalizeFrameType(loose.Type)
	insight.Description = strings.TrimSpace(loose.Description)
	insight.ExtractedText = strings.TrimSpace(loose.ExtractedText)
	return insight
}
