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
// summarization workflow. This file defines the synthesis stage, a pure
// assembly step: given the analysis, the transcript, and the frame
// insights already in the context, it builds the final result without any
// further I/O or model calls.
package commands

import (
	"github.com/videopulse/video-insights/internal/core/cor"
	"github.com/videopulse/video-insights/internal/core/media"
	"github.com/videopulse/video-insights/internal/core/model"
)

// Synthesizer runs the final result assembly stage.
type Synthesizer struct {
	cor.BaseCommand
}

// NewSynthesizer constructs the synthesis stage.
func NewSynthesizer(name string) *Synthesizer {
	return &Synthesizer{BaseCommand: *cor.NewBaseCommand(name)}
}

// IsExecutable requires the frame insights as chain input plus the
// analysis, transcript, and duration under their well-known keys.
func (c *Synthesizer) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(c.GetInputParam()) != nil &&
		context.Get(GetAnalysisParamName()) != nil &&
		context.Get(GetTranscriptParamName()) != nil &&
		context.Get(GetMediaDurationParamName()) != nil
}

// Execute assembles the summary result and publishes it.
func (c *Synthesizer) Execute(context cor.Context) {
	insights := context.Get(c.GetInputParam()).([]*model.FrameInsight)
	analysis := context.Get(GetAnalysisParamName()).(*model.TranscriptAnalysis)
	transcript := context.Get(GetTranscriptParamName()).([]*model.TranscriptSegment)
	duration := context.Get(GetMediaDurationParamName()).(float64)
	tracker := trackerFrom(context)
	_ = tracker.Begin(model.StatusSynthesizing, "assembling summary")

	result := media.BuildResult(analysis, transcript, insights, duration)

	_ = tracker.StageProgress(model.StatusSynthesizing, 1)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetResultParamName(), result)
	context.Add(cor.CtxOut, result)
}
