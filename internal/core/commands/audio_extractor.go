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
// summarization workflow. This file defines the audio extraction stage,
// which strips the audio track out of the acquired video into the mono
// 16 kHz WAV file the transcription stage slices into chunks.
package commands

import (
	"github.com/videopulse/video-insights/internal/core/cor"
	"github.com/videopulse/video-insights/internal/core/jobs"
	"github.com/videopulse/video-insights/internal/core/model"
)

// AudioExtractor runs the audio demux step of the pipeline.
type AudioExtractor struct {
	cor.BaseCommand
	transcoder Transcoder
}

// NewAudioExtractor constructs the audio extraction stage.
func NewAudioExtractor(name string, transcoder Transcoder) *AudioExtractor {
	return &AudioExtractor{
		BaseCommand: *cor.NewBaseCommand(name),
		transcoder:  transcoder,
	}
}

// Execute extracts the audio track to a temp WAV file and pipes its path
// to the transcription stage.
func (c *AudioExtractor) Execute(context cor.Context) {
	videoPath := context.Get(c.GetInputParam()).(string)
	tracker := trackerFrom(context)
	_ = tracker.Begin(model.StatusExtractingAudio, "extracting audio track")

	audioPath, err := tempFilePath("audio-*.wav")
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), jobs.NewError(jobs.CodeMediaError, model.StatusExtractingAudio, err))
		return
	}
	context.AddTempFile(audioPath)

	if err := c.transcoder.ExtractAudio(context.GetContext(), videoPath, audioPath); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), jobs.NewError(jobs.CodeMediaError, model.StatusExtractingAudio, err))
		return
	}

	_ = tracker.StageProgress(model.StatusExtractingAudio, 1)
	c.GetSuccessCounter().Add(context.GetContext(), 1)

	context.Add(GetAudioFileParamName(), audioPath)
	context.Add(cor.CtxOut, audioPath)
}
