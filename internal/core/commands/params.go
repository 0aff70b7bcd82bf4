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
// summarization workflow as Chain of Responsibility commands. This file
// defines the well-known context keys the stages use to share state, and
// the tracker accessor every stage reports progress through.
package commands

import (
	"github.com/videopulse/video-insights/internal/core/cor"
	"github.com/videopulse/video-insights/internal/core/jobs"
	"github.com/videopulse/video-insights/internal/core/model"
)

// GetJobParamName returns the context key holding the job snapshot the
// chain is executing for.
func GetJobParamName() string {
	return "__JOB__"
}

// GetTrackerParamName returns the context key holding the job tracker.
func GetTrackerParamName() string {
	return "__JOB_TRACKER__"
}

// GetVideoFileParamName returns the context key holding the local path of
// the acquired video file.
func GetVideoFileParamName() string {
	return "__VIDEO_FILE__"
}

// GetAudioFileParamName returns the context key holding the local path of
// the extracted audio track.
func GetAudioFileParamName() string {
	return "__AUDIO_FILE__"
}

// GetMediaDurationParamName returns the context key holding the probed
// media duration in seconds.
func GetMediaDurationParamName() string {
	return "__MEDIA_DURATION__"
}

// GetTranscriptParamName returns the context key holding the merged
// transcript segments.
func GetTranscriptParamName() string {
	return "__TRANSCRIPT__"
}

// GetAnalysisParamName returns the context key holding the validated
// transcript analysis.
func GetAnalysisParamName() string {
	return "__ANALYSIS__"
}

// GetFramesParamName returns the context key holding the sampled frames.
func GetFramesParamName() string {
	return "__FRAMES__"
}

// GetFrameInsightsParamName returns the context key holding the per-frame
// analysis results.
func GetFrameInsightsParamName() string {
	return "__FRAME_INSIGHTS__"
}

// GetResultParamName returns the context key holding the final summary
// result.
func GetResultParamName() string {
	return "__RESULT__"
}

// trackerFrom pulls the job tracker out of the chain context.
func trackerFrom(context cor.Context) *jobs.Tracker {
	if t, ok := context.Get(GetTrackerParamName()).(*jobs.Tracker); ok {
		return t
	}
	return nil
}

// jobFrom pulls the job snapshot out of the chain context.
func jobFrom(context cor.Context) *model.Job {
	if j, ok := context.Get(GetJobParamName()).(*model.Job); ok {
		return j
	}
	return nil
}
