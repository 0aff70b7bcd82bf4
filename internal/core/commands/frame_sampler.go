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
// summarization workflow. This file defines the frame sampling stage:
// frames are grabbed at the planned timestamps and optionally archived to
// Cloud Storage for the signed-URL endpoint. A frame that fails to
// extract stays in the list with an empty local path so downstream counts
// remain aligned with the plan.
package commands

import (
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"

	"github.com/videopulse/video-insights/internal/core/cor"
	"github.com/videopulse/video-insights/internal/core/jobs"
	"github.com/videopulse/video-insights/internal/core/media"
	"github.com/videopulse/video-insights/internal/core/model"
)

// FrameSampler runs the frame extraction stage.
type FrameSampler struct {
	cor.BaseCommand
	transcoder      Transcoder
	storageClient   *storage.Client
	frameBucket     string
	intervalSeconds float64
	maxFrames       int
}

// NewFrameSampler constructs the frame sampling stage. The storage client
// and bucket may be empty, in which case frames stay local to the job.
func NewFrameSampler(
	name string,
	transcoder Transcoder,
	storageClient *storage.Client,
	frameBucket string,
	intervalSeconds float64,
	maxFrames int) *FrameSampler {
	return &FrameSampler{
		BaseCommand:     *cor.NewBaseCommand(name),
		transcoder:      transcoder,
		storageClient:   storageClient,
		frameBucket:     frameBucket,
		intervalSeconds: intervalSeconds,
		maxFrames:       maxFrames,
	}
}

// IsExecutable requires the acquired video path and the probed duration.
// The chain input at this point is the transcript analysis, so this stage
// reads the video through its well-known key instead.
func (c *FrameSampler) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(GetVideoFileParamName()) != nil &&
		context.Get(GetMediaDurationParamName()) != nil
}

// Execute samples frames at the planned timestamps and publishes them for
// the frame analysis stage.
func (c *FrameSampler) Execute(context cor.Context) {
	videoPath := context.Get(GetVideoFileParamName()).(string)
	duration := context.Get(GetMediaDurationParamName()).(float64)
	job := jobFrom(context)
	tracker := trackerFrom(context)

	timestamps, err := media.PlanFrameTimestamps(duration, c.intervalSeconds, c.maxFrames)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), jobs.NewError(jobs.CodeInvalidArgument, model.StatusExtractingFrames, err))
		return
	}
	_ = tracker.Begin(model.StatusExtractingFrames, fmt.Sprintf("extracting %d frames", len(timestamps)))

	frames := make([]*model.Frame, 0, len(timestamps))
	for i, ts := range timestamps {
		frame := &model.Frame{Sequence: i, Timestamp: ts}
		framePath, err := c.extractFrame(context, videoPath, i, ts)
		if err != nil {
			// A failed grab is tolerated; the frame analysis stage
			// records it as failed.
			_ = tracker.Event(fmt.Sprintf("frame %d extraction failed: %v", i, err))
		} else {
			frame.LocalPath = framePath
			frame.StorageURI = c.archiveFrame(context, job, i, framePath)
		}
		frames = append(frames, frame)
		_ = tracker.StageProgress(model.StatusExtractingFrames, float64(i+1)/float64(len(timestamps)))
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetFramesParamName(), frames)
	context.Add(cor.CtxOut, frames)
}

// extractFrame grabs one JPEG at the timestamp into a tracked temp file.
func (c *FrameSampler) extractFrame(context cor.Context, videoPath string, sequence int, ts float64) (string, error) {
	framePath, err := tempFilePath(fmt.Sprintf("frame-%04d-*.jpg", sequence))
	if err != nil {
		return "", err
	}
	context.AddTempFile(framePath)
	if err := c.transcoder.ExtractFrame(context.GetContext(), videoPath, ts, framePath); err != nil {
		return "", err
	}
	return framePath, nil
}

// archiveFrame uploads the frame under the job's prefix and returns its
// gs:// URI. Upload failures only cost the archive copy, so they are
// logged as events and the frame keeps serving from its local path.
func (c *FrameSampler) archiveFrame(context cor.Context, job *model.Job, sequence int, framePath string) string {
	if c.storageClient == nil || len(c.frameBucket) == 0 || job == nil {
		return ""
	}
	object := fmt.Sprintf("%s/frame_%04d.jpg", job.ID, sequence)

	file, err := os.Open(framePath)
	if err != nil {
		_ = trackerFrom(context).Event(fmt.Sprintf("frame %d archive failed: %v", sequence, err))
		return ""
	}
	defer func() { _ = file.Close() }()

	writer := c.storageClient.Bucket(c.frameBucket).Object(object).NewWriter(context.GetContext())
	writer.ContentType = "image/jpeg"
	if _, err := io.Copy(writer, file); err != nil {
		_ = writer.Close()
		_ = trackerFrom(context).Event(fmt.Sprintf("frame %d archive failed: %v", sequence, err))
		return ""
	}
	if err := writer.Close(); err != nil {
		_ = trackerFrom(context).Event(fmt.Sprintf("frame %d archive failed: %v", sequence, err))
		return ""
	}
	return fmt.Sprintf("gs://%s/%s", c.frameBucket, object)
}
