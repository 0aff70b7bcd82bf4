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
// summarization workflow. This file defines the transcription stage. The
// audio track is planned into overlapping chunks, each chunk is sliced,
// transcribed by the speech model through a worker pool, and the
// per-chunk transcripts are merged with the later chunk winning across
// the overlap. A chunk whose transcription fails after retries becomes a
// gap marker instead of failing the job; the job only fails here when
// the chunk plan itself is invalid.
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"text/template"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/genai"

	"github.com/videopulse/video-insights/internal/cloud"
	"github.com/videopulse/video-insights/internal/core/cor"
	"github.com/videopulse/video-insights/internal/core/jobs"
	"github.com/videopulse/video-insights/internal/core/media"
	"github.com/videopulse/video-insights/internal/core/model"
)

// Transcriber runs the chunked transcription stage.
type Transcriber struct {
	cor.BaseCommand
	generator       TextGenerator
	transcoder      Transcoder
	promptTemplate  *template.Template
	numberOfWorkers int
	chunkSeconds    float64
	overlapSeconds  float64
	maxAttempts     int
}

// chunkJob is one unit of work handed to a transcription worker.
type chunkJob struct {
	chunk     *model.Chunk
	audioPath string
	prompt    string
}

// chunkResult carries a worker's output back to the merge step. Segments
// is nil when the chunk failed after all attempts.
type chunkResult struct {
	index    int
	segments []*model.TranscriptSegment
	err      error
}

// NewTranscriber constructs the transcription stage.
func NewTranscriber(
	name string,
	generator TextGenerator,
	transcoder Transcoder,
	prompt *template.Template,
	numberOfWorkers int,
	chunkSeconds float64,
	overlapSeconds float64,
	maxAttempts int) *Transcriber {
	if numberOfWorkers < 1 {
		numberOfWorkers = 1
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Transcriber{
		BaseCommand:     *cor.NewBaseCommand(name),
		generator:       generator,
		transcoder:      transcoder,
		promptTemplate:  prompt,
		numberOfWorkers: numberOfWorkers,
		chunkSeconds:    chunkSeconds,
		overlapSeconds:  overlapSeconds,
		maxAttempts:     maxAttempts,
	}
}

// IsExecutable requires the extracted audio path and the probed duration.
func (c *Transcriber) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(c.GetInputParam()) != nil &&
		context.Get(GetMediaDurationParamName()) != nil
}

// Execute plans the chunks, transcribes them concurrently, and publishes
// the merged transcript.
func (c *Transcriber) Execute(context cor.Context) {
	audioPath := context.Get(c.GetInputParam()).(string)
	duration := context.Get(GetMediaDurationParamName()).(float64)
	tracker := trackerFrom(context)

	chunks, err := media.PlanChunks(duration, c.chunkSeconds, c.overlapSeconds)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), jobs.NewError(jobs.CodeInvalidArgument, model.StatusTranscribing, err))
		return
	}
	_ = tracker.Begin(model.StatusTranscribing, fmt.Sprintf("transcribing %d audio chunks", len(chunks)))

	var wg sync.WaitGroup
	work := make(chan *chunkJob, len(chunks))
	results := make(chan *chunkResult, len(chunks))
	var done atomic.Int64
	total := float64(len(chunks))

	for w := 0; w < c.numberOfWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range work {
				segments, err := c.transcribeChunk(context, job)
				_ = tracker.StageProgress(model.StatusTranscribing, float64(done.Add(1))/total)
				results <- &chunkResult{index: job.chunk.Index, segments: segments, err: err}
			}
		}()
	}

	for _, chunk := range chunks {
		prompt, err := c.renderPrompt(chunk)
		if err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), fmt.Errorf("failed to execute transcription prompt template: %w", err))
			close(work)
			wg.Wait()
			return
		}
		work <- &chunkJob{chunk: chunk, audioPath: audioPath, prompt: prompt}
	}
	close(work)
	wg.Wait()
	close(results)

	perChunk := make([][]*model.TranscriptSegment, len(chunks))
	for result := range results {
		if result.err != nil {
			// A failed chunk degrades to a gap marker, it does not
			// fail the job.
			_ = tracker.Event(fmt.Sprintf("chunk %d failed transcription: %v", result.index, result.err))
			continue
		}
		perChunk[result.index] = result.segments
	}

	merged := media.MergeChunkTranscripts(chunks, perChunk)
	_ = tracker.StageProgress(model.StatusTranscribing, 1)
	c.GetSuccessCounter().Add(context.GetContext(), 1)

	context.Add(GetTranscriptParamName(), merged)
	context.Add(cor.CtxOut, merged)
}

// renderPrompt fills the prompt template for one chunk. The example JSON
// anchors the response shape.
func (c *Transcriber) renderPrompt(chunk *model.Chunk) (string, error) {
	exampleJson, _ := json.Marshal(model.GetExampleTranscription())
	params := map[string]interface{}{
		"CHUNK_START":  model.FormatTimestamp(chunk.Start),
		"CHUNK_END":    model.FormatTimestamp(chunk.End),
		"EXAMPLE_JSON": string(exampleJson),
	}
	var buffer bytes.Buffer
	if err := c.promptTemplate.Execute(&buffer, params); err != nil {
		return "", err
	}
	return buffer.String(), nil
}

// transcribeChunk slices one chunk out of the audio track, sends it to the
// speech model with backoff, and returns segments shifted to global time.
func (c *Transcriber) transcribeChunk(context cor.Context, job *chunkJob) ([]*model.TranscriptSegment, error) {
	slicePath, err := tempFilePath(fmt.Sprintf("chunk-%04d-*.wav", job.chunk.Index))
	if err != nil {
		return nil, err
	}
	// Workers own their temp files. The shared context temp-file list is
	// not safe for concurrent writes.
	defer func() { _ = os.Remove(slicePath) }()

	if err := c.transcoder.SliceAudio(context.GetContext(), job.audioPath, job.chunk.Start, job.chunk.End, slicePath); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(slicePath)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{
			{Text: job.prompt},
			cloud.NewInlinePart(data, "audio/wav"),
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
		return nil, err
	}

	segments, err := parseChunkSegments(raw)
	if err != nil {
		return nil, err
	}
	return media.ShiftSegments(segments, job.chunk.Start), nil
}

// parseChunkSegments validates the model response for one chunk. Segments
// with empty text or a non-positive span are dropped; a response that is
// not JSON at all is an error so the chunk degrades to a gap.
func parseChunkSegments(raw string) ([]*model.TranscriptSegment, error) {
	var decoded []*model.TranscriptSegment
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("unparsable transcription response: %w", err)
	}
	out := make([]*model.TranscriptSegment, 0, len(decoded))
	for _, s := range decoded {
		if s == nil || s.End <= s.Start || len(strings.TrimSpace(s.Text)) == 0 {
			continue
		}
		out = append(out, &model.TranscriptSegment{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)})
	}
	return out, nil
}
