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

// Package media holds the pure planning and assembly logic of the
// pipeline: chunk planning, transcript merging, frame sampling, and
// result synthesis. Nothing in this package touches the network or the
// filesystem, which keeps every algorithm deterministic and testable.
package media

import (
	"fmt"

	"github.com/videopulse/video-insights/internal/core/model"
)

// PlanChunks splits a duration into overlapping chunks for transcription.
// Consecutive chunks advance by chunkSeconds-overlapSeconds and the final
// chunk always ends exactly at duration. A duration at or below the chunk
// length yields a single chunk.
func PlanChunks(duration, chunkSeconds, overlapSeconds float64) ([]*model.Chunk, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %f", duration)
	}
	if chunkSeconds <= 0 {
		return nil, fmt.Errorf("chunk length must be positive, got %f", chunkSeconds)
	}
	if overlapSeconds < 0 {
		return nil, fmt.Errorf("overlap must not be negative, got %f", overlapSeconds)
	}
	if overlapSeconds >= chunkSeconds {
		return nil, fmt.Errorf("overlap %f must be smaller than chunk length %f", overlapSeconds, chunkSeconds)
	}

	if duration <= chunkSeconds {
		return []*model.Chunk{{Index: 0, Start: 0, End: duration}}, nil
	}

	stride := chunkSeconds - overlapSeconds
	chunks := make([]*model.Chunk, 0, int(duration/stride)+1)
	start := 0.0
	for {
		end := start + chunkSeconds
		if end >= duration {
			chunks = append(chunks, &model.Chunk{Index: len(chunks), Start: start, End: duration})
			break
		}
		chunks = append(chunks, &model.Chunk{Index: len(chunks), Start: start, End: end})
		start += stride
	}
	return chunks, nil
}
