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

// Package model defines the core data structures for the application.
// This file holds the audio chunking and transcript types. All timestamps
// are seconds from the start of the video; chunk-local times are shifted
// to global time before segments leave the transcription stage.
package model

import "fmt"

// Chunk is one slice of the audio track handed to the speech model.
// Consecutive chunks overlap so that no speech is lost at boundaries.
type Chunk struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// GapMarkerText is the text of a segment standing in for a chunk whose
// transcription failed after all retries.
const GapMarkerText = "[transcription unavailable]"

// TranscriptSegment is one utterance of the transcript. Gap segments mark
// spans where transcription failed; they carry GapMarkerText.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Gap   bool    `json:"gap,omitempty"`
}

// NewGapSegment returns the placeholder segment covering a failed chunk.
func NewGapSegment(chunk *Chunk) *TranscriptSegment {
	return &TranscriptSegment{Start: chunk.Start, End: chunk.End, Text: GapMarkerText, Gap: true}
}

// FormatTimestamp renders seconds as HH:MM:SS for prompts and logs.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
