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

package media

import (
	"sort"
	"strings"

	"github.com/videopulse/video-insights/internal/core/model"
)

// ShiftSegments converts chunk-local segment times to global times by
// adding the chunk start offset.
func ShiftSegments(segments []*model.TranscriptSegment, offset float64) []*model.TranscriptSegment {
	out := make([]*model.TranscriptSegment, 0, len(segments))
	for _, s := range segments {
		out = append(out, &model.TranscriptSegment{
			Start: s.Start + offset,
			End:   s.End + offset,
			Text:  s.Text,
			Gap:   s.Gap,
		})
	}
	return out
}

// MergeChunkTranscripts folds per-chunk transcripts (already in global
// time, ordered by chunk index) into one transcript. Within a chunk
// overlap the later chunk wins: before appending chunk k, accumulated
// segments starting at or after chunk k's start are dropped. A nil slice
// for a chunk means its transcription failed and a gap marker takes the
// chunk's place.
func MergeChunkTranscripts(chunks []*model.Chunk, perChunk [][]*model.TranscriptSegment) []*model.TranscriptSegment {
	merged := make([]*model.TranscriptSegment, 0)
	for i, chunk := range chunks {
		segments := perChunk[i]
		if segments == nil {
			segments = []*model.TranscriptSegment{model.NewGapSegment(chunk)}
		}
		// Later chunk wins across the overlap.
		keep := merged[:0]
		for _, s := range merged {
			if s.Start < chunk.Start {
				keep = append(keep, s)
			}
		}
		merged = append(keep, segments...)
	}
	sort.SliceStable(merged, func(a, b int) bool { return merged[a].Start < merged[b].Start })
	return merged
}

// RenderTranscript flattens segments into the timestamped text handed to
// the analysis prompt. Gap segments keep their marker so the model knows
// the span is missing rather than silent.
func RenderTranscript(segments []*model.TranscriptSegment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString("[")
		b.WriteString(model.FormatTimestamp(s.Start))
		b.WriteString(" - ")
		b.WriteString(model.FormatTimestamp(s.End))
		b.WriteString("] ")
		b.WriteString(s.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// HasSpeech reports whether the transcript contains any successfully
// transcribed text, i.e. anything besides gap markers.
func HasSpeech(segments []*model.TranscriptSegment) bool {
	for _, s := range segments {
		if !s.Gap && len(strings.TrimSpace(s.Text)) > 0 {
			return true
		}
	}
	return false
}

// CountGaps returns the number of gap-marker segments.
func CountGaps(segments []*model.TranscriptSegment) int {
	n := 0
	for _, s := range segments {
		if s.Gap {
			n++
		}
	}
	return n
}
