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

import "github.com/videopulse/video-insights/internal/core/model"

// AssignFramesToTopics nests each frame insight under the topic whose
// span contains its timestamp. Containment is left-closed, right-open:
// a frame at exactly topic.End belongs to the next topic. Frames matching
// no topic are orphans; they stay in the totals but are not nested.
func AssignFramesToTopics(topics []*model.Topic, frames []*model.FrameInsight) (sections []*model.TopicSection, orphans int) {
	sections = make([]*model.TopicSection, 0, len(topics))
	for _, t := range topics {
		sections = append(sections, &model.TopicSection{Topic: t, Frames: make([]*model.FrameInsight, 0)})
	}
	for _, f := range frames {
		placed := false
		for _, sec := range sections {
			if f.Timestamp >= sec.Topic.Start && f.Timestamp < sec.Topic.End {
				sec.Frames = append(sec.Frames, f)
				placed = true
				break
			}
		}
		if !placed {
			orphans++
		}
	}
	return sections, orphans
}

// BuildResult deterministically assembles the final summary from the
// outputs of the earlier stages. It performs no I/O and no model calls:
// identical inputs always produce identical results.
func BuildResult(
	analysis *model.TranscriptAnalysis,
	transcript []*model.TranscriptSegment,
	frames []*model.FrameInsight,
	duration float64) *model.SummaryResult {

	sections, orphans := AssignFramesToTopics(analysis.Topics, frames)

	failed := 0
	for _, f := range frames {
		if f.Failed {
			failed++
		}
	}

	return &model.SummaryResult{
		Overview:        analysis.Overview,
		KeyPoints:       analysis.KeyPoints,
		Topics:          sections,
		Entities:        analysis.Entities,
		Transcript:      transcript,
		TotalFrames:     len(frames),
		FailedFrames:    failed,
		OrphanFrames:    orphans,
		GapCount:        CountGaps(transcript),
		DurationSeconds: duration,
	}
}
