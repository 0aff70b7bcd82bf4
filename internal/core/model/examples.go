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

// Package model defines the data structures for the application. This
// file provides factory functions for hardcoded example instances used
// for few-shot prompting. Embedding a concrete example of the desired
// JSON shape in each prompt keeps the generative model's output
// consistent and parsable.
package model

// GetExampleTranscription returns sample transcript segments used as the
// few-shot example in the transcription prompt. Times are seconds
// relative to the start of the audio chunk being transcribed.
func GetExampleTranscription() []*TranscriptSegment {
	return []*TranscriptSegment{
		{Start: 0.0, End: 6.5, Text: "Welcome back everyone, today we are walking through the new ingestion service."},
		{Start: 6.5, End: 14.0, Text: "Before we dive into the code, let's look at the architecture diagram on this slide."},
	}
}

// GetExampleTranscriptAnalysis returns a sample analysis used as the
// few-shot example in the transcript analysis prompt.
func GetExampleTranscriptAnalysis() *TranscriptAnalysis {
	return &TranscriptAnalysis{
		Overview: "A walkthrough of the new ingestion service covering its architecture, the queueing model, and a live demo of the deployment.",
		KeyPoints: []string{
			"The ingestion service replaces the legacy batch importer.",
			"Messages are buffered in Pub/Sub before being written to BigQuery.",
		},
		Topics: []*Topic{
			{Title: "Architecture overview", Start: 0, End: 185, Summary: "High-level component diagram and data flow."},
			{Title: "Deployment demo", Start: 185, End: 420, Summary: "Deploying the service and verifying the dashboards."},
		},
		Entities: []*Entity{
			{Name: "Priya Narayan", Category: EntityPeople},
			{Name: "BigQuery", Category: EntityTechnologies},
		},
	}
}

// GetExampleFrameInsight returns a sample frame analysis used as the
// few-shot example in the frame analysis prompt.
func GetExampleFrameInsight() *FrameInsight {
	return &FrameInsight{
		Type:          FrameSlide,
		Description:   "Title slide introducing the ingestion service architecture.",
		ExtractedText: "Ingestion Service: Architecture and Rollout Plan",
	}
}
