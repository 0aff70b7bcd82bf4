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
// This file holds the sampled-frame types and the closed frame type enum.
package model

import "strings"

// FrameType is the closed set of visual classifications a frame may get.
type FrameType string

const (
	FrameSlide   FrameType = "slide"
	FrameCode    FrameType = "code"
	FrameDiagram FrameType = "diagram"
	FrameChart   FrameType = "chart"
	FrameGeneral FrameType = "general"
)

// NormalizeFrameType maps a loosely typed model response onto the closed
// FrameType set. Anything unrecognized becomes FrameGeneral.
func NormalizeFrameType(in string) FrameType {
	switch FrameType(strings.ToLower(strings.TrimSpace(in))) {
	case FrameSlide:
		return FrameSlide
	case FrameCode:
		return FrameCode
	case FrameDiagram:
		return FrameDiagram
	case FrameChart:
		return FrameChart
	default:
		return FrameGeneral
	}
}

// Frame is a still image sampled from the video at Timestamp seconds.
// LocalPath is empty when extraction failed; such frames keep their slot
// and surface as failed insights.
type Frame struct {
	Sequence   int     `json:"sequence"`
	Timestamp  float64 `json:"timestamp"`
	LocalPath  string  `json:"-"`
	StorageURI string  `json:"storage_uri,omitempty"`
}

// FrameInsight is the analysis of a single frame. Failed frames are kept
// with empty fields so frame counts stay truthful.
type FrameInsight struct {
	Sequence      int       `json:"sequence"`
	Timestamp     float64   `json:"timestamp"`
	Type          FrameType `json:"type"`
	Description   string    `json:"description,omitempty"`
	ExtractedText string    `json:"extracted_text,omitempty"`
	StorageURI    string    `json:"storage_uri,omitempty"`
	Failed        bool      `json:"failed,omitempty"`
}
