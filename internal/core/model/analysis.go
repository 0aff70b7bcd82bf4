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
// This file holds the transcript analysis types together with the closed
// enums that AI responses are normalized into. The model output is never
// trusted: unknown categories fall back to their catch-all value at the
// boundary instead of leaking arbitrary strings into the result.
package model

import "strings"

// EntityCategory is the closed set of categories an extracted entity may
// carry.
type EntityCategory string

const (
	EntityPeople        EntityCategory = "people"
	EntityOrganizations EntityCategory = "organizations"
	EntityProducts      EntityCategory = "products"
	EntityTechnologies  EntityCategory = "technologies"
	EntityLocations     EntityCategory = "locations"
	EntityOther         EntityCategory = "other"
)

// NormalizeEntityCategory maps a loosely typed model response onto the
// closed EntityCategory set. Anything unrecognized becomes EntityOther.
func NormalizeEntityCategory(in string) EntityCategory {
	switch EntityCategory(strings.ToLower(strings.TrimSpace(in))) {
	case EntityPeople:
		return EntityPeople
	case EntityOrganizations:
		return EntityOrganizations
	case EntityProducts:
		return EntityProducts
	case EntityTechnologies:
		return EntityTechnologies
	case EntityLocations:
		return EntityLocations
	default:
		return EntityOther
	}
}

// Entity is a named entity extracted from the transcript.
type Entity struct {
	Name     string         `json:"name"`
	Category EntityCategory `json:"category"`
}

// Topic is a contiguous span of the video covering one subject. Start is
// inclusive and End exclusive, which is also the rule used when frames
// are assigned to topics.
type Topic struct {
	Title   string  `json:"title"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Summary string  `json:"summary,omitempty"`
}

// TranscriptAnalysis is the validated output of the transcript analysis
// stage.
type TranscriptAnalysis struct {
	Overview  string    `json:"overview"`
	KeyPoints []string  `json:"key_points,omitempty"`
	Topics    []*Topic  `json:"topics,omitempty"`
	Entities  []*Entity `json:"entities,omitempty"`
}
