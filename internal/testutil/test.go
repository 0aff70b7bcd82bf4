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

// Package test provides shared helpers and canned payloads for the test
// suite: a cached test configuration and sample notification and model
// response bodies.
package test

import (
	"log"
	"os"
	"testing"

	"github.com/videopulse/video-insights/internal/cloud"
)

// StateManager caches the test configuration so it is loaded once per
// test run.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is set.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// GetTestInputMessageText returns the JSON payload of a GCS finalize
// notification for a video landing in the input bucket.
func GetTestInputMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "video_input_resources/conference-talk-001.mp4/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/video_input_resources/o/conference-talk-001.mp4",
  "name": "conference-talk-001.mp4",
  "bucket": "video_input_resources",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "video/mp4",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "timeStorageClassUpdated": "2024-10-11T03:04:08.672Z",
  "size": "259348037",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/video_input_resources/o/conference-talk-001.mp4?generation=1728615848664286&alt=media",
  "metadata": { "touch": "18" },
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
	}`
}

// GetTestTranscriptionResponse returns a canned speech model response for
// one audio chunk, chunk-local timestamps.
func GetTestTranscriptionResponse() string {
	return `[
  {"start": 0.0, "end": 8.0, "text": "Welcome everyone, thanks for joining the session."},
  {"start": 8.0, "end": 20.0, "text": "Today we will cover the new deployment pipeline end to end."}
]`
}

// GetTestAnalysisResponse returns a canned analysis model response
// covering two topics and two entities.
func GetTestAnalysisResponse() string {
	return `{
  "overview": "A session walking through the new deployment pipeline.",
  "key_points": ["The pipeline replaces manual releases.", "Rollbacks are automated."],
  "topics": [
    {"title": "Introduction", "start": 0, "end": 120, "summary": "Speaker introductions and agenda."},
    {"title": "Pipeline walkthrough", "start": 120, "end": 600, "summary": "Stages of the deployment pipeline."}
  ],
  "entities": [
    {"name": "Jordan Lee", "category": "people"},
    {"name": "Cloud Build", "category": "technologies"}
  ]
}`
}

// GetTestFrameResponse returns a canned vision model response for one
// sampled frame.
func GetTestFrameResponse() string {
	return `{
  "type": "slide",
  "description": "Agenda slide listing the pipeline stages.",
  "extracted_text": "Agenda: Build, Test, Deploy, Verify"
}`
}

// SetupOS points the configuration loader at the test TOML files.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is the singleton accessor for the test configuration.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}
