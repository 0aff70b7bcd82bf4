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

// Package cloud_test contains unit tests for the GCS helpers and the
// notification payload decoding.
package cloud_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/videopulse/video-insights/internal/cloud"
	test "github.com/videopulse/video-insights/internal/testutil"
)

// TestFormatAndParseGCSURI verifies the gs:// round trip.
func TestFormatAndParseGCSURI(t *testing.T) {
	uri := cloud.FormatGCSURI("my-bucket", "videos/talk.mp4")
	assert.Equal(t, "gs://my-bucket/videos/talk.mp4", uri)

	bucket, object, err := cloud.ParseGCSURI(uri)
	assert.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "videos/talk.mp4", object)
}

// TestParseGCSURIRejectsMalformed covers the rejection cases.
func TestParseGCSURIRejectsMalformed(t *testing.T) {
	for _, uri := range []string{
		"https://my-bucket/talk.mp4",
		"gs://",
		"gs://bucket-only",
		"gs:///object-only",
	} {
		_, _, err := cloud.ParseGCSURI(uri)
		assert.Error(t, err, "expected %q to be rejected", uri)
	}
}

// TestDecodeGCSNotification verifies the notification payload mapping
// used by the Pub/Sub listener.
func TestDecodeGCSNotification(t *testing.T) {
	var notification cloud.GCSPubSubNotification
	err := json.Unmarshal([]byte(test.GetTestInputMessageText()), &notification)
	assert.NoError(t, err)
	assert.Equal(t, "video_input_resources", notification.Bucket)
	assert.Equal(t, "conference-talk-001.mp4", notification.Name)
	assert.Equal(t, "video/mp4", notification.ContentType)
}
