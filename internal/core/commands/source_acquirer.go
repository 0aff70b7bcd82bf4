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
// summarization workflow. This file defines the acquire stage: it
// materializes the job's video reference as a local file, verifies the
// bytes really are a video container, and probes the duration every later
// stage plans against.
//
// Failure classes follow the taxonomy: unreachable sources are
// SourceUnavailable (retried with backoff for URL downloads), bytes that
// are not a video or cannot be probed are MediaError.
package commands

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"cloud.google.com/go/storage"
	"github.com/cenkalti/backoff/v4"
	"github.com/h2non/filetype"

	"github.com/videopulse/video-insights/internal/cloud"
	"github.com/videopulse/video-insights/internal/core/cor"
	"github.com/videopulse/video-insights/internal/core/jobs"
	"github.com/videopulse/video-insights/internal/core/model"
)

// SourceAcquirer downloads or locates the source video for a job.
type SourceAcquirer struct {
	cor.BaseCommand
	storageClient *storage.Client
	httpClient    *http.Client
	transcoder    Transcoder
	maxAttempts   int
}

// NewSourceAcquirer constructs the acquire stage. The storage client may
// be nil when GCS sources are not configured; submitting a gcs reference
// then fails with SourceUnavailable.
func NewSourceAcquirer(name string, storageClient *storage.Client, httpClient *http.Client, transcoder Transcoder, maxAttempts int) *SourceAcquirer {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &SourceAcquirer{
		BaseCommand:   *cor.NewBaseCommand(name),
		storageClient: storageClient,
		httpClient:    httpClient,
		transcoder:    transcoder,
		maxAttempts:   maxAttempts,
	}
}

// Execute materializes the source locally, validates it, and publishes
// the local path and probed duration for the following stages.
func (c *SourceAcquirer) Execute(context cor.Context) {
	job := context.Get(c.GetInputParam()).(*model.Job)
	tracker := trackerFrom(context)
	_ = tracker.Begin(model.StatusDownloading, fmt.Sprintf("acquiring %s source", job.Source.Kind))

	localPath, err := c.acquire(context, job.Source)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	kind, err := filetype.MatchFile(localPath)
	if err != nil || kind.MIME.Type != "video" {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), jobs.Errorf(jobs.CodeMediaError, model.StatusDownloading,
			"source is not a recognized video container"))
		return
	}

	duration, err := c.transcoder.ProbeDuration(context.GetContext(), localPath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), jobs.NewError(jobs.CodeMediaError, model.StatusDownloading, err))
		return
	}
	if duration <= 0 {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), jobs.Errorf(jobs.CodeMediaError, model.StatusDownloading,
			"media has no playable duration"))
		return
	}

	_ = tracker.SetDuration(duration)
	_ = tracker.StageProgress(model.StatusDownloading, 1)
	c.GetSuccessCounter().Add(context.GetContext(), 1)

	context.Add(GetVideoFileParamName(), localPath)
	context.Add(GetMediaDurationParamName(), duration)
	context.Add(cor.CtxOut, localPath)
}

func (c *SourceAcquirer) acquire(context cor.Context, source model.VideoReference) (string, error) {
	switch source.Kind {
	case model.SourceURL:
		return c.acquireURL(context, source.Locator)
	case model.SourceGCS:
		return c.acquireGCS(context, source.Locator)
	case model.SourceUpload:
		if _, err := os.Stat(source.Locator); err != nil {
			return "", jobs.Errorf(jobs.CodeSourceUnavailable, model.StatusDownloading,
				"uploaded file is missing: %s", source.Locator)
		}
		return source.Locator, nil
	default:
		return "", jobs.Errorf(jobs.CodeInvalidArgument, model.StatusDownloading,
			"unknown video reference kind: %q", source.Kind)
	}
}

func (c *SourceAcquirer) acquireURL(context cor.Context, url string) (string, error) {
	tempFile, err := os.CreateTemp("", TempFilePrefix+"source-")
	if err != nil {
		return "", jobs.NewError(jobs.CodeMediaError, model.StatusDownloading, err)
	}
	_ = tempFile.Close()
	context.AddTempFile(tempFile.Name())

	operation := func() error {
		return c.download(context, url, tempFile.Name())
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxAttempts-1))
	if err := backoff.Retry(operation, backoff.WithContext(policy, context.GetContext())); err != nil {
		return "", jobs.NewError(jobs.CodeSourceUnavailable, model.StatusDownloading, err)
	}
	return tempFile.Name(), nil
}

func (c *SourceAcquirer) download(context cor.Context, url string, destPath string) error {
	req, err := http.NewRequestWithContext(context.GetContext(), http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("source returned status %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()
	_, err = io.Copy(out, resp.Body)
	return err
}

func (c *SourceAcquirer) acquireGCS(context cor.Context, uri string) (string, error) {
	bucket, object, err := cloud.ParseGCSURI(uri)
	if err != nil {
		return "", jobs.NewError(jobs.CodeInvalidArgument, model.StatusDownloading, err)
	}
	if c.storageClient == nil {
		return "", jobs.Errorf(jobs.CodeSourceUnavailable, model.StatusDownloading,
			"no storage client configured for gcs sources")
	}

	reader, err := c.storageClient.Bucket(bucket).Object(object).NewReader(context.GetContext())
	if err != nil {
		return "", jobs.NewError(jobs.CodeSourceUnavailable, model.StatusDownloading, err)
	}
	defer func() { _ = reader.Close() }()

	tempFile, err := os.CreateTemp("", TempFilePrefix+"source-")
	if err != nil {
		return "", jobs.NewError(jobs.CodeMediaError, model.StatusDownloading, err)
	}
	context.AddTempFile(tempFile.Name())
	defer func() { _ = tempFile.Close() }()

	if _, err := io.Copy(tempFile, reader); err != nil {
		return "", jobs.NewError(jobs.CodeSourceUnavailable, model.StatusDownloading, err)
	}
	return tempFile.Name(), nil
}
