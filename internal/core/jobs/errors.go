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

// Package jobs holds the job store, the progress tracker, and the error
// taxonomy shared by every pipeline stage. All failures surfaced to
// callers carry one of the closed Code values so the HTTP layer and the
// retry policy can act on them without string matching.
package jobs

import (
	"errors"
	"fmt"

	"github.com/videopulse/video-insights/internal/core/model"
)

// Code classifies pipeline failures.
type Code string

const (
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeSourceUnavailable Code = "SOURCE_UNAVAILABLE"
	CodeMediaError        Code = "MEDIA_ERROR"
	CodeExternalService   Code = "EXTERNAL_SERVICE_ERROR"
	CodeNotFound          Code = "NOT_FOUND"
	CodeNotReady          Code = "NOT_READY"
)

// PipelineError wraps a failure with its code and the stage it happened
// in. It supports errors.Is/As through Unwrap.
type PipelineError struct {
	Code  Code
	Stage model.JobStatus
	Err   error
}

// NewError constructs a PipelineError.
func NewError(code Code, stage model.JobStatus, err error) *PipelineError {
	return &PipelineError{Code: code, Stage: stage, Err: err}
}

// Errorf constructs a PipelineError from a format string.
func Errorf(code Code, stage model.JobStatus, format string, args ...interface{}) *PipelineError {
	return &PipelineError{Code: code, Stage: stage, Err: fmt.Errorf(format, args...)}
}

func (e *PipelineError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s (stage %s): %v", e.Code, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// InvalidSubmission reports whether the failure was caused by bad caller
// input. The Pub/Sub listener uses it to decide whether a notification is
// poison or worth redelivering.
func (e *PipelineError) InvalidSubmission() bool {
	return e.Code == CodeInvalidArgument
}

// Common sentinels returned by the store and the result lookup.
var (
	ErrNotFound = &PipelineError{Code: CodeNotFound, Err: errors.New("job not found")}
	ErrNotReady = &PipelineError{Code: CodeNotReady, Err: errors.New("job has not completed")}
)

// CodeOf extracts the error code, defaulting to CodeExternalService for
// errors that did not originate in the pipeline.
func CodeOf(err error) Code {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeExternalService
}

// StageOf extracts the failing stage when the error carries one.
func StageOf(err error) model.JobStatus {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return ""
}

// Retryable reports whether the failure class is worth retrying. Bad
// input and unreadable media never heal on retry.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeSourceUnavailable, CodeExternalService:
		return true
	default:
		return false
	}
}
