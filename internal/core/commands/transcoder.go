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
// summarization workflow. This file wraps the ffmpeg and ffprobe
// executables behind the Transcoder interface. Argument lists are format
// strings split on spaces, so the temp-file paths handed to them must not
// contain spaces; every path used here comes from os.CreateTemp.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Constants for external tool execution.
const (
	// ProbeDurationArgs asks ffprobe for the container duration in
	// seconds, printed bare with no wrapper or key.
	ProbeDurationArgs = "-v error -show_entries format=duration -of default=noprint_wrappers=1:nokey=1 %s"
	// ExtractAudioArgs strips the video track and downmixes to mono
	// 16 kHz WAV, the input shape the speech model expects.
	ExtractAudioArgs = "-y -hide_banner -i %s -vn -ac 1 -ar 16000 -f wav %s"
	// SliceAudioArgs cuts one chunk out of the audio track. -ss/-to run
	// before -i for fast seeking.
	SliceAudioArgs = "-y -hide_banner -ss %.3f -to %.3f -i %s -ac 1 -ar 16000 -f wav %s"
	// ExtractFrameArgs grabs a single high-quality JPEG at a timestamp.
	ExtractFrameArgs = "-y -hide_banner -ss %.3f -i %s -frames:v 1 -q:v 2 -f image2 %s"

	CommandSeparator = " "
	TempFilePrefix   = "video-insights-"
)

// Transcoder abstracts the media tooling so stage tests can run without
// ffmpeg installed.
type Transcoder interface {
	// ProbeDuration returns the media duration in seconds.
	ProbeDuration(ctx context.Context, path string) (float64, error)

	// ExtractAudio writes the full audio track of videoPath to outPath
	// as mono 16 kHz WAV.
	ExtractAudio(ctx context.Context, videoPath string, outPath string) error

	// SliceAudio writes the [start, end] span of audioPath to outPath.
	SliceAudio(ctx context.Context, audioPath string, start, end float64, outPath string) error

	// ExtractFrame writes a single JPEG sampled at ts to outPath.
	ExtractFrame(ctx context.Context, videoPath string, ts float64, outPath string) error
}

// FFmpegTranscoder shells out to ffmpeg and ffprobe.
type FFmpegTranscoder struct {
	FFmpegPath  string
	FFprobePath string
}

// NewFFmpegTranscoder uses the tools from PATH.
func NewFFmpegTranscoder() *FFmpegTranscoder {
	return &FFmpegTranscoder{FFmpegPath: "ffmpeg", FFprobePath: "ffprobe"}
}

// ProbeDuration runs ffprobe and parses the bare duration it prints.
func (t *FFmpegTranscoder) ProbeDuration(ctx context.Context, path string) (float64, error) {
	args := fmt.Sprintf(ProbeDurationArgs, path)
	cmd := exec.CommandContext(ctx, t.FFprobePath, strings.Split(args, CommandSeparator)...)
	cmd.Stderr = os.Stderr
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("error running ffprobe: %w", err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("unable to parse ffprobe duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return duration, nil
}

// ExtractAudio writes the mono 16 kHz audio track of the video.
func (t *FFmpegTranscoder) ExtractAudio(ctx context.Context, videoPath string, outPath string) error {
	return t.run(ctx, fmt.Sprintf(ExtractAudioArgs, videoPath, outPath))
}

// SliceAudio cuts one chunk out of the extracted audio track.
func (t *FFmpegTranscoder) SliceAudio(ctx context.Context, audioPath string, start, end float64, outPath string) error {
	return t.run(ctx, fmt.Sprintf(SliceAudioArgs, start, end, audioPath, outPath))
}

// ExtractFrame grabs one JPEG frame at the timestamp.
func (t *FFmpegTranscoder) ExtractFrame(ctx context.Context, videoPath string, ts float64, outPath string) error {
	return t.run(ctx, fmt.Sprintf(ExtractFrameArgs, ts, videoPath, outPath))
}

func (t *FFmpegTranscoder) run(ctx context.Context, args string) error {
	cmd := exec.CommandContext(ctx, t.FFmpegPath, strings.Split(args, CommandSeparator)...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("error running ffmpeg: %w", err)
	}
	return nil
}

// tempFilePath reserves a uniquely named temp file for ffmpeg output and
// returns its path. The file is created then closed so ffmpeg can
// overwrite it in place.
func tempFilePath(pattern string) (string, error) {
	f, err := os.CreateTemp("", TempFilePrefix+pattern)
	if err != nil {
		return "", err
	}
	_ = f.Close()
	return f.Name(), nil
}
