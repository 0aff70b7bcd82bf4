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

import "fmt"

// PlanFrameTimestamps returns the timestamps (seconds) at which frames
// are sampled. Sampling starts at 0 and steps by intervalSeconds. When
// that would exceed maxFrames, the interval widens to
// duration/(maxFrames-1) so exactly maxFrames frames cover the full
// [0, duration] range with even spacing.
func PlanFrameTimestamps(duration, intervalSeconds float64, maxFrames int) ([]float64, error) {
	if duration < 0 {
		return nil, fmt.Errorf("duration must not be negative, got %f", duration)
	}
	if intervalSeconds <= 0 {
		return nil, fmt.Errorf("frame interval must be positive, got %f", intervalSeconds)
	}
	if maxFrames <= 0 {
		return nil, fmt.Errorf("max frames must be positive, got %d", maxFrames)
	}

	if duration == 0 || maxFrames == 1 {
		return []float64{0}, nil
	}

	count := int(duration/intervalSeconds) + 1
	if count > maxFrames {
		widened := duration / float64(maxFrames-1)
		out := make([]float64, 0, maxFrames)
		for i := 0; i < maxFrames-1; i++ {
			out = append(out, float64(i)*widened)
		}
		// Pin the last frame to the exact end rather than accumulating
		// floating point drift.
		out = append(out, duration)
		return out, nil
	}

	out := make([]float64, 0, count)
	for ts := 0.0; ts <= duration; ts += intervalSeconds {
		out = append(out, ts)
	}
	return out, nil
}
