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
// summarization workflow. This file defines the narrow generation
// interface the AI stages depend on and its Gemini-backed
// implementation. The interface exists so stage tests can substitute
// canned responses without a Vertex AI connection.
package commands

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"

	"github.com/videopulse/video-insights/internal/cloud"
)

// TextGenerator produces the text of a model response for multi-modal
// content. Implementations are safe for concurrent use.
type TextGenerator interface {
	Generate(ctx context.Context, contents []*genai.Content) (string, error)
}

// GeminiGenerator is the production TextGenerator. It delegates to the
// rate-limited model wrapper and accounts tokens and retries per named
// use (transcription, analysis, vision).
type GeminiGenerator struct {
	model              *cloud.QuotaAwareGenerativeAIModel
	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
	retryCounter       metric.Int64Counter
}

// NewGeminiGenerator wraps a quota-aware model for one named use.
func NewGeminiGenerator(name string, model *cloud.QuotaAwareGenerativeAIModel) *GeminiGenerator {
	meter := otel.Meter("github.com/videopulse/video-insights")
	out := &GeminiGenerator{model: model}
	out.inputTokenCounter, _ = meter.Int64Counter(fmt.Sprintf("%s.gemini.token.input", name))
	out.outputTokenCounter, _ = meter.Int64Counter(fmt.Sprintf("%s.gemini.token.output", name))
	out.retryCounter, _ = meter.Int64Counter(fmt.Sprintf("%s.gemini.retry", name))
	return out
}

// Generate executes the request with the shared retry and token
// accounting helper.
func (g *GeminiGenerator) Generate(ctx context.Context, contents []*genai.Content) (string, error) {
	return cloud.GenerateMultiModalResponse(ctx, g.inputTokenCounter, g.outputTokenCounter, g.retryCounter, 0, g.model, contents)
}
