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

// Package cloud defines the data structures for application
// configuration, loaded from TOML files, plus the clients and wrappers
// for the Google Cloud services the pipeline depends on.
//
// Structs:
//   - Application: general application settings.
//   - Storage: GCS bucket names for inputs and sampled frames.
//   - BigQueryDataSource: dataset and table for archived results.
//   - Pipeline: tuning knobs for chunking, frame sampling, and retries.
//   - PromptTemplates: text templates for the GenAI prompts.
//   - VertexAiLLMModel: configuration of a Vertex AI model.
//   - TopicSubscription: a Pub/Sub subscription to listen on.
//   - Config: the top-level aggregate.
package cloud

import "google.golang.org/genai"

// DefaultSafetySettings disables content blocking for all harm
// categories. The pipeline processes trusted, user-owned media.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// BigQueryDataSource identifies where completed results are archived.
type BigQueryDataSource struct {
	DatasetName string `toml:"dataset"`      // The BigQuery dataset name.
	ResultTable string `toml:"result_table"` // The table holding archived job results.
}

// PromptTemplates holds the text/template sources for each GenAI prompt.
type PromptTemplates struct {
	Transcription      string `toml:"transcription"`       // Prompt for per-chunk audio transcription.
	TranscriptAnalysis string `toml:"transcript_analysis"` // Prompt for whole-transcript analysis.
	FrameAnalysis      string `toml:"frame_analysis"`      // Prompt for single-frame vision analysis.
}

// Pipeline carries the tuning knobs of the summarization pipeline.
type Pipeline struct {
	ChunkSeconds         float64 `toml:"chunk_seconds"`          // Audio chunk length handed to the speech model.
	OverlapSeconds       float64 `toml:"overlap_seconds"`        // Overlap between consecutive chunks.
	FrameIntervalSeconds float64 `toml:"frame_interval_seconds"` // Base sampling interval for frames.
	MaxFrames            int     `toml:"max_frames"`             // Hard cap on sampled frames; the interval widens to fit.
	MaxAttempts          int     `toml:"max_attempts"`           // Bounded retry attempts for AI and download calls.
	QueueSize            int     `toml:"queue_size"`             // Capacity of the orchestrator's submission queue.
	MaxPromptChars       int     `toml:"max_prompt_chars"`       // Transcripts above this size are split before analysis.
}

// VertexAiLLMModel represents the configuration for a Vertex AI model.
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`               // The Vertex AI model name.
	SystemInstructions string  `toml:"system_instructions"` // System instructions for the model.
	Temperature        float32 `toml:"temperature"`         // Sampling temperature.
	TopP               float32 `toml:"top_p"`               // Nucleus sampling parameter.
	TopK               float32 `toml:"top_k"`               // Top-k sampling parameter.
	MaxTokens          int32   `toml:"max_tokens"`          // Maximum output tokens.
	OutputFormat       string  `toml:"output_format"`       // Desired response MIME type, e.g. "application/json".
	RateLimit          int     `toml:"rate_limit"`          // Requests per second allowed for this model.
}

// TopicSubscription represents a Pub/Sub subscription the server listens
// on for GCS object notifications.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The Pub/Sub subscription name.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // Dead-letter topic for the subscription.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // Receive timeout in seconds.
}

// Storage names the GCS buckets used by the pipeline.
type Storage struct {
	InputBucket string `toml:"input_bucket"` // Videos landing here are submitted automatically.
	FrameBucket string `toml:"frame_bucket"` // Sampled frames are published here.
}

// Config is the root configuration aggregate, loaded from TOML files.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name                      string `toml:"name"`                         // The application name.
		GoogleProjectId           string `toml:"google_project_id"`            // The Google Cloud project ID.
		GoogleLocation            string `toml:"location"`                     // The Google Cloud location.
		ThreadPoolSize            int    `toml:"thread_pool_size"`             // Worker pool size for parallel stages and the orchestrator.
		SignerServiceAccountEmail string `toml:"signer_service_account_email"` // Service account used for signing GCS URLs.
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"`
	Pipeline           Pipeline                     `toml:"pipeline"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models"`
}

// NewConfig creates a Config with initialized maps and working defaults
// for the pipeline knobs. TOML files overwrite whatever they set.
func NewConfig() *Config {
	c := &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]VertexAiLLMModel),
	}
	c.Application.ThreadPoolSize = 4
	c.Pipeline = Pipeline{
		ChunkSeconds:         300,
		OverlapSeconds:       30,
		FrameIntervalSeconds: 30,
		MaxFrames:            20,
		MaxAttempts:          3,
		QueueSize:            256,
		MaxPromptChars:       120000,
	}
	return c
}
