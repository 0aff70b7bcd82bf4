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

// Package workflow combines the pipeline commands into the summarization
// chain and runs jobs through it. This file assembles the chain itself:
// acquire, extract audio, transcribe, analyze transcript, sample frames,
// analyze frames, synthesize, archive.
package workflow

import (
	"net/http"
	"text/template"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"

	"github.com/videopulse/video-insights/internal/cloud"
	"github.com/videopulse/video-insights/internal/core/commands"
	"github.com/videopulse/video-insights/internal/core/cor"
)

// Agent model names looked up in the configuration.
const (
	AgentTranscription = "transcription"
	AgentAnalysis      = "analysis"
	AgentVision        = "vision"
)

// SummarizationWorkflow is the full processing chain for one job. The
// orchestrator seeds the context with the job snapshot and its tracker,
// then executes this workflow.
type SummarizationWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

// PipelineDeps carries the external dependencies of the chain. Tests
// substitute fakes for the transcoder and generators; the cloud clients
// may be nil, which disables the stages that need them.
type PipelineDeps struct {
	Transcoder             commands.Transcoder
	TranscriptionGenerator commands.TextGenerator
	AnalysisGenerator      commands.TextGenerator
	VisionGenerator        commands.TextGenerator
	StorageClient          *storage.Client
	BigQueryClient         *bigquery.Client
	HTTPClient             *http.Client
}

// Execute runs the whole chain against the given context.
func (w *SummarizationWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// initializeChain wires the command sequence. Each command's CtxOut feeds
// the next command's CtxIn; shared values travel under well-known keys.
func (w *SummarizationWorkflow) initializeChain(config *cloud.Config, deps *PipelineDeps, templates map[string]*template.Template) {
	workers := config.Application.ThreadPoolSize
	knobs := config.Pipeline

	out := cor.NewBaseChain(w.GetName())
	out.AddCommand(commands.NewSourceAcquirer(
		"acquire-source", deps.StorageClient, deps.HTTPClient, deps.Transcoder, knobs.MaxAttempts))
	out.AddCommand(commands.NewAudioExtractor("extract-audio", deps.Transcoder))
	out.AddCommand(commands.NewTranscriber(
		"transcribe-chunks", deps.TranscriptionGenerator, deps.Transcoder,
		templates[AgentTranscription], workers, knobs.ChunkSeconds, knobs.OverlapSeconds, knobs.MaxAttempts))
	out.AddCommand(commands.NewTranscriptAnalyzer(
		"analyze-transcript", deps.AnalysisGenerator,
		templates[AgentAnalysis], knobs.MaxPromptChars, knobs.MaxAttempts))
	out.AddCommand(commands.NewFrameSampler(
		"sample-frames", deps.Transcoder, deps.StorageClient, config.Storage.FrameBucket,
		knobs.FrameIntervalSeconds, knobs.MaxFrames))
	out.AddCommand(commands.NewFrameAnalyzer(
		"analyze-frames", deps.VisionGenerator,
		templates[AgentVision], workers, knobs.MaxAttempts))
	out.AddCommand(commands.NewSynthesizer("synthesize-result"))
	out.AddCommand(commands.NewResultPersister(
		"archive-result", deps.BigQueryClient,
		config.BigQueryDataSource.DatasetName, config.BigQueryDataSource.ResultTable))
	w.chain = out
}

// NewSummarizationWorkflow builds the chain from explicit dependencies.
// Prompt templates come from the configuration; the application cannot
// run with an unparsable prompt, so parse failures panic.
func NewSummarizationWorkflow(config *cloud.Config, deps *PipelineDeps) *SummarizationWorkflow {
	templates := make(map[string]*template.Template)
	for name, source := range map[string]string{
		AgentTranscription: config.PromptTemplates.Transcription,
		AgentAnalysis:      config.PromptTemplates.TranscriptAnalysis,
		AgentVision:        config.PromptTemplates.FrameAnalysis,
	} {
		parsed, err := template.New(name + "-template").Parse(source)
		if err != nil {
			panic(err)
		}
		templates[name] = parsed
	}

	w := &SummarizationWorkflow{BaseCommand: *cor.NewBaseCommand("summarization-pipeline")}
	w.initializeChain(config, deps, templates)
	return w
}

// NewSummarizationPipeline is the production constructor. It binds the
// configured agent models to their stages and uses the ffmpeg tooling
// from PATH.
func NewSummarizationPipeline(config *cloud.Config, serviceClients *cloud.ServiceClients) *SummarizationWorkflow {
	deps := &PipelineDeps{
		Transcoder:             commands.NewFFmpegTranscoder(),
		TranscriptionGenerator: commands.NewGeminiGenerator(AgentTranscription, serviceClients.AgentModels[AgentTranscription]),
		AnalysisGenerator:      commands.NewGeminiGenerator(AgentAnalysis, serviceClients.AgentModels[AgentAnalysis]),
		VisionGenerator:        commands.NewGeminiGenerator(AgentVision, serviceClients.AgentModels[AgentVision]),
		StorageClient:          serviceClients.StorageClient,
		BigQueryClient:         serviceClients.BigQueryClient,
	}
	return NewSummarizationWorkflow(config, deps)
}
