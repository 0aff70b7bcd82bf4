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

package main

import (
	"context"
	"log"
	"os"

	credentials "cloud.google.com/go/iam/credentials/apiv1"

	"github.com/videopulse/video-insights/internal/cloud"
	"github.com/videopulse/video-insights/internal/core/jobs"
	"github.com/videopulse/video-insights/internal/core/services"
	"github.com/videopulse/video-insights/internal/core/workflow"
)

// StateManager holds the shared components of the server process.
type StateManager struct {
	config        *cloud.Config
	cloud         *cloud.ServiceClients
	orchestrator  *workflow.Orchestrator
	resultService *services.ResultService
}

var state = &StateManager{}

func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState builds the cloud clients, the pipeline, and the orchestrator,
// then starts the worker pool and the Pub/Sub listeners.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}

	iamClient, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		panic(err)
	}
	cloudClients.IAMClient = iamClient
	state.cloud = cloudClients

	pipeline := workflow.NewSummarizationPipeline(config, cloudClients)
	state.orchestrator = workflow.NewOrchestrator(
		jobs.NewMemoryStore(),
		pipeline,
		config.Application.ThreadPoolSize,
		config.Pipeline.QueueSize)
	state.orchestrator.Start(ctx)

	state.resultService = &services.ResultService{
		BigqueryClient: cloudClients.BigQueryClient,
		StorageClient:  cloudClients.StorageClient,
		IAMClient:      cloudClients.IAMClient,
		SignerEmail:    config.Application.SignerServiceAccountEmail,
		DatasetName:    config.BigQueryDataSource.DatasetName,
		ResultTable:    config.BigQueryDataSource.ResultTable,
	}

	SetupListeners(ctx, cloudClients)
}

// SetupListeners attaches the orchestrator to every configured Pub/Sub
// subscription so videos landing in the input bucket are submitted
// automatically.
func SetupListeners(ctx context.Context, cloudClients *cloud.ServiceClients) {
	for name := range cloudClients.PubSubListeners {
		listener := cloudClients.PubSubListeners[name]
		listener.SetSubmitter(state.orchestrator)
		listener.Listen(ctx)
	}
}
