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
// summarization workflow. This file defines the archival stage, which
// writes the finished summary to BigQuery. Archival is best effort: a
// write failure is recorded as an event but never fails the job, since
// the result already lives in the job store.
package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/videopulse/video-insights/internal/core/cor"
	"github.com/videopulse/video-insights/internal/core/model"
)

// ResultPersister archives completed summaries to BigQuery.
type ResultPersister struct {
	cor.BaseCommand
	bigqueryClient *bigquery.Client
	datasetName    string
	tableName      string
}

// NewResultPersister constructs the archival stage. A nil client turns
// the stage into a pass-through.
func NewResultPersister(name string, client *bigquery.Client, datasetName string, tableName string) *ResultPersister {
	return &ResultPersister{
		BaseCommand:    *cor.NewBaseCommand(name),
		bigqueryClient: client,
		datasetName:    datasetName,
		tableName:      tableName,
	}
}

// Execute inserts the archived row and passes the result through
// unchanged.
func (c *ResultPersister) Execute(context cor.Context) {
	result := context.Get(c.GetInputParam()).(*model.SummaryResult)
	defer context.Add(cor.CtxOut, result)

	if c.bigqueryClient == nil {
		return
	}
	job := jobFrom(context)
	if job == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		_ = trackerFrom(context).Event(fmt.Sprintf("result archival failed: %v", err))
		return
	}

	row := &model.ArchivedResult{
		JobID:       job.ID,
		DisplayName: job.DisplayName,
		CompletedAt: time.Now().UTC(),
		Payload:     string(payload),
	}
	inserter := c.bigqueryClient.Dataset(c.datasetName).Table(c.tableName).Inserter()
	if err := inserter.Put(context.GetContext(), row); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		_ = trackerFrom(context).Event(fmt.Sprintf("result archival failed: %v", err))
		return
	}
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}
