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

// Package services contains the read-side data access layer. This file
// defines the ResultService, which retrieves archived job results from
// BigQuery and signs time-limited GCS URLs for sampled frames so clients
// can fetch images without their own credentials.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/videopulse/video-insights/internal/cloud"
	"github.com/videopulse/video-insights/internal/core/jobs"
	"github.com/videopulse/video-insights/internal/core/model"
)

// ResultService reads archived results and signs frame URLs.
type ResultService struct {
	BigqueryClient *bigquery.Client
	StorageClient  *storage.Client
	IAMClient      *credentials.IamCredentialsClient
	SignerEmail    string
	DatasetName    string
	ResultTable    string
}

// GetFQN returns the queryable name of the results table, with the
// project separator rewritten from a colon to a period for standard SQL.
func (s *ResultService) GetFQN() string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.ResultTable).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

// GetArchived retrieves the newest archived result row for a job.
func (s *ResultService) GetArchived(ctx context.Context, jobID string) (*model.ArchivedResult, error) {
	queryText := fmt.Sprintf(QryFindResultByJobId, s.GetFQN())
	q := s.BigqueryClient.Query(queryText)
	q.Parameters = []bigquery.QueryParameter{{Name: "job_id", Value: jobID}}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}
	row := &model.ArchivedResult{}
	if err := itr.Next(row); err != nil {
		if errors.Is(err, iterator.Done) {
			return nil, jobs.Errorf(jobs.CodeNotFound, "", "no archived result for job %s", jobID)
		}
		return nil, err
	}
	return row, nil
}

// GenerateSignedURL creates a time-limited GET URL for a gs:// object.
// Signing uses the V4 scheme under the configured signer service account.
func (s *ResultService) GenerateSignedURL(ctx context.Context, gcsURI string, expires time.Duration) (string, error) {
	bucketName, objectName, err := cloud.ParseGCSURI(gcsURI)
	if err != nil {
		return "", err
	}

	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.SignerEmail,
	}

	u, err := s.StorageClient.Bucket(bucketName).SignedURL(objectName, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).Object(%q).SignedURL: %w", bucketName, objectName, err)
	}
	return u, nil
}
