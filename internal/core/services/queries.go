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
// centralizes the BigQuery SQL strings. Table names are filled with
// fmt.Sprintf (identifiers cannot be query parameters); all caller-
// supplied values bind as named query parameters.
package services

const (
	// QryFindResultByJobId looks up one archived result row by job ID.
	// Jobs can be re-archived on replay, so the newest row wins.
	//
	// Placeholders:
	// - `%s`: the fully qualified name of the results table.
	// - `@job_id`: the job ID, bound as a query parameter.
	QryFindResultByJobId = "SELECT job_id, display_name, completed_at, payload FROM `%s` WHERE job_id = @job_id ORDER BY completed_at DESC LIMIT 1"
)
