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
// taxonomy. This file defines the Store interface and its in-memory
// implementation. Update applies a mutator under the store lock, which is
// what guarantees that status, progress, and stage change as one unit.
package jobs

import (
	"fmt"
	"sync"

	"github.com/videopulse/video-insights/internal/core/model"
)

// Store is the persistence boundary for jobs. Get returns a snapshot;
// Update mutates the live record atomically with respect to other
// readers and writers of the same job.
type Store interface {
	// Create inserts a new job. It fails if the ID already exists.
	Create(job *model.Job) error

	// Get returns a point-in-time snapshot of the job, or ErrNotFound.
	Get(id string) (*model.Job, error)

	// Update runs the mutator against the live job under the store lock.
	// The mutator's error aborts the update and is returned unchanged.
	Update(id string, mutate func(job *model.Job) error) error

	// CountByStatus returns the number of jobs per status.
	CountByStatus() map[model.JobStatus]int
}

// MemoryStore is the in-process Store used by the orchestrator. Jobs do
// not survive a restart, matching the non-goal of a relational job store.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*model.Job)}
}

// Create inserts a new job, rejecting duplicate IDs.
func (s *MemoryStore) Create(job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = job
	return nil
}

// Get returns a snapshot of the job so callers never observe a record
// mid-mutation.
func (s *MemoryStore) Get(id string) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

// Update applies the mutator to the live job under the write lock.
func (s *MemoryStore) Update(id string, mutate func(job *model.Job) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	return mutate(job)
}

// CountByStatus returns the number of jobs in each status.
func (s *MemoryStore) CountByStatus() map[model.JobStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[model.JobStatus]int)
	for _, job := range s.jobs {
		out[job.Status]++
	}
	return out
}
