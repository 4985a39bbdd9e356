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

// Package services contains the business logic for interacting with data
// sources. This file defines the in-process project registry: the single
// home of per-project pipeline state. The orchestrator that owns a run is
// the only writer of that project's state; status queries receive copies
// and can never mutate the registry's view.
package services

import (
	"sync"
	"time"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
)

// ProjectRegistry tracks every project this process knows about, keyed by
// project id. Alongside pipeline state it keeps the transcript and story
// suggestions a run produced, so the read APIs can serve them without a
// round trip to the warehouse.
type ProjectRegistry struct {
	mu          sync.RWMutex
	projects    map[string]*model.Project
	transcripts map[string]*model.Transcript
	suggestions map[string][]*model.ClipSuggestion
}

// NewProjectRegistry creates an empty registry.
func NewProjectRegistry() *ProjectRegistry {
	return &ProjectRegistry{
		projects:    make(map[string]*model.Project),
		transcripts: make(map[string]*model.Transcript),
		suggestions: make(map[string][]*model.ClipSuggestion),
	}
}

// Put registers a project. The registry takes ownership of the pointer;
// callers must not mutate it afterwards except through UpdateState.
func (r *ProjectRegistry) Put(project *model.Project) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[project.Id] = project
}

// Get returns a copy of the project, so readers can never write back into
// the registry. The second return reports whether the project exists.
func (r *ProjectRegistry) Get(id string) (model.Project, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	project, ok := r.projects[id]
	if !ok {
		return model.Project{}, false
	}
	return *project, true
}

// List returns copies of every registered project.
func (r *ProjectRegistry) List() []model.Project {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Project, 0, len(r.projects))
	for _, project := range r.projects {
		out = append(out, *project)
	}
	return out
}

// UpdateState overwrites the pipeline state of one project. This is the
// orchestrator's write path; it stamps UpdatedAt itself so callers only
// supply the logical state.
func (r *ProjectRegistry) UpdateState(id string, status model.PipelineStatus, stage string, progress int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[id]
	if !ok {
		return
	}
	project.State = model.PipelineState{
		Status:          status,
		Stage:           stage,
		ProgressPercent: progress,
		UpdatedAt:       time.Now(),
	}
}

// SetSourceMetadata records where the staged source lives and how large it
// is. The upload handler calls this after writing the file to disk, so it
// never touches the registered pointer directly.
func (r *ProjectRegistry) SetSourceMetadata(id string, sourcePath string, fileSizeMB float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if project, ok := r.projects[id]; ok {
		project.SourcePath = sourcePath
		project.FileSizeMB = fileSizeMB
	}
}

// SetDuration records the probed source duration once ingest measures it.
func (r *ProjectRegistry) SetDuration(id string, seconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if project, ok := r.projects[id]; ok {
		project.DurationSeconds = seconds
	}
}

// SetTranscript records the transcript a run produced for the project.
func (r *ProjectRegistry) SetTranscript(id string, transcript *model.Transcript) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcripts[id] = transcript
}

// GetTranscript returns the project's transcript, or false if the run has
// not produced one yet.
func (r *ProjectRegistry) GetTranscript(id string) (*model.Transcript, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	transcript, ok := r.transcripts[id]
	return transcript, ok
}

// SetSuggestions records the story clip suggestions a run produced.
func (r *ProjectRegistry) SetSuggestions(id string, suggestions []*model.ClipSuggestion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suggestions[id] = suggestions
}

// GetSuggestions returns the project's story clip suggestions, or false if
// the analysis stage has not run.
func (r *ProjectRegistry) GetSuggestions(id string) ([]*model.ClipSuggestion, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	suggestions, ok := r.suggestions[id]
	return suggestions, ok
}
