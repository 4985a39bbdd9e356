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

// This file exercises the in-process project registry: copy-out read
// semantics, the orchestrator's state write path, and per-run transcript
// and suggestion retention.
package services_test

import (
	"sync"
	"testing"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/services"
	test "github.com/jaycherian/gcp-go-story-clips/internal/testutil"
	"github.com/stretchr/testify/assert"
)

// TestRegistryGetReturnsCopy verifies readers receive a value copy that can
// never write back into the registry's state.
func TestRegistryGetReturnsCopy(t *testing.T) {
	registry := services.NewProjectRegistry()
	project := model.NewProject("acme-launch.mp4", "testimonial")
	registry.Put(project)

	got, ok := registry.Get(project.Id)
	assert.True(t, ok)
	assert.Equal(t, project.Id, got.Id)

	// Mutating the copy must not leak into the registry.
	got.State.Status = model.StatusFailed
	again, _ := registry.Get(project.Id)
	assert.NotEqual(t, model.StatusFailed, again.State.Status)
}

// TestRegistryGetUnknown verifies the missing-project contract.
func TestRegistryGetUnknown(t *testing.T) {
	registry := services.NewProjectRegistry()
	_, ok := registry.Get("nope")
	assert.False(t, ok)
}

// TestRegistryUpdateState verifies the orchestrator write path stamps the
// logical state and the update time.
func TestRegistryUpdateState(t *testing.T) {
	registry := services.NewProjectRegistry()
	project := model.NewProject("acme-launch.mp4", "testimonial")
	registry.Put(project)

	registry.UpdateState(project.Id, model.StatusProcessing, "transcribing", 30)

	got, _ := registry.Get(project.Id)
	assert.Equal(t, model.StatusProcessing, got.State.Status)
	assert.Equal(t, "transcribing", got.State.Stage)
	assert.Equal(t, 30, got.State.ProgressPercent)
	assert.False(t, got.State.UpdatedAt.IsZero())

	// An update for an unknown id is a no-op, never a panic.
	registry.UpdateState("nope", model.StatusFailed, "x", 0)
}

// TestRegistrySetSourceMetadata verifies the upload path's locked setter
// records the staged path and size on the registered project.
func TestRegistrySetSourceMetadata(t *testing.T) {
	registry := services.NewProjectRegistry()
	project := model.NewProject("acme-launch.mp4", "testimonial")
	registry.Put(project)

	registry.SetSourceMetadata(project.Id, "/work/abc/source.mp4", 12.5)

	got, _ := registry.Get(project.Id)
	assert.Equal(t, "/work/abc/source.mp4", got.SourcePath)
	assert.InDelta(t, 12.5, got.FileSizeMB, 0.0001)

	// A write for an unknown id is a no-op, never a panic.
	registry.SetSourceMetadata("nope", "/x", 1)
}

// TestRegistryStagingWritesAreSynchronized replays the upload handler's call
// sequence (Put, then metadata writes) against concurrent status reads so
// the race detector can vet that staging never touches the registered
// pointer outside the lock.
func TestRegistryStagingWritesAreSynchronized(t *testing.T) {
	registry := services.NewProjectRegistry()
	project := model.NewProject("acme-launch.mp4", "testimonial")
	registry.Put(project)
	registry.UpdateState(project.Id, model.StatusProcessing, "staging_source", 5)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		registry.SetSourceMetadata(project.Id, "/work/abc/source.mp4", 12.5)
		registry.SetDuration(project.Id, 39)
		registry.UpdateState(project.Id, model.StatusPending, "", 10)
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			for _, p := range registry.List() {
				_ = p.SourcePath
				_ = p.FileSizeMB
				_ = p.DurationSeconds
			}
		}
	}()
	wg.Wait()

	got, _ := registry.Get(project.Id)
	assert.Equal(t, "/work/abc/source.mp4", got.SourcePath)
	assert.Equal(t, 39, got.DurationSeconds)
	assert.Equal(t, model.StatusPending, got.State.Status)
}

// TestRegistrySetDuration verifies the probed duration lands on the project.
func TestRegistrySetDuration(t *testing.T) {
	registry := services.NewProjectRegistry()
	project := model.NewProject("acme-launch.mp4", "testimonial")
	registry.Put(project)

	registry.SetDuration(project.Id, 39)

	got, _ := registry.Get(project.Id)
	assert.Equal(t, 39, got.DurationSeconds)
}

// TestRegistryList verifies List returns one copy per registered project.
func TestRegistryList(t *testing.T) {
	registry := services.NewProjectRegistry()
	registry.Put(model.NewProject("a.mp4", "testimonial"))
	registry.Put(model.NewProject("b.mp4", "case_study"))

	assert.Len(t, registry.List(), 2)
}

// TestRegistryTranscriptRetention verifies transcript storage and the
// not-yet-available contract.
func TestRegistryTranscriptRetention(t *testing.T) {
	registry := services.NewProjectRegistry()
	project := model.NewProject("acme-launch.mp4", "testimonial")
	registry.Put(project)

	_, ok := registry.GetTranscript(project.Id)
	assert.False(t, ok)

	transcript := test.GetTestTranscript()
	registry.SetTranscript(project.Id, transcript)

	got, ok := registry.GetTranscript(project.Id)
	assert.True(t, ok)
	assert.Equal(t, transcript.FullText, got.FullText)
	assert.Len(t, got.Segments, len(transcript.Segments))
}

// TestRegistrySuggestionRetention verifies suggestion storage, including an
// explicitly empty analysis result, which still counts as available.
func TestRegistrySuggestionRetention(t *testing.T) {
	registry := services.NewProjectRegistry()
	project := model.NewProject("acme-launch.mp4", "testimonial")
	registry.Put(project)

	_, ok := registry.GetSuggestions(project.Id)
	assert.False(t, ok)

	registry.SetSuggestions(project.Id, []*model.ClipSuggestion{})
	suggestions, ok := registry.GetSuggestions(project.Id)
	assert.True(t, ok)
	assert.Empty(t, suggestions)
}

// TestRegistryConcurrentAccess drives writers and readers in parallel so the
// race detector can vet the locking.
func TestRegistryConcurrentAccess(t *testing.T) {
	registry := services.NewProjectRegistry()
	project := model.NewProject("acme-launch.mp4", "testimonial")
	registry.Put(project)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			registry.UpdateState(project.Id, model.StatusProcessing, "stage", n)
		}(i)
		go func() {
			defer wg.Done()
			_, _ = registry.Get(project.Id)
			_ = registry.List()
		}()
	}
	wg.Wait()

	got, ok := registry.Get(project.Id)
	assert.True(t, ok)
	assert.Equal(t, model.StatusProcessing, got.State.Status)
}
