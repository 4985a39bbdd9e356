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

// Package model_test contains unit tests for the data models defined in the
// model package. This file tests the constructors and initial state of the
// persistent data models (`Project`, `Moment`, and `Asset`).
package model_test

import (
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
	"github.com/stretchr/testify/assert"
)

// TestNewProject verifies that a freshly created project carries a non-empty
// random identity, a recent creation timestamp, and a pending pipeline
// state with zero progress.
func TestNewProject(t *testing.T) {
	project := model.NewProject("testimonial.mp4", "testimonial")

	assert.NotEmpty(t, project.Id)
	assert.Equal(t, "testimonial.mp4", project.InputFilename)
	assert.Equal(t, "testimonial", project.ContentType)
	assert.WithinDuration(t, time.Now(), project.CreateDate, time.Second)
	assert.Equal(t, model.StatusPending, project.State.Status)
	assert.Equal(t, 0, project.State.ProgressPercent)

	// Two projects for the same file must never collide on identity.
	other := model.NewProject("testimonial.mp4", "testimonial")
	assert.NotEqual(t, project.Id, other.Id)
}

// TestNewMoment verifies the moment constructor binds the project, assigns
// an identity, and stamps the creation time.
func TestNewMoment(t *testing.T) {
	moment := model.NewMoment("project-1", model.MomentProblem)

	assert.NotEmpty(t, moment.Id)
	assert.Equal(t, "project-1", moment.ProjectId)
	assert.Equal(t, model.MomentProblem, moment.Type)
	assert.WithinDuration(t, time.Now(), moment.CreateDate, time.Second)
}

// TestMomentDuration verifies the duration helper is the simple difference
// of the moment's end and start times.
func TestMomentDuration(t *testing.T) {
	moment := model.NewMoment("project-1", model.MomentResult)
	moment.StartTime = 12.5
	moment.EndTime = 30.0

	assert.InDelta(t, 17.5, moment.Duration(), 0.0001)
}

// TestNewAsset verifies that every asset begins life in the processing
// state, since its encode or upload has not happened yet.
func TestNewAsset(t *testing.T) {
	asset := model.NewAsset("project-1", "moment-1", model.AssetTypeVideoClip)

	assert.NotEmpty(t, asset.Id)
	assert.Equal(t, "project-1", asset.ProjectId)
	assert.Equal(t, "moment-1", asset.MomentId)
	assert.Equal(t, model.AssetTypeVideoClip, asset.Type)
	assert.Equal(t, model.AssetProcessing, asset.Status)
	assert.Empty(t, asset.DurableURL)
}

// TestTranscriptHelpers verifies the word split and duration helpers on the
// transcript models.
func TestTranscriptHelpers(t *testing.T) {
	segment := &model.TranscriptSegment{Start: 2, End: 20, Text: "We increased sales by 50% and I love it"}

	assert.InDelta(t, 18.0, segment.Duration(), 0.0001)
	assert.Equal(t, 9, len(segment.Words()))

	transcript := &model.Transcript{
		FullText: segment.Text,
		Segments: []*model.TranscriptSegment{{Start: 0, End: 2, Text: "hi"}, segment},
	}
	assert.InDelta(t, 20.0, transcript.DurationSeconds(), 0.0001)
}
