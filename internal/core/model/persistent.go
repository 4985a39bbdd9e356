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

// Package model defines the core data structures for the application.
// This file contains the persistent data models: projects, moments, and
// generated assets. These structs carry both JSON tags (for the REST API)
// and BigQuery tags (for the persistence collaborator). A Moment is immutable
// once created; an Asset's Status is its only mutable field and transitions
// processing -> completed or processing -> failed exactly once.
package model

import (
	"time"

	"github.com/google/uuid"
)

// PipelineStatus is the lifecycle state of one project's pipeline run.
type PipelineStatus string

const (
	StatusPending    PipelineStatus = "pending"
	StatusProcessing PipelineStatus = "processing"
	StatusCompleted  PipelineStatus = "completed"
	StatusFailed     PipelineStatus = "failed"
)

// MomentType categorizes a persisted moment. The values mirror the response
// vocabulary of the moment-identification collaborator; MomentGeneral is the
// catch-all used by the heuristic fallback path.
type MomentType string

const (
	MomentProblem       MomentType = "problem"
	MomentSolution      MomentType = "solution"
	MomentResult        MomentType = "result"
	MomentEmotionalPeak MomentType = "emotional_peak"
	MomentCTA           MomentType = "cta"
	MomentGeneral       MomentType = "general"
)

// AssetStatus is the lifecycle state of a generated asset.
type AssetStatus string

const (
	AssetProcessing AssetStatus = "processing"
	AssetCompleted  AssetStatus = "completed"
	AssetFailed     AssetStatus = "failed"
)

// Asset type tags for the generated asset catalog.
const (
	AssetTypeVideoClip     = "video_clip"
	AssetTypeVideoMicro    = "video_micro"
	AssetTypeVideoVertical = "video_vertical"
	AssetTypeStoryClip     = "story_clip"
	AssetTypeQuoteCard     = "quote_card"
	AssetTypeEmail         = "email"
	AssetTypeSocialPost    = "social_post"
	AssetTypeVisualImage   = "visual_image"
)

// PipelineState is the externally visible progress of one pipeline run. It is
// exclusively owned and mutated by the pipeline orchestrator for that run;
// status queries receive copies and never write back.
type PipelineState struct {
	Status          PipelineStatus `json:"status"`
	Stage           string         `json:"processing_stage"`  // Free-text stage descriptor; carries the error message on failure.
	ProgressPercent int            `json:"progress_percent"`  // Cumulative progress in [0,100].
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Project is the root entity for one uploaded testimonial video and the
// pipeline run that processes it.
type Project struct {
	Id              string    `json:"id" bigquery:"id"`
	CreateDate      time.Time `json:"created_at" bigquery:"create_date"`
	InputFilename   string    `json:"input_filename" bigquery:"input_filename"`
	SourcePath      string    `json:"-" bigquery:"-"` // Local path of the uploaded source; never exposed.
	ContentType     string    `json:"content_type" bigquery:"content_type"` // testimonial, case_study, founder_story.
	DurationSeconds int       `json:"duration_seconds" bigquery:"duration_seconds"`
	FileSizeMB      float64   `json:"file_size_mb" bigquery:"file_size_mb"`

	State PipelineState `json:"state" bigquery:"-"`
}

// NewProject creates a Project with a random identity, a creation timestamp,
// and a pending pipeline state.
func NewProject(inputFilename string, contentType string) *Project {
	return &Project{
		Id:            uuid.NewString(),
		CreateDate:    time.Now(),
		InputFilename: inputFilename,
		ContentType:   contentType,
		State: PipelineState{
			Status:    StatusPending,
			UpdatedAt: time.Now(),
		},
	}
}

// Moment is a persisted, ranked transcript excerpt selected as asset-worthy.
// Moments are owned by their project and immutable once created; downstream
// assets link back to them by MomentId.
type Moment struct {
	Id              string     `json:"id" bigquery:"id"`
	ProjectId       string     `json:"project_id" bigquery:"project_id"`
	CreateDate      time.Time  `json:"created_at" bigquery:"create_date"`
	Type            MomentType `json:"moment_type" bigquery:"moment_type"`
	StartTime       float64    `json:"start_time" bigquery:"start_time"` // Seconds.
	EndTime         float64    `json:"end_time" bigquery:"end_time"`     // Seconds.
	Transcript      string     `json:"transcript" bigquery:"transcript"`
	Summary         string     `json:"summary" bigquery:"summary"`
	SentimentScore  float64    `json:"sentiment_score" bigquery:"sentiment_score"`   // [-1,1]
	ImportanceScore float64    `json:"importance_score" bigquery:"importance_score"` // [0,1]
	QuotableText    string     `json:"quotable_text" bigquery:"quotable_text"`
	QuotableScore   float64    `json:"quotable_score" bigquery:"quotable_score"` // [0,1]
}

// NewMoment creates a Moment bound to the given project with a random
// identity and a creation timestamp.
func NewMoment(projectId string, momentType MomentType) *Moment {
	return &Moment{
		Id:         uuid.NewString(),
		ProjectId:  projectId,
		CreateDate: time.Now(),
		Type:       momentType,
	}
}

// Duration returns the moment's time span in seconds.
func (m *Moment) Duration() float64 {
	return m.EndTime - m.StartTime
}

// Asset is one generated output: a video clip variant, a text asset, or a
// visual. Video clip assets record the source slice they were cut from; text
// assets carry their content inline.
type Asset struct {
	Id         string    `json:"id" bigquery:"id"`
	ProjectId  string    `json:"project_id" bigquery:"project_id"`
	MomentId   string    `json:"moment_id,omitempty" bigquery:"moment_id"`
	CreateDate time.Time `json:"created_at" bigquery:"create_date"`
	Type       string    `json:"asset_type" bigquery:"asset_type"`

	Title       string `json:"title" bigquery:"title"`
	Description string `json:"description,omitempty" bigquery:"description"`
	Content     string `json:"content,omitempty" bigquery:"content"` // Inline body for text assets.

	// File fields, populated for binary assets only.
	LocalPath       string  `json:"-" bigquery:"local_path"`
	DurableURL      string  `json:"file_url,omitempty" bigquery:"durable_url"` // Set only when the durable upload succeeded or a local fallback URL was assigned.
	FileSizeMB      float64 `json:"file_size_mb,omitempty" bigquery:"file_size_mb"`
	DurationSeconds float64 `json:"duration_seconds,omitempty" bigquery:"duration_seconds"`
	Dimensions      string  `json:"dimensions,omitempty" bigquery:"dimensions"` // e.g. "480p", "720x1280".
	Format          string  `json:"format,omitempty" bigquery:"format"`

	// Source slice for clip assets.
	SourceStart    float64 `json:"source_start,omitempty" bigquery:"source_start"`
	SourceDuration float64 `json:"source_duration,omitempty" bigquery:"source_duration"`

	Status AssetStatus `json:"status" bigquery:"status"`
}

// NewAsset creates an Asset of the given type in the processing state.
func NewAsset(projectId string, momentId string, assetType string) *Asset {
	return &Asset{
		Id:         uuid.NewString(),
		ProjectId:  projectId,
		MomentId:   momentId,
		CreateDate: time.Now(),
		Type:       assetType,
		Status:     AssetProcessing,
	}
}
