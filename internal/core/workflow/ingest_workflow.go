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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements
// the ingest workflow: the entry point triggered when a source video lands
// in the input bucket.
//
// Logic Flow:
//  1. Parse the GCS Pub/Sub notification into an object reference.
//  2. Create and register a Project for the upload.
//  3. Stage the source video into the project's local work directory.
//  4. Probe the source duration and record it on the project.
//  5. Hand the project to the clip pipeline, which runs to completion.
//
// The workflow is itself a command, so the Pub/Sub listener drives it
// directly: a clean Execute acks the message, recorded errors leave it
// unacked for redelivery.
package workflow

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"cloud.google.com/go/storage"

	"github.com/jaycherian/gcp-go-story-clips/internal/cloud"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/commands"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/services"
)

// IngestWorkflow turns an upload notification into a registered project
// and a completed (or failed) pipeline run.
type IngestWorkflow struct {
	cor.BaseCommand
	config        *cloud.Config
	registry      *services.ProjectRegistry
	encoder       commands.MediaEncoder
	storageClient *storage.Client
	clipPipeline  *ClipPipelineWorkflow
}

// NewIngestWorkflow is the constructor for the ingest workflow.
//
// Inputs:
//   - config: The application's overall configuration.
//   - serviceClients: Initialized clients for GCP services.
//   - registry: The project registry new projects are placed in.
//   - clipPipeline: The pipeline each ingested project is run through.
func NewIngestWorkflow(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	registry *services.ProjectRegistry,
	clipPipeline *ClipPipelineWorkflow) *IngestWorkflow {

	return &IngestWorkflow{
		BaseCommand:   *cor.NewBaseCommand("ingest-workflow"),
		config:        config,
		registry:      registry,
		encoder:       commands.NewEncoder(config.Encoder),
		storageClient: serviceClients.StorageClient,
		clipPipeline:  clipPipeline,
	}
}

// Execute registers a project for the triggering upload, stages the source
// locally, and runs the clip pipeline to completion.
func (w *IngestWorkflow) Execute(context cor.Context) {
	raw := context.Get(w.GetInputParam()).(string)

	// Parse the trigger first so the project can be named after the
	// uploaded file.
	trigger := commands.NewUploadTriggerToGCSObject("parse-upload-trigger")
	context.Add(trigger.GetInputParam(), raw)
	trigger.Execute(context)
	if context.HasErrors() {
		return
	}
	obj := context.Get(cloud.GetGCSObjectName()).(*cloud.GCSObject)

	project := model.NewProject(filepath.Base(obj.Name), contentTypeForObject(w.config, obj))
	w.registry.Put(project)
	w.registry.UpdateState(project.Id, model.StatusProcessing, "staging_source", 5)
	context.Add(commands.CtxProject, project)

	stage := commands.NewSourceToWorkDir(
		"stage-source-video",
		w.storageClient,
		w.config.Storage.LocalWorkDir)
	stage.Execute(context)
	if context.HasErrors() {
		err := firstContextError(context)
		w.registry.UpdateState(project.Id, model.StatusFailed, "Upload error: "+err.Error(), 5)
		return
	}

	localPath, _ := context.Get(commands.CtxSourceFile).(string)
	sizeMB, _ := context.Get(commands.CtxSourceSizeMB).(float64)
	w.registry.SetSourceMetadata(project.Id, localPath, sizeMB)

	if seconds, err := w.encoder.ProbeDuration(context.GetContext(), localPath); err == nil {
		w.registry.SetDuration(project.Id, int(seconds))
	} else {
		slog.Warn("unable to probe source duration", "project", project.Id, "error", err)
	}

	w.GetSuccessCounter().Add(context.GetContext(), 1)
	if err := w.clipPipeline.Run(context.GetContext(), project); err != nil {
		slog.Error("pipeline run failed", "project", project.Id, "error", err)
	}
}

// contentTypeForObject chooses a configured content type for the upload.
// Uploads land under a per-type prefix (e.g. "testimonial/video.mp4");
// anything else is treated as a testimonial.
func contentTypeForObject(config *cloud.Config, obj *cloud.GCSObject) string {
	prefix := filepath.Dir(obj.Name)
	if _, ok := config.ContentTypes[prefix]; ok {
		return prefix
	}
	return "testimonial"
}

func firstContextError(context cor.Context) error {
	for _, err := range context.GetErrors() {
		return err
	}
	return fmt.Errorf("unknown error")
}
