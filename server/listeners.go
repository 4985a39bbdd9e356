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

// Package main contains the logic for setting up and starting the Pub/Sub message listeners.
// These listeners are responsible for initiating backend processing in response to events,
// such as new source videos landing in the ingest bucket.
//
// Functions:
//   - SetupListeners: Initializes and starts the listener for the upload
//     topic, attaching the ingest workflow that stages the source and runs
//     the clip pipeline.
package main

import (
	"context"

	"github.com/jaycherian/gcp-go-story-clips/internal/cloud"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/services"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/workflow"
)

// SetupListeners configures and starts the background Pub/Sub listeners.
// It creates the ingest workflow and attaches it to the upload topic
// listener, so videos dropped directly into the input bucket are processed
// the same way as videos arriving through the HTTP upload endpoint.
//
// Inputs:
//   - config: The application's configuration, containing settings for storage, topics, etc.
//   - cloudClients: A struct containing all the initialized Google Cloud service clients.
//   - registry: The shared project registry the ingest workflow records projects in.
//   - clipPipeline: The pipeline workflow each ingested project is run through.
//   - ctx: The application's root context, used to manage the lifecycle of the listeners.
//
// Outputs:
//   - This function does not return any value. It starts the listeners as background goroutines.
func SetupListeners(
	config *cloud.Config,
	cloudClients *cloud.ServiceClients,
	registry *services.ProjectRegistry,
	clipPipeline *workflow.ClipPipelineWorkflow,
	ctx context.Context) {

	// Create the ingest workflow: trigger parse -> project registration ->
	// source staging -> pipeline run.
	ingest := workflow.NewIngestWorkflow(config, cloudClients, registry, clipPipeline)

	// Assign the ingest workflow as the command executed for each upload
	// notification, then start receiving.
	cloudClients.PubSubListeners["UploadTopic"].SetCommand(ingest)
	cloudClients.PubSubListeners["UploadTopic"].Listen(ctx)
}
