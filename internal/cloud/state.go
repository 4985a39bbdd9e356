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

// Package cloud provides components for interacting with Google Cloud services.
// This file assembles the shared client container for the application. All
// external connections (Storage, Pub/Sub, GenAI, BigQuery, IAM signing) are
// created once at startup from the loaded configuration and handed around as
// a single `ServiceClients` value, a lightweight form of dependency
// injection that keeps client lifecycles in one place.
//
// Functions:
//   - NewCloudServiceClients: Creates and configures every client the
//     pipeline needs from the application configuration.
//   - Close: Gracefully shuts down the client connections.
package cloud

import (
	"context"
	"log/slog"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/genai"
)

// ServiceClients is the container for every external service connection the
// pipeline uses. It is created once at startup and shared by reference.
type ServiceClients struct {
	StorageClient   *storage.Client                         // Google Cloud Storage, for source ingest and clip upload.
	PubsubClient    *pubsub.Client                          // Pub/Sub, for upload notifications.
	GenAIClient     *genai.Client                           // Vertex AI generative models.
	BigQueryClient  *bigquery.Client                        // BigQuery, for moment and asset persistence.
	IAMClient       *credentials.IamCredentialsClient       // IAM credentials, used to sign GCS URLs.
	PubSubListeners map[string]*PubSubListener              // Active listeners, keyed by logical name from the config.
	AgentModels     map[string]*QuotaAwareGenerativeAIModel // Rate-limited LLMs, keyed by logical name.
}

// Close releases the client connections. Connections are normally tied to
// the root context, but tests and controlled shutdowns want this explicit.
func (c *ServiceClients) Close() {
	_ = c.StorageClient.Close()
	_ = c.PubsubClient.Close()
	_ = c.BigQueryClient.Close()
	if c.IAMClient != nil {
		_ = c.IAMClient.Close()
	}
}

// NewCloudServiceClients initializes every Google Cloud client from the
// application configuration.
//
// Inputs:
//   - ctx: The root context that owns the client lifecycles.
//   - config: The loaded application configuration.
//
// Outputs:
//   - *ServiceClients: The fully initialized container.
//   - error: The first client initialization failure.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	pc, err := pubsub.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  config.Application.GoogleProjectId,
		Location: config.Application.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		slog.Error("error creating genai client", "error", err)
		return nil, err
	}

	bc, err := bigquery.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	ic, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		return nil, err
	}

	// Listeners are created without a command; the workflows attach theirs
	// once the chains are assembled at server setup.
	subscriptions := make(map[string]*PubSubListener)
	for subKey := range config.TopicSubscriptions {
		values := config.TopicSubscriptions[subKey]
		actual, err := NewPubSubListener(pc, values.Name, nil)
		if err != nil {
			return nil, err
		}
		subscriptions[subKey] = actual
	}

	// Build each configured LLM, apply its generation settings, and wrap it
	// in the rate-limiting decorator.
	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	for amKey := range config.AgentModels {
		values := config.AgentModels[amKey]
		model := &genai.GenerateContentConfig{
			Temperature:       genai.Ptr[float32](values.Temperature),
			TopP:              genai.Ptr[float32](values.TopP),
			TopK:              genai.Ptr[float32](values.TopK),
			MaxOutputTokens:   values.MaxTokens,
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}},
			SafetySettings:    DefaultSafetySettings,
			ResponseMIMEType:  values.OutputFormat,
			Tools:             []*genai.Tool{},
		}
		agentModels[amKey] = NewQuotaAwareModel(model, values.Model, gc.Models, values.RateLimit)
	}

	cloud = &ServiceClients{
		StorageClient:   sc,
		PubsubClient:    pc,
		GenAIClient:     gc,
		BigQueryClient:  bc,
		IAMClient:       ic,
		PubSubListeners: subscriptions,
		AgentModels:     agentModels,
	}

	return cloud, err
}
