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
// This file contains utility functions supporting the package: the layered
// TOML configuration loader and a resilient wrapper for generative model
// calls.
//
// Functions:
//   - LoadConfig: Hierarchical configuration loading. A base file is read
//     first, then an environment-specific file (selected by the GCP_RUNTIME
//     environment variable) overrides it value by value.
//   - GenerateResponse: Calls a GenAI model with retry and token-usage
//     telemetry.
//   - NewTextPart, NewFileData: Small factories for prompt parts.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"go.opentelemetry.io/otel/metric"

	"github.com/BurntSushi/toml"
	"google.golang.org/genai"
)

// Configuration loading constants and API retry policy.
const (
	ConfigFileBaseName  = ".env"              // Base name for configuration files (".env.toml").
	ConfigFileExtension = ".toml"             // Extension for configuration files.
	ConfigSeparator     = "."                 // Separator in override names (".env.local.toml").
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // Env var naming the config directory.
	EnvConfigRuntime    = "GCP_RUNTIME"       // Env var naming the runtime ("local", "test", "prod").
	MaxRetries          = 3                   // Max attempts for a failed model call.
)

// fileExists reports whether a file or directory exists at the path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig populates baseConfig from the layered TOML files: the base
// file first, then the runtime-specific override if present. Both paths are
// derived from environment variables so the same binary serves local, test,
// and production runs.
//
// Inputs:
//   - baseConfig: A pointer to the configuration struct to populate.
func LoadConfig(baseConfig interface{}) {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension

	if fileExists(baseConfigFileName) {
		_, err := toml.DecodeFile(baseConfigFileName, baseConfig)
		if err != nil {
			log.Fatalf("failed to decode base configuration file %s with error: %s", baseConfigFileName, err)
		}
	}

	// Values in the runtime file overwrite the base values.
	if fileExists(envConfigFileName) {
		_, err := toml.DecodeFile(envConfigFileName, baseConfig)
		if err != nil {
			log.Fatalf("failed to decode environment configuration file: %s with error: %s", envConfigFileName, err)
		}
	}
}

// GenerateResponse executes a request against a rate-limited generative
// model with bounded retries, recording token usage and retry counts on the
// provided counters. Markdown code fences around a JSON body are stripped
// from the returned text, since models wrap structured output that way.
//
// Inputs:
//   - ctx: The request context, carrying cancellation and tracing.
//   - inputTokenCounter: Counter for prompt tokens consumed.
//   - outputTokenCounter: Counter for response tokens generated.
//   - retryCounter: Counter incremented once per retry.
//   - tryCount: The current attempt number, starting at 0.
//   - model: The quota-aware model to call.
//   - content: The prompt content.
//
// Outputs:
//   - string: The concatenated text of the model's response.
//   - error: The final error after retries are exhausted.
func GenerateResponse(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	retryCounter metric.Int64Counter,
	tryCount int,
	model *QuotaAwareGenerativeAIModel,
	content []*genai.Content) (value string, err error) {
	resp, err := model.GenerateContent(ctx, content)

	if err != nil {
		if tryCount < MaxRetries {
			retryCounter.Add(ctx, 1)
			return GenerateResponse(ctx, inputTokenCounter, outputTokenCounter, retryCounter, tryCount+1, model, content)
		}
		return "", err
	}
	inputTokenCounter.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
	outputTokenCounter.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))

	value = ""
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				value += fmt.Sprint(part.Text)
			}
		}
	}
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "```json")
	value = strings.TrimSuffix(value, "```")
	return value, nil
}

// NewTextPart creates the content slice for a plain text prompt.
func NewTextPart(in string) []*genai.Content {
	return genai.Text(in)
}

// NewFileData creates a file reference part for a multi-modal prompt.
//
// Inputs:
//   - in: The file URI (e.g. a GCS path).
//   - mimeType: The file's MIME type (e.g. "video/mp4").
func NewFileData(in string, mimeType string) genai.FileData {
	return genai.FileData{FileURI: in, MIMEType: mimeType}
}
