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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files. It provides a structured way to manage settings
// for the clip pipeline's collaborators: Google Cloud services, the
// generative AI models used for moment identification, the external
// encoder and transcriber binaries, and the stock visual search.
//
// Structs:
//   - BigQueryDataSource: Dataset and table names for moment/asset persistence.
//   - PromptTemplates: Text templates for prompts sent to GenAI models.
//   - VertexAiLLMModel: Configuration for one Vertex AI LLM.
//   - TopicSubscription: Configuration for a single Pub/Sub subscription.
//   - Storage: Bucket names, local working directory, and clip URL settings.
//   - Encoder: External encoder binary paths, timeout, and cooldown.
//   - Transcriber: Speech-to-text binary and model settings.
//   - VisualSearch: Stock image search endpoint settings.
//   - ContentType: A testimonial category with optional prompt overrides.
//   - Config: The top-level aggregate.
//
// Functions:
//   - NewConfig: Constructor that initializes the map fields.
package cloud

import "google.golang.org/genai"

// DefaultSafetySettings holds the content safety thresholds applied to
// every GenAI model. Testimonial footage is trusted first-party input, so
// all categories are left unblocked.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// BigQueryDataSource names the dataset and tables the pipeline persists
// moments and generated assets into.
type BigQueryDataSource struct {
	DatasetName string `toml:"dataset"`      // The BigQuery dataset name.
	MomentTable string `toml:"moment_table"` // The table holding identified moments.
	AssetTable  string `toml:"asset_table"`  // The table holding generated asset records.
}

// PromptTemplates holds the prompt text sent to the GenAI models.
type PromptTemplates struct {
	MomentPrompt string `toml:"moments"` // The template for moment identification over a transcript.
}

// VertexAiLLMModel represents the configuration for a Vertex AI large language model (LLM).
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`               // The name of the Vertex AI LLM.
	SystemInstructions string  `toml:"system_instructions"` // The system instructions for the LLM.
	Temperature        float32 `toml:"temperature"`         // The temperature parameter for the LLM.
	TopP               float32 `toml:"top_p"`               // The top_p parameter for the LLM.
	TopK               float32 `toml:"top_k"`               // The top_k parameter for the LLM.
	MaxTokens          int32   `toml:"max_tokens"`          // The maximum number of tokens for the LLM output.
	OutputFormat       string  `toml:"output_format"`       // The desired output format for the LLM.
	RateLimit          int     `toml:"rate_limit"`          // The rate limit for the LLM in requests per second.
}

// TopicSubscription represents the configuration for a Pub/Sub topic subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The name of the Pub/Sub subscription.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // The name of the dead-letter topic for the subscription.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // The timeout for the subscription in seconds.
}

// Storage holds the bucket names and local paths the pipeline reads from
// and writes to.
type Storage struct {
	InputBucket      string `toml:"input_bucket"`        // The bucket uploaded source videos land in.
	ClipOutputBucket string `toml:"clip_output_bucket"`  // The bucket finished clips are uploaded to.
	LocalWorkDir     string `toml:"local_work_dir"`      // Scratch directory for normalization and encoding.
	LocalClipBaseURL string `toml:"local_clip_base_url"` // Base path for locally served clips when upload fails.
}

// Encoder configures the external encoder and probe binaries.
type Encoder struct {
	BinaryPath           string `toml:"binary_path"`           // Path to the encoder binary (ffmpeg).
	ProbeBinaryPath      string `toml:"probe_binary_path"`     // Path to the probe binary (ffprobe).
	TimeoutInSeconds     int    `toml:"timeout_in_seconds"`    // Hard wall-clock bound on a single invocation.
	CooldownMilliseconds int    `toml:"cooldown_milliseconds"` // Pause after each successful invocation.
}

// Transcriber configures the external speech-to-text binary.
type Transcriber struct {
	BinaryPath string `toml:"binary_path"` // Path to the transcriber binary (whisper).
	Model      string `toml:"model"`       // Model size to load (e.g. "base").
	Language   string `toml:"language"`    // Expected language, empty for auto-detect.
}

// VisualSearch configures the stock image search collaborator used for the
// optional visual asset stage.
type VisualSearch struct {
	BaseURL    string `toml:"base_url"`     // The search API endpoint.
	AccessKey  string `toml:"access_key"`   // API credential.
	PerPage    int    `toml:"per_page"`     // Results requested per query.
	TimeoutSec int    `toml:"timeout_sec"`  // HTTP timeout for one search call.
}

// ContentType defines a category of source video (testimonial, case study,
// founder story) and allows per-category overrides of the moment prompt or
// system instructions.
type ContentType struct {
	Name               string `toml:"name"`                // The user-friendly name (e.g. "Testimonial").
	Definition         string `toml:"definition"`          // A short description of the category.
	SystemInstructions string `toml:"system_instructions"` // Optional LLM system instruction override.
	MomentPrompt       string `toml:"moments"`             // Optional moment prompt template override.
}

// Config is the root configuration container, populated from the layered
// TOML files by LoadConfig.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name                      string `toml:"name"`                         // The name of the application.
		GoogleProjectId           string `toml:"google_project_id"`            // The Google Cloud project ID.
		GoogleLocation            string `toml:"location"`                     // The Google Cloud location.
		SignerServiceAccountEmail string `toml:"signer_service_account_email"` // Service account used to sign GCS URLs.
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`               // Buckets and local paths.
	Encoder            Encoder                      `toml:"encoder"`               // External encoder settings.
	Transcriber        Transcriber                  `toml:"transcriber"`           // Speech-to-text settings.
	VisualSearch       VisualSearch                 `toml:"visual_search"`         // Stock image search settings.
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"` // Persistence tables.
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`      // GenAI prompt templates.
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`   // Pub/Sub subscriptions, keyed by logical name.
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models"`          // LLM configurations, keyed by logical name.
	ContentTypes       map[string]ContentType       `toml:"content_types"`         // Source categories, keyed by logical name.
}

// NewConfig creates an initialized Config. The maps must be non-nil before
// the TOML decoder populates them.
func NewConfig() *Config {
	return &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]VertexAiLLMModel),
		ContentTypes:       make(map[string]ContentType),
	}
}
