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

// Package test provides utility functions and mock data to support the application's
// test suite. It helps in setting up a consistent test environment, loading
// test-specific configurations, and providing sample transcripts and trigger
// messages for workflows and commands.
package test

import (
	"log"
	"os"
	"testing"

	"github.com/jaycherian/gcp-go-story-clips/internal/cloud"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
)

// StateManager acts as a simple in-memory cache for the application configuration
// during test runs. This prevents the need to reload configuration files for every
// test, speeding up the test suite.
type StateManager struct {
	config *cloud.Config
}

// state is a package-level variable that holds the singleton instance of StateManager,
// ensuring that the configuration is loaded only once per test run.
var state = &StateManager{}

// HandleErr is a simple test helper function that checks if an error is not nil.
// If an error exists, it fails the test immediately by calling t.Errorf.
// This is a convenience function to reduce boilerplate error-checking code in tests.
//
// Inputs:
//   - err: The error to check.
//   - t: The *testing.T object from the current test.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("Error reading config file: %v", err)
	}
}

// GetTestUploadMessageText returns a hardcoded JSON string that simulates a
// Pub/Sub notification message from Google Cloud Storage for a testimonial
// video finalized in the ingest bucket. This mock data is used to test the
// ingest workflow trigger.
//
// Returns:
//   - A string containing the JSON payload of a GCS notification.
func GetTestUploadMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "story_clip_uploads/testimonial/acme-launch.mp4/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/story_clip_uploads/o/testimonial%2Facme-launch.mp4",
  "name": "testimonial/acme-launch.mp4",
  "bucket": "story_clip_uploads",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "video/mp4",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "timeStorageClassUpdated": "2024-10-11T03:04:08.672Z",
  "size": "259348037",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/story_clip_uploads/o/testimonial%2Facme-launch.mp4?generation=1728615848664286&alt=media",
  "metadata": { "touch": "18" },
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
	}`
}

// GetTestTranscript returns a small testimonial transcript whose segments
// walk the canonical problem -> agitation -> solution -> proof -> emotion
// -> call-to-action beats, so beat detection and arc assembly both fire on
// it. Commands and workflow tests share it so expectations stay consistent.
func GetTestTranscript() *model.Transcript {
	segments := []*model.TranscriptSegment{
		{Start: 0.0, End: 6.5, Text: "We were struggling with manual reporting, it was a hard problem for the whole team."},
		{Start: 6.5, End: 13.0, Text: "Every week we were wasting hours, and it was constantly costing us time and money."},
		{Start: 13.0, End: 20.0, Text: "Then we started using the new dashboard and decided to roll it out across the whole company."},
		{Start: 20.0, End: 27.5, Text: "The results were amazing, we achieved a 40% increase in productivity and saved thousands of dollars."},
		{Start: 27.5, End: 34.0, Text: "I love this product, we are so happy and grateful, it is incredible for our business."},
		{Start: 34.0, End: 39.0, Text: "I would recommend it to anyone, you should definitely try it for yourself."},
	}
	full := ""
	for i, s := range segments {
		if i > 0 {
			full += " "
		}
		full += s.Text
	}
	return &model.Transcript{
		FullText: full,
		Language: "en",
		Segments: segments,
	}
}

// GetTestMoments returns ranked moments matching the test transcript, in
// the shape the moment selector produces on its primary path.
func GetTestMoments(projectId string) []*model.Moment {
	result := model.NewMoment(projectId, model.MomentResult)
	result.StartTime = 20.0
	result.EndTime = 27.5
	result.Transcript = "The results were amazing, we achieved a 40% increase in productivity and saved thousands of dollars."
	result.Summary = "Quantified productivity gains"
	result.SentimentScore = 0.9
	result.ImportanceScore = 0.95
	result.QuotableText = "We achieved a 40% increase in productivity."
	result.QuotableScore = 0.9

	peak := model.NewMoment(projectId, model.MomentEmotionalPeak)
	peak.StartTime = 27.5
	peak.EndTime = 34.0
	peak.Transcript = "I love this product, we are so happy and grateful, it is incredible for our business."
	peak.Summary = "Strong emotional endorsement"
	peak.SentimentScore = 0.95
	peak.ImportanceScore = 0.85
	peak.QuotableText = "We are so happy and grateful, it is incredible for our business."
	peak.QuotableScore = 0.8

	problem := model.NewMoment(projectId, model.MomentProblem)
	problem.StartTime = 0.0
	problem.EndTime = 6.5
	problem.Transcript = "We were struggling with manual reporting, it was a hard problem for the whole team."
	problem.Summary = "Manual reporting pain"
	problem.SentimentScore = -0.6
	problem.ImportanceScore = 0.7
	problem.QuotableText = "We were struggling with manual reporting."
	problem.QuotableScore = 0.55

	return []*model.Moment{result, peak, problem}
}

// SetupOS configures the necessary environment variables that the configuration
// loader (`cloud.LoadConfig`) depends on. By setting these variables, we can
// direct the loader to use the test-specific configuration files (e.g.,
// `configs/.env.test.toml`) instead of production or development ones.
//
// Returns:
//   - An error if setting any environment variable fails.
func SetupOS() (err error) {
	// Set the directory where the configuration files are located.
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	// Set the runtime environment identifier to "test". This causes the loader
	// to look for a file named ".env.test.toml" for overrides.
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration.
// It ensures that the configuration is loaded from TOML files only once and
// is cached in the package-level `state` variable for subsequent calls.
// This is the primary way tests should retrieve their configuration.
//
// Returns:
//   - A pointer to the loaded and cached cloud.Config struct.
func GetConfig() *cloud.Config {
	// Check if the config is already cached.
	if state.config == nil {
		// If not cached, set up the OS environment for the test configuration.
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		// Create a new, empty config struct.
		config := cloud.NewConfig()
		// Load the configuration from the TOML files into the struct.
		// `LoadConfig` handles the hierarchical loading (base file + test override).
		cloud.LoadConfig(&config)
		// Cache the loaded config in our state manager.
		state.config = config
	}
	// Return the cached configuration.
	return state.config
}
