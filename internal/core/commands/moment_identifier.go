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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command that asks the generative model to identify the key moments in a
// transcript.
//
// Logic Flow:
//  1. Receive the transcript from the previous command in the chain.
//  2. Build the moment-identification prompt from a Go template, injecting
//     the transcript text and a complete example of the expected JSON
//     output (few-shot prompting keeps the response shape stable).
//  3. Send the prompt to the rate-limited generative model.
//  4. Publish the raw JSON response for MomentSelector to validate.
//
// A model failure here is deliberately NOT recorded as a chain error: the
// selector downstream treats a missing response as the trigger for its
// heuristic fallback path, so the run degrades instead of failing.
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"text/template"

	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-story-clips/internal/cloud"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
)

// MomentIdentifier is a command that uses a generative model to locate the
// asset-worthy moments in a testimonial transcript.
type MomentIdentifier struct {
	cor.BaseCommand
	config                   *cloud.Config                      // Application configuration, used for prompt templating.
	generativeAIModel        *cloud.QuotaAwareGenerativeAIModel // The rate-limited generative model client.
	template                 *template.Template                 // The Go template for building the prompt.
	geminiInputTokenCounter  metric.Int64Counter                // OTel counter for input tokens.
	geminiOutputTokenCounter metric.Int64Counter                // OTel counter for output tokens.
	geminiRetryCounter       metric.Int64Counter                // OTel counter for retries.
}

// NewMomentIdentifier is the constructor for the MomentIdentifier command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - config: The application's configuration object.
//   - generativeAIModel: The rate-limited wrapper for the generative model client.
//   - template: A parsed Go template for the moment prompt.
func NewMomentIdentifier(
	name string,
	config *cloud.Config,
	generativeAIModel *cloud.QuotaAwareGenerativeAIModel,
	template *template.Template) *MomentIdentifier {

	out := &MomentIdentifier{
		BaseCommand:       *cor.NewBaseCommand(name),
		config:            config,
		generativeAIModel: generativeAIModel,
		template:          template}

	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))
	out.geminiRetryCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.retry", out.GetName()))

	return out
}

// GenerateParams creates the map of dynamic data injected into the prompt
// template.
func (t *MomentIdentifier) GenerateParams(context cor.Context) map[string]interface{} {
	params := make(map[string]interface{})

	transcript := context.Get(t.GetInputParam()).(*model.Transcript)
	params["TRANSCRIPT"] = transcript.FullText

	// Describe the configured content types so the model can calibrate
	// what counts as a key moment for this kind of video.
	typeStr := ""
	for key, ct := range t.config.ContentTypes {
		typeStr += fmt.Sprintf("%s - %s; ", key, ct.Definition)
	}
	params["CONTENT_TYPES"] = typeStr

	// A complete, well-formed JSON example anchors the response structure.
	exampleMoments, _ := json.Marshal(model.GetExampleMoments())
	params["EXAMPLE_JSON"] = string(exampleMoments)
	return params
}

// Execute prompts the generative model with the transcript. On failure it
// publishes an empty response rather than an error so the selector can
// fall back to the heuristic path.
func (t *MomentIdentifier) Execute(context cor.Context) {
	var buffer bytes.Buffer
	err := t.template.Execute(&buffer, t.GenerateParams(context))
	if err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to execute prompt template: %w", err))
		return
	}

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{{Text: buffer.String()}},
			Role:  "user",
		},
	}

	out, err := cloud.GenerateResponse(
		context.GetContext(),
		t.geminiInputTokenCounter,
		t.geminiOutputTokenCounter,
		t.geminiRetryCounter,
		0,
		t.generativeAIModel,
		contents)
	if err != nil {
		slog.Warn("moment identification failed, selector will use the heuristic fallback",
			"command", t.GetName(), "error", err)
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.Add(t.GetOutputParam(), "")
		return
	}

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), out)
}
