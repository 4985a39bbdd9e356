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
// This file decorates the generative model client with quota awareness.
// Vertex AI enforces per-minute request quotas, and transient failures are
// a fact of life on any network call, so every model the pipeline talks to
// goes through this wrapper: a token-bucket rate limiter in front, bounded
// retries behind.
package cloud

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ctxKey is a private type for context values set by this package.
type ctxKey string

const retryCountKey ctxKey = "retry"

// QuotaAwareGenerativeAIModel wraps one configured generative model with a
// rate limiter. Callers use GenerateContent exactly as they would on the
// raw client.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig // Generation settings applied to every call.
	ModelName               string                       // The Vertex AI model identifier.
	ModelHandle             *genai.Models                // The underlying model API surface.
	RateLimit               rate.Limiter                 // Token bucket controlling request frequency.
}

// NewQuotaAwareModel wraps a configured model with a limiter allowing a
// burst of requestsPerSecond calls, replenished once per second.
func NewQuotaAwareModel(wrapped *genai.GenerateContentConfig, name string, modelHandle *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: wrapped,
		ModelName:               name,
		ModelHandle:             modelHandle,
		RateLimit:               *rate.NewLimiter(rate.Every(time.Second/1), requestsPerSecond),
	}
}

// GenerateContent calls the underlying model under the rate limit.
//
// Logic Flow:
//  1. If the limiter has a token, call the model.
//  2. On failure, retry up to three times, sleeping a minute between
//     attempts to let the service recover; the attempt count rides on the
//     context.
//  3. If the limiter is empty, wait five seconds and re-enter, which
//     effectively queues the request.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (resp *genai.GenerateContentResponse, err error) {
	if q.RateLimit.Allow() {
		resp, err = q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
		if err != nil {
			retryCount, ok := ctx.Value(retryCountKey).(int)
			if !ok {
				retryCount = 0
			}
			if retryCount > 3 {
				return nil, errors.New("failed generation on max retries")
			}
			errCtx := context.WithValue(ctx, retryCountKey, retryCount+1)
			time.Sleep(time.Minute * 1)
			return q.GenerateContent(errCtx, content)
		}
		return resp, err
	}
	time.Sleep(time.Second * 5)
	return q.GenerateContent(ctx, content)
}
