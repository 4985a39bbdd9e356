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

// This file exercises the visual sourcing command against a stubbed stock
// photo API: query derivation, authorization, asset recording, the
// missing-key skip, and upstream error reporting.
package commands_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jaycherian/gcp-go-story-clips/internal/cloud"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/commands"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
	test "github.com/jaycherian/gcp-go-story-clips/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func visualSearchConfig(baseURL string, accessKey string) *cloud.Config {
	config := cloud.NewConfig()
	config.VisualSearch.BaseURL = baseURL
	config.VisualSearch.AccessKey = accessKey
	config.VisualSearch.PerPage = 2
	config.VisualSearch.TimeoutSec = 5
	return config
}

func newVisualContext(t *testing.T, project *model.Project, moments []*model.Moment) cor.Context {
	t.Helper()
	corCtx := cor.NewBaseContext()
	corCtx.SetContext(context.Background())
	corCtx.Add(commands.CtxProject, project)
	corCtx.Add(commands.CtxMoments, moments)
	return corCtx
}

// TestVisualSearchRecordsImageAssets verifies the command queries the API
// with terms derived from the best quote and records one visual asset per
// result.
func TestVisualSearchRecordsImageAssets(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [
			{"alt_description": "team at work", "urls": {"regular": "https://img.example/one"}},
			{"alt_description": "office dashboard", "urls": {"regular": "https://img.example/two"}}
		]}`))
	}))
	defer server.Close()

	project := model.NewProject("acme-launch.mp4", "testimonial")
	moments := test.GetTestMoments(project.Id)
	cmd := commands.NewVisualSearchCommand("source-visuals", visualSearchConfig(server.URL, "test-key"))
	corCtx := newVisualContext(t, project, moments)
	cmd.Execute(corCtx)

	assert.False(t, corCtx.HasErrors())
	assert.Equal(t, "/search/photos", gotPath)
	// The query is built from the most quotable moment's distinctive words.
	assert.Equal(t, "achieved increase productivity", gotQuery)
	assert.Equal(t, "Client-ID test-key", gotAuth)

	assets, ok := corCtx.Get(cor.CtxOut).([]*model.Asset)
	assert.True(t, ok)
	assert.Len(t, assets, 2)
	for _, a := range assets {
		assert.Equal(t, model.AssetTypeVisualImage, a.Type)
		assert.Equal(t, model.AssetCompleted, a.Status)
		assert.Equal(t, moments[0].Id, a.MomentId)
	}
	assert.Equal(t, "https://img.example/one", assets[0].DurableURL)
	assert.Equal(t, "team at work", assets[0].Description)
}

// TestVisualSearchSkipsWithoutAccessKey verifies an unconfigured access key
// skips the stage cleanly without touching the network.
func TestVisualSearchSkipsWithoutAccessKey(t *testing.T) {
	project := model.NewProject("acme-launch.mp4", "testimonial")
	cmd := commands.NewVisualSearchCommand("source-visuals", visualSearchConfig("http://127.0.0.1:0", ""))
	corCtx := newVisualContext(t, project, test.GetTestMoments(project.Id))
	cmd.Execute(corCtx)

	assert.False(t, corCtx.HasErrors())
	assert.Nil(t, corCtx.Get(cor.CtxOut))
}

// TestVisualSearchUpstreamErrorReported verifies a non-200 response surfaces
// as an external service error for the orchestrator to absorb.
func TestVisualSearchUpstreamErrorReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	project := model.NewProject("acme-launch.mp4", "testimonial")
	cmd := commands.NewVisualSearchCommand("source-visuals", visualSearchConfig(server.URL, "test-key"))
	corCtx := newVisualContext(t, project, test.GetTestMoments(project.Id))
	cmd.Execute(corCtx)

	assert.True(t, corCtx.HasErrors())
	assert.Nil(t, corCtx.Get(cor.CtxOut))
}
