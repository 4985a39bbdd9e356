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
// command that sources stock imagery to accompany the best quotes: it
// derives a search query from the moment text and asks the stock photo
// search API for matching images, recording each hit as a visual asset.
//
// Visual sourcing is decorative. The orchestrator runs it as a
// non-critical stage, and a missing access key simply skips the stage.
package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-story-clips/internal/cloud"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
)

// queryStopwords are skipped when deriving a search query from quote text.
var queryStopwords = map[string]bool{
	"the": true, "and": true, "that": true, "this": true, "with": true,
	"was": true, "were": true, "have": true, "had": true, "our": true,
	"your": true, "their": true, "for": true, "from": true, "they": true,
	"just": true, "really": true, "very": true, "when": true, "what": true,
}

// maxQueryTerms bounds the derived search query length.
const maxQueryTerms = 3

// VisualSearchCommand finds stock imagery matching the strongest quote.
type VisualSearchCommand struct {
	cor.BaseCommand
	config *cloud.Config
	client *http.Client
}

// NewVisualSearchCommand is the constructor for the visual sourcing step.
func NewVisualSearchCommand(name string, config *cloud.Config) *VisualSearchCommand {
	timeout := time.Duration(config.VisualSearch.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &VisualSearchCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		config:      config,
		client:      &http.Client{Timeout: timeout},
	}
}

// IsExecutable requires the project and a non-empty moment list.
func (c *VisualSearchCommand) IsExecutable(context cor.Context) bool {
	return context.Get(CtxProject) != nil && context.Get(CtxMoments) != nil
}

// Execute searches for stock images matching the most quotable moment and
// records each result as a visual_image asset.
func (c *VisualSearchCommand) Execute(context cor.Context) {
	project := context.Get(CtxProject).(*model.Project)
	moments := context.Get(CtxMoments).([]*model.Moment)

	if c.config.VisualSearch.AccessKey == "" {
		slog.Info("no visual search access key configured, skipping", "project", project.Id)
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		return
	}

	best := mostQuotable(moments)
	if best == nil {
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		return
	}

	query := deriveQuery(best.QuotableText)
	photos, err := c.search(context, query)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	assets := existingAssets(context)
	for _, photo := range photos {
		asset := model.NewAsset(project.Id, best.Id, model.AssetTypeVisualImage)
		asset.Title = fmt.Sprintf("Stock Visual: %s", query)
		asset.Description = photo.AltDescription
		asset.DurableURL = photo.Urls.Regular
		asset.Format = "image"
		asset.Status = model.AssetCompleted
		assets = append(assets, asset)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(CtxAssets, assets)
	context.Add(cor.CtxOut, assets)
}

// stockPhoto mirrors one result from the stock photo search response.
type stockPhoto struct {
	AltDescription string `json:"alt_description"`
	Urls           struct {
		Regular string `json:"regular"`
	} `json:"urls"`
}

// search calls the stock photo API and returns the matching photos.
func (c *VisualSearchCommand) search(context cor.Context, query string) ([]stockPhoto, error) {
	perPage := c.config.VisualSearch.PerPage
	if perPage <= 0 {
		perPage = 3
	}

	endpoint := fmt.Sprintf("%s/search/photos?query=%s&per_page=%d&orientation=landscape",
		strings.TrimRight(c.config.VisualSearch.BaseURL, "/"),
		url.QueryEscape(query), perPage)

	req, err := http.NewRequestWithContext(context.GetContext(), http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &model.ExternalServiceError{Service: "visual_search", Err: err}
	}
	req.Header.Set("Authorization", fmt.Sprintf("Client-ID %s", c.config.VisualSearch.AccessKey))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &model.ExternalServiceError{Service: "visual_search", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.ExternalServiceError{
			Service: "visual_search",
			Err:     fmt.Errorf("search returned status %d", resp.StatusCode),
		}
	}

	var payload struct {
		Results []stockPhoto `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &model.ExternalServiceError{Service: "visual_search", Err: err}
	}
	return payload.Results, nil
}

// mostQuotable returns the moment with the highest quotable score, nil for
// an empty input.
func mostQuotable(moments []*model.Moment) *model.Moment {
	if len(moments) == 0 {
		return nil
	}
	ranked := make([]*model.Moment, len(moments))
	copy(ranked, moments)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].QuotableScore > ranked[j].QuotableScore
	})
	return ranked[0]
}

// deriveQuery picks the most distinctive words from the quote text as a
// search query, falling back to a generic testimonial query.
func deriveQuery(text string) string {
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?\"'")
		if len(word) < 4 || queryStopwords[word] {
			continue
		}
		terms = append(terms, word)
		if len(terms) == maxQueryTerms {
			break
		}
	}
	if len(terms) == 0 {
		return "happy customer"
	}
	return strings.Join(terms, " ")
}
