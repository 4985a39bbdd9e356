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
// command that derives the text asset set from the selected moments: quote
// cards for the most quotable moments, an outreach email built around the
// best quote, and per-platform social captions.
package commands

import (
	"fmt"
	"sort"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
)

// MaxQuoteCards bounds how many quote card assets are generated.
const MaxQuoteCards = 3

// Per-platform caption length limits.
const (
	twitterCaptionLimit   = 280
	linkedinCaptionLimit  = 200
	instagramCaptionLimit = 150
)

const emailTemplate = `Subject: See what our clients are saying

Hi [First Name],

I wanted to share a quick note from one of our clients:

"%s"

%s

If you're ready to experience similar results, let's talk.

Best regards,
[Your Name]`

// TextAssetGenerator is a command that produces the text assets for a run.
type TextAssetGenerator struct {
	cor.BaseCommand
}

// NewTextAssetGenerator is the constructor for the text asset step.
func NewTextAssetGenerator(name string) *TextAssetGenerator {
	return &TextAssetGenerator{BaseCommand: *cor.NewBaseCommand(name)}
}

// IsExecutable requires the project and a non-empty moment list.
func (c *TextAssetGenerator) IsExecutable(context cor.Context) bool {
	return context.Get(CtxProject) != nil && context.Get(c.GetInputParam()) != nil
}

// Execute appends the generated text assets to the run's asset set.
func (c *TextAssetGenerator) Execute(context cor.Context) {
	project := context.Get(CtxProject).(*model.Project)
	moments := context.Get(c.GetInputParam()).([]*model.Moment)

	ranked := make([]*model.Moment, len(moments))
	copy(ranked, moments)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].QuotableScore > ranked[j].QuotableScore
	})
	if len(ranked) > MaxQuoteCards {
		ranked = ranked[:MaxQuoteCards]
	}

	assets := existingAssets(context)
	for i, moment := range ranked {
		card := model.NewAsset(project.Id, moment.Id, model.AssetTypeQuoteCard)
		card.Title = fmt.Sprintf("Quote %d", i+1)
		card.Content = moment.QuotableText
		card.Description = moment.Summary
		card.Status = model.AssetCompleted
		assets = append(assets, card)
	}

	if len(ranked) > 0 {
		best := ranked[0]

		email := model.NewAsset(project.Id, best.Id, model.AssetTypeEmail)
		email.Title = "Testimonial Email"
		email.Content = fmt.Sprintf(emailTemplate, best.QuotableText, best.Summary)
		email.Status = model.AssetCompleted
		assets = append(assets, email)

		captions := []struct {
			platform string
			content  string
		}{
			{"Twitter", truncate(best.QuotableText, twitterCaptionLimit)},
			{"LinkedIn", fmt.Sprintf("Client feedback:\n\n\"%s...\"\n\nRead the full story [link]",
				truncate(best.QuotableText, linkedinCaptionLimit))},
			{"Instagram", fmt.Sprintf("\"%s...\"\n\n#testimonial #clientlove #results",
				truncate(best.QuotableText, instagramCaptionLimit))},
		}
		for _, caption := range captions {
			post := model.NewAsset(project.Id, best.Id, model.AssetTypeSocialPost)
			post.Title = fmt.Sprintf("%s Caption", caption.platform)
			post.Content = caption.content
			post.Status = model.AssetCompleted
			assets = append(assets, post)
		}
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(CtxAssets, assets)
	context.Add(cor.CtxOut, assets)
}
