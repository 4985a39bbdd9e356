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
// command that runs the narrative analysis over the transcript and records
// the resulting clip plans as story-clip assets.
//
// Logic Flow:
//  1. Classify every transcript segment into story beats.
//  2. Build narrative arcs from the beats and rank them.
//  3. Plan clip suggestions (composite stitches plus per-beat cuts).
//  4. Record the top suggestions as story_clip assets whose content is the
//     edit plan: the ordered source slices an editor (or a later automated
//     stitch) needs to assemble the clip.
//
// This stage is advisory: its output enriches the asset catalog but
// nothing downstream depends on it, so the orchestrator runs it as a
// non-critical stage.
package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/narrative"
)

// MaxStoryClipAssets bounds how many suggestions become assets.
const MaxStoryClipAssets = 3

// StoryClipPlanner is a command that detects narrative arcs in the
// transcript and records clip plans for the strongest ones.
type StoryClipPlanner struct {
	cor.BaseCommand
	classifier *narrative.BeatClassifier
	builder    *narrative.ArcBuilder
	planner    *narrative.ClipPlanner
}

// NewStoryClipPlanner is the constructor for the story-clip planning step.
func NewStoryClipPlanner(name string) *StoryClipPlanner {
	return &StoryClipPlanner{
		BaseCommand: *cor.NewBaseCommand(name),
		classifier:  narrative.NewBeatClassifier(),
		builder:     narrative.NewArcBuilder(),
		planner:     narrative.NewClipPlanner(),
	}
}

// IsExecutable requires the project and transcript.
func (c *StoryClipPlanner) IsExecutable(context cor.Context) bool {
	return context.Get(CtxProject) != nil && context.Get(CtxTranscript) != nil
}

// Execute runs the beat -> arc -> plan analysis and appends one story_clip
// asset per selected suggestion.
func (c *StoryClipPlanner) Execute(context cor.Context) {
	project := context.Get(CtxProject).(*model.Project)
	transcript := context.Get(CtxTranscript).(*model.Transcript)

	beats := c.classifier.DetectBeats(transcript.Segments)
	arcs := c.builder.BuildArcs(beats)
	suggestions := c.planner.Plan(arcs)

	if len(suggestions) == 0 {
		slog.Info("no narrative arcs detected", "project", project.Id,
			"beats", len(beats))
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		context.Add(CtxSuggestions, []*model.ClipSuggestion{})
		context.Add(cor.CtxOut, []*model.ClipSuggestion{})
		return
	}

	assets := existingAssets(context)
	count := 0
	for _, suggestion := range suggestions {
		if count >= MaxStoryClipAssets {
			break
		}
		asset := model.NewAsset(project.Id, "", model.AssetTypeStoryClip)
		asset.Title = fmt.Sprintf("Story Clip: %s", suggestion.Name)
		asset.Description = suggestion.Description
		asset.DurationSeconds = suggestion.Duration

		// The content is the edit plan: which source slices to stitch,
		// in order.
		plan, err := json.Marshal(suggestion.Segments)
		if err != nil {
			slog.Warn("unable to serialize clip plan", "suggestion", suggestion.Name, "error", err)
			continue
		}
		asset.Content = string(plan)
		asset.Status = model.AssetCompleted
		assets = append(assets, asset)
		count++
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(CtxAssets, assets)
	context.Add(CtxSuggestions, suggestions)
	context.Add(cor.CtxOut, suggestions)
}
