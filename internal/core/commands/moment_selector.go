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
// command that turns the moment-identification response into validated,
// persisted-ready Moment records.
//
// Logic Flow:
//  1. Parse the raw JSON array produced by MomentIdentifier. The model
//     occasionally wraps the array in an object under a "moments" key;
//     both shapes are accepted.
//  2. Validate each record: a quote that ends in a question mark or a span
//     shorter than three seconds is discarded silently (logged, never
//     fatal).
//  3. If parsing failed or fewer than two valid moments remain, fall back
//     to the heuristic path: score every transcript segment and convert
//     the best three into general-type Moments whose importance and
//     quotable scores are the computed quality score.
package commands

import (
	"encoding/json"
	"log/slog"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/narrative"
)

const (
	// minPrimaryMoments is the floor below which the identifier response
	// is considered unusable and the heuristic fallback takes over.
	minPrimaryMoments = 2
	// fallbackMomentCount caps how many scored segments the fallback
	// converts into moments.
	fallbackMomentCount = 3
	// minMomentSpanSeconds rejects moments too short to cut a clip from.
	minMomentSpanSeconds = 3.0
)

// momentRecord mirrors one element of the identifier's JSON response.
type momentRecord struct {
	StartTime       float64 `json:"start_time"`
	EndTime         float64 `json:"end_time"`
	MomentType      string  `json:"moment_type"`
	Summary         string  `json:"summary"`
	SentimentScore  float64 `json:"sentiment_score"`
	ImportanceScore float64 `json:"importance_score"`
	QuotableText    string  `json:"quotable_text"`
	QuotableScore   float64 `json:"quotable_score"`
}

// MomentSelector validates the generative model's moment records and falls
// back to heuristic segment scoring when the primary path is unusable.
type MomentSelector struct {
	cor.BaseCommand
	scorer *narrative.SegmentScorer
}

// NewMomentSelector is the constructor for the MomentSelector command.
func NewMomentSelector(name string) *MomentSelector {
	return &MomentSelector{
		BaseCommand: *cor.NewBaseCommand(name),
		scorer:      narrative.NewSegmentScorer(),
	}
}

// Execute produces the final []*model.Moment for the run and publishes it
// under both CtxMoments and the output key.
func (c *MomentSelector) Execute(context cor.Context) {
	project := context.Get(CtxProject).(*model.Project)
	transcript := context.Get(CtxTranscript).(*model.Transcript)
	raw, _ := context.Get(c.GetInputParam()).(string)

	moments := c.parsePrimary(project, raw)
	if len(moments) < minPrimaryMoments {
		slog.Info("falling back to heuristic moment selection",
			"project", project.Id, "primary_moments", len(moments))
		moments = c.fallback(project, transcript)
	}

	if len(moments) == 0 {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.ValidationError{
			Field:  "moments",
			Reason: "no usable moments from either selection path",
		})
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(CtxMoments, moments)
	context.Add(cor.CtxOut, moments)
}

// parsePrimary decodes and validates the identifier response. A nil return
// means the response was absent or unusable.
func (c *MomentSelector) parsePrimary(project *model.Project, raw string) []*model.Moment {
	if raw == "" {
		return nil
	}

	var records []momentRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		// Some responses arrive as {"moments": [...]}.
		var wrapped struct {
			Moments []momentRecord `json:"moments"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
			slog.Warn("unparseable moment response", "project", project.Id, "error", err)
			return nil
		}
		records = wrapped.Moments
	}

	var moments []*model.Moment
	for _, rec := range records {
		if err := validateRecord(rec); err != nil {
			slog.Info("discarding moment record", "project", project.Id, "reason", err)
			continue
		}
		moment := model.NewMoment(project.Id, momentType(rec.MomentType))
		moment.StartTime = rec.StartTime
		moment.EndTime = rec.EndTime
		moment.Transcript = rec.QuotableText
		moment.Summary = rec.Summary
		moment.SentimentScore = rec.SentimentScore
		moment.ImportanceScore = rec.ImportanceScore
		moment.QuotableText = rec.QuotableText
		moment.QuotableScore = rec.QuotableScore
		moments = append(moments, moment)
	}
	return moments
}

// fallback converts the best-scored transcript segments into moments.
func (c *MomentSelector) fallback(project *model.Project, transcript *model.Transcript) []*model.Moment {
	best := c.scorer.SelectBest(transcript.Segments, fallbackMomentCount)

	moments := make([]*model.Moment, 0, len(best))
	for _, scored := range best {
		moment := model.NewMoment(project.Id, model.MomentGeneral)
		moment.StartTime = scored.Segment.Start
		moment.EndTime = scored.Segment.End
		moment.Transcript = scored.Segment.Text
		moment.Summary = "Key moment from transcript"
		moment.ImportanceScore = scored.QualityScore
		moment.QuotableText = scored.Segment.Text
		moment.QuotableScore = scored.QualityScore
		moments = append(moments, moment)
	}
	return moments
}

// validateRecord applies the discard rules for identifier output.
func validateRecord(rec momentRecord) error {
	if len(rec.QuotableText) > 0 && rec.QuotableText[len(rec.QuotableText)-1] == '?' {
		return &model.ValidationError{Field: "quotable_text", Reason: "quote is a question"}
	}
	if rec.EndTime-rec.StartTime < minMomentSpanSeconds {
		return &model.ValidationError{Field: "end_time", Reason: "span shorter than three seconds"}
	}
	return nil
}

// momentType maps the response vocabulary onto the closed MomentType set,
// defaulting to general for anything unrecognized.
func momentType(s string) model.MomentType {
	switch model.MomentType(s) {
	case model.MomentProblem, model.MomentSolution, model.MomentResult,
		model.MomentEmotionalPeak, model.MomentCTA:
		return model.MomentType(s)
	default:
		return model.MomentGeneral
	}
}
