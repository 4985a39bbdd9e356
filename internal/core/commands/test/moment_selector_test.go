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

// This file exercises the moment selector's primary parse path, the record
// discard rules, and the heuristic fallback that takes over when the
// generative response is missing or unusable.
package commands_test

import (
	"context"
	"testing"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/commands"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
	test "github.com/jaycherian/gcp-go-story-clips/internal/testutil"
	"github.com/stretchr/testify/assert"
)

// newSelectorContext builds a cor context carrying the project, the shared
// test transcript, and the raw identifier response under the input key.
func newSelectorContext(t *testing.T, project *model.Project, raw string) cor.Context {
	t.Helper()
	corCtx := cor.NewBaseContext()
	corCtx.SetContext(context.Background())
	corCtx.Add(commands.CtxProject, project)
	corCtx.Add(commands.CtxTranscript, test.GetTestTranscript())
	corCtx.Add(cor.CtxIn, raw)
	return corCtx
}

const identifierResponse = `[
  {"start_time": 20.0, "end_time": 27.5, "moment_type": "result",
   "summary": "Quantified productivity gains", "sentiment_score": 0.9,
   "importance_score": 0.95,
   "quotable_text": "We achieved a 40% increase in productivity.",
   "quotable_score": 0.9},
  {"start_time": 27.5, "end_time": 34.0, "moment_type": "emotional_peak",
   "summary": "Strong endorsement", "sentiment_score": 0.95,
   "importance_score": 0.85,
   "quotable_text": "It is absolutely life-changing for our business.",
   "quotable_score": 0.8}
]`

// TestSelectorPrimaryPath verifies a well-formed identifier response parses
// into typed moments published under both the moments key and the output key.
func TestSelectorPrimaryPath(t *testing.T) {
	project := model.NewProject("acme-launch.mp4", "testimonial")
	cmd := commands.NewMomentSelector("select")
	corCtx := newSelectorContext(t, project, identifierResponse)
	cmd.Execute(corCtx)

	assert.False(t, corCtx.HasErrors())
	moments, ok := corCtx.Get(cor.CtxOut).([]*model.Moment)
	assert.True(t, ok)
	assert.Len(t, moments, 2)
	assert.Equal(t, model.MomentResult, moments[0].Type)
	assert.Equal(t, model.MomentEmotionalPeak, moments[1].Type)
	assert.Equal(t, project.Id, moments[0].ProjectId)
	assert.InDelta(t, 0.95, moments[0].ImportanceScore, 0.0001)
	// Published under both keys.
	assert.Equal(t, moments, corCtx.Get(commands.CtxMoments))
}

// TestSelectorAcceptsWrappedObject verifies the {"moments": [...]} response
// shape parses the same as the bare array.
func TestSelectorAcceptsWrappedObject(t *testing.T) {
	project := model.NewProject("acme-launch.mp4", "testimonial")
	cmd := commands.NewMomentSelector("select")
	corCtx := newSelectorContext(t, project, `{"moments": `+identifierResponse+`}`)
	cmd.Execute(corCtx)

	assert.False(t, corCtx.HasErrors())
	moments := corCtx.Get(cor.CtxOut).([]*model.Moment)
	assert.Len(t, moments, 2)
}

// TestSelectorUnknownTypeDefaultsToGeneral verifies moment types outside the
// closed vocabulary map onto the general type.
func TestSelectorUnknownTypeDefaultsToGeneral(t *testing.T) {
	project := model.NewProject("acme-launch.mp4", "testimonial")
	raw := `[
	  {"start_time": 0, "end_time": 10, "moment_type": "climax", "summary": "a",
	   "importance_score": 0.8, "quotable_text": "Quote one.", "quotable_score": 0.7},
	  {"start_time": 12, "end_time": 22, "moment_type": "cta", "summary": "b",
	   "importance_score": 0.7, "quotable_text": "Quote two.", "quotable_score": 0.6}
	]`
	cmd := commands.NewMomentSelector("select")
	corCtx := newSelectorContext(t, project, raw)
	cmd.Execute(corCtx)

	moments := corCtx.Get(cor.CtxOut).([]*model.Moment)
	assert.Len(t, moments, 2)
	assert.Equal(t, model.MomentGeneral, moments[0].Type)
	// "cta" is in the vocabulary and survives as-is.
	assert.Equal(t, model.MomentCTA, moments[1].Type)
}

// TestSelectorDiscardsQuestionsAndShortSpans verifies the discard rules:
// question quotes and sub-three-second spans are dropped, and with fewer
// than two records left, the heuristic fallback supplies the moments.
func TestSelectorDiscardsQuestionsAndShortSpans(t *testing.T) {
	project := model.NewProject("acme-launch.mp4", "testimonial")
	raw := `[
	  {"start_time": 0, "end_time": 10, "moment_type": "result", "summary": "q",
	   "importance_score": 0.9, "quotable_text": "Would you believe the results?", "quotable_score": 0.9},
	  {"start_time": 12, "end_time": 14, "moment_type": "result", "summary": "short",
	   "importance_score": 0.9, "quotable_text": "Too brief.", "quotable_score": 0.9},
	  {"start_time": 20, "end_time": 30, "moment_type": "result", "summary": "keep",
	   "importance_score": 0.9, "quotable_text": "A solid statement.", "quotable_score": 0.9}
	]`
	cmd := commands.NewMomentSelector("select")
	corCtx := newSelectorContext(t, project, raw)
	cmd.Execute(corCtx)

	assert.False(t, corCtx.HasErrors())
	moments := corCtx.Get(cor.CtxOut).([]*model.Moment)
	// One survivor is below the floor, so the whole batch comes from the
	// fallback scorer instead.
	assert.Len(t, moments, 3)
	for _, m := range moments {
		assert.Equal(t, model.MomentGeneral, m.Type)
		assert.Equal(t, "Key moment from transcript", m.Summary)
	}
}

// TestSelectorFallbackOnEmptyResponse verifies an absent response routes
// straight to the heuristic path with scores mirrored from the quality score.
func TestSelectorFallbackOnEmptyResponse(t *testing.T) {
	project := model.NewProject("acme-launch.mp4", "testimonial")
	cmd := commands.NewMomentSelector("select")
	corCtx := newSelectorContext(t, project, "")
	cmd.Execute(corCtx)

	assert.False(t, corCtx.HasErrors())
	moments := corCtx.Get(cor.CtxOut).([]*model.Moment)
	assert.Len(t, moments, 3)
	for _, m := range moments {
		assert.Equal(t, model.MomentGeneral, m.Type)
		// The fallback mirrors the quality score into both rankings.
		assert.InDelta(t, m.ImportanceScore, m.QuotableScore, 0.0001)
		assert.NotEmpty(t, m.Transcript)
	}
}

// TestSelectorFallbackOnUnparseableResponse verifies malformed JSON is
// treated like an absent response.
func TestSelectorFallbackOnUnparseableResponse(t *testing.T) {
	project := model.NewProject("acme-launch.mp4", "testimonial")
	cmd := commands.NewMomentSelector("select")
	corCtx := newSelectorContext(t, project, "here are your moments: [")
	cmd.Execute(corCtx)

	assert.False(t, corCtx.HasErrors())
	assert.Len(t, corCtx.Get(cor.CtxOut).([]*model.Moment), 3)
}

// TestSelectorErrorsWhenNoPathProduces verifies an empty transcript starves
// both paths and the command reports a validation error.
func TestSelectorErrorsWhenNoPathProduces(t *testing.T) {
	project := model.NewProject("acme-launch.mp4", "testimonial")
	cmd := commands.NewMomentSelector("select")
	corCtx := cor.NewBaseContext()
	corCtx.SetContext(context.Background())
	corCtx.Add(commands.CtxProject, project)
	corCtx.Add(commands.CtxTranscript, &model.Transcript{Segments: nil})
	corCtx.Add(cor.CtxIn, "")
	cmd.Execute(corCtx)

	assert.True(t, corCtx.HasErrors())
	assert.Nil(t, corCtx.Get(cor.CtxOut))
}
