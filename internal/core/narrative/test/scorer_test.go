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

// Package narrative_test contains unit tests for the heuristic analysis
// core. This file exercises the SegmentScorer's filter rules, quality
// accumulation, and candidate selection.
package narrative_test

import (
	"testing"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/narrative"
	"github.com/stretchr/testify/assert"
)

func segment(start, end float64, text string) *model.TranscriptSegment {
	return &model.TranscriptSegment{Start: start, End: end, Text: text}
}

// TestScoreFilterRules verifies the short-circuit rejection rules fire in
// priority order with their fixed scores.
func TestScoreFilterRules(t *testing.T) {
	scorer := narrative.NewSegmentScorer()

	tests := []struct {
		name   string
		seg    *model.TranscriptSegment
		score  float64
		reason model.RejectReason
	}{
		{"blank text", segment(0, 10, "   "), 0.0, model.RejectEmpty},
		{"under three seconds", segment(0, 2, "We doubled our revenue and I love it"), 0.1, model.RejectTooShort},
		{"trailing question mark", segment(0, 10, "can you tell me more?"), 0.1, model.RejectIsQuestion},
		{"interviewer phrasing", segment(0, 10, "So tell me about the results you saw"), 0.15, model.RejectStartsWithQuestion},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			scored := scorer.Score(tc.seg)
			assert.InDelta(t, tc.score, scored.QualityScore, 0.0001)
			assert.Equal(t, tc.reason, scored.Reason)
		})
	}
}

// TestScoreShortSegmentIgnoresKeywords verifies that the duration filter
// wins even when the text is full of high-value keywords.
func TestScoreShortSegmentIgnoresKeywords(t *testing.T) {
	scorer := narrative.NewSegmentScorer()
	scored := scorer.Score(segment(0, 2.5, "increased doubled saved amazing love 50%"))

	assert.InDelta(t, 0.1, scored.QualityScore, 0.0001)
	assert.Equal(t, model.RejectTooShort, scored.Reason)
}

// TestScoreQualityAccumulation verifies the bonus terms: a segment in the
// ideal duration window with a result keyword, an emotion keyword, and a
// numeric result collects all of their bonuses.
func TestScoreQualityAccumulation(t *testing.T) {
	scorer := narrative.NewSegmentScorer()
	// 18 seconds, contains "increased" (+0.25), "love" (+0.2), the ideal
	// 5-20s window (+0.3), and "50%" (+0.4).
	scored := scorer.Score(segment(2, 20, "We increased sales by 50% and I love it"))

	assert.Equal(t, model.RejectQuality, scored.Reason)
	assert.InDelta(t, 1.15, scored.QualityScore, 0.0001)
}

// TestScoreFloorsAtZero verifies penalties can never drive the quality
// score negative.
func TestScoreFloorsAtZero(t *testing.T) {
	scorer := narrative.NewSegmentScorer()
	// 50 seconds of pure filler: over-length penalty plus filler-ratio
	// penalty, and no bonuses.
	scored := scorer.Score(segment(0, 50, "um uh um uh um uh um uh"))

	assert.Equal(t, model.RejectQuality, scored.Reason)
	assert.Equal(t, 0.0, scored.QualityScore)
}

// TestSelectBestOrdering verifies SelectBest returns at most max segments
// sorted descending by score, keeping only those above the quality
// threshold.
func TestSelectBestOrdering(t *testing.T) {
	scorer := narrative.NewSegmentScorer()
	segments := []*model.TranscriptSegment{
		segment(0, 15, "It completely changed how our business runs day to day"),
		segment(20, 35, "We increased sales by 50% and I love it"),
		segment(40, 55, "We saved about three hours every single week"),
	}

	best := scorer.SelectBest(segments, 2)

	assert.Len(t, best, 2)
	assert.GreaterOrEqual(t, best[0].QualityScore, best[1].QualityScore)
	for _, sc := range best {
		assert.Greater(t, sc.QualityScore, 0.3)
	}
}

// TestSelectBestFallsBackToLongest verifies the longest-duration fallback
// guarantees non-empty output when nothing clears the threshold.
func TestSelectBestFallsBackToLongest(t *testing.T) {
	scorer := narrative.NewSegmentScorer()
	segments := []*model.TranscriptSegment{
		segment(0, 2, "hi"),
		segment(2, 4, "ok"),
		segment(4, 6.5, "sure"),
	}

	best := scorer.SelectBest(segments, 2)

	assert.Len(t, best, 2)
	// Longest first.
	assert.InDelta(t, 2.5, best[0].Segment.Duration(), 0.0001)
}

// TestScoreScenario verifies the canonical three-segment flow: a too-short
// greeting, one high-quality results statement, and an interviewer question.
// Only the middle segment should survive as a candidate.
func TestScoreScenario(t *testing.T) {
	scorer := narrative.NewSegmentScorer()
	segments := []*model.TranscriptSegment{
		segment(0, 2, "hi"),
		segment(2, 20, "We increased sales by 50% and I love it"),
		segment(20, 23, "can you tell me more?"),
	}

	first := scorer.Score(segments[0])
	assert.InDelta(t, 0.1, first.QualityScore, 0.0001)
	assert.Equal(t, model.RejectTooShort, first.Reason)

	third := scorer.Score(segments[2])
	assert.InDelta(t, 0.1, third.QualityScore, 0.0001)
	assert.Equal(t, model.RejectIsQuestion, third.Reason)

	second := scorer.Score(segments[1])
	assert.Equal(t, model.RejectQuality, second.Reason)
	assert.Greater(t, second.QualityScore, 0.3)

	best := scorer.SelectBest(segments, 3)
	assert.Len(t, best, 1)
	assert.Equal(t, segments[1], best[0].Segment)
}
