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

// This file exercises the ClipPlanner's duration policy, purpose buckets,
// pool cap, and ordering.
package narrative_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/narrative"
	"github.com/stretchr/testify/assert"
)

func arc(arcType model.ArcType, score float64, beats ...*model.StoryBeat) *model.StoryArc {
	return &model.StoryArc{
		Type:     arcType,
		Beats:    beats,
		Duration: beats[len(beats)-1].End - beats[0].Start,
		Score:    score,
	}
}

// TestPlanCompositeDurationInvariant verifies the composite suggestion's
// duration equals the sum of its segment lengths, with each beat's
// contribution capped at thirty seconds.
func TestPlanCompositeDurationInvariant(t *testing.T) {
	planner := narrative.NewClipPlanner()
	// The middle beat runs 40 seconds and must be capped at 30.
	arcs := []*model.StoryArc{arc(model.ArcProblemSolution, 0.9,
		beat(model.BeatProblem, 0, 8, 0.6),
		beat(model.BeatSolution, 10, 50, 0.8),
		beat(model.BeatProof, 52, 60, 0.9),
	)}

	suggestions := planner.Plan(arcs)

	var composite *model.ClipSuggestion
	for _, s := range suggestions {
		if len(s.Segments) == 3 {
			composite = s
		}
	}
	assert.NotNil(t, composite)

	sum := 0.0
	for _, seg := range composite.Segments {
		sum += seg.Length
		assert.LessOrEqual(t, seg.Length, 30.0)
	}
	assert.InDelta(t, sum, composite.Duration, 0.0001)
	assert.InDelta(t, 8+30+8, composite.Duration, 0.0001)
	assert.Equal(t, []model.BeatType{model.BeatProblem, model.BeatSolution, model.BeatProof}, composite.BeatsUsed)
}

// TestPlanIndividualCaps verifies single-beat suggestions cap their segment
// at fifteen seconds.
func TestPlanIndividualCaps(t *testing.T) {
	planner := narrative.NewClipPlanner()
	arcs := []*model.StoryArc{arc(model.ArcHookProof, 0.8,
		beat(model.BeatHook, 0, 20, 0.9),
		beat(model.BeatProof, 22, 30, 0.9),
	)}

	suggestions := planner.Plan(arcs)

	for _, s := range suggestions {
		if len(s.Segments) == 1 {
			assert.LessOrEqual(t, s.Segments[0].Length, 15.0)
		}
	}
}

// TestPlanSkipsOutOfBoundsArcs verifies arcs spanning under five seconds
// or over ninety produce no suggestions at all.
func TestPlanSkipsOutOfBoundsArcs(t *testing.T) {
	planner := narrative.NewClipPlanner()
	arcs := []*model.StoryArc{
		arc(model.ArcHookProof, 0.9,
			beat(model.BeatHook, 0, 2, 0.9),
			beat(model.BeatProof, 2.5, 4, 0.9)),
		arc(model.ArcProblemSolution, 0.8,
			beat(model.BeatProblem, 0, 10, 0.6),
			beat(model.BeatProof, 92, 100, 0.9)),
	}

	assert.Empty(t, planner.Plan(arcs))
}

// TestPlanCapsAndSorts verifies the pool caps at six suggestions sorted
// ascending by duration, and only the top three arcs are considered.
func TestPlanCapsAndSorts(t *testing.T) {
	planner := narrative.NewClipPlanner()
	mkArc := func(offset float64, score float64) *model.StoryArc {
		return arc(model.ArcProblemSolution, score,
			beat(model.BeatProblem, offset, offset+8, 0.6),
			beat(model.BeatSolution, offset+10, offset+18, 0.8),
			beat(model.BeatProof, offset+20, offset+26, 0.9))
	}
	arcs := []*model.StoryArc{mkArc(0, 0.9), mkArc(100, 0.8), mkArc(200, 0.7), mkArc(300, 0.6)}

	suggestions := planner.Plan(arcs)

	assert.Len(t, suggestions, 6)
	for i := 1; i < len(suggestions); i++ {
		assert.LessOrEqual(t, suggestions[i-1].Duration, suggestions[i].Duration)
	}
	// Nothing from the fourth arc may appear.
	for _, s := range suggestions {
		assert.Less(t, s.Segments[0].Offset, 300.0)
	}
}

// TestPlanDescriptionTruncatesOnRunes verifies a long beat transcript is
// shortened without ever splitting a multibyte character, so the suggestion
// description stays valid UTF-8.
func TestPlanDescriptionTruncatesOnRunes(t *testing.T) {
	planner := narrative.NewClipPlanner()
	hook := beat(model.BeatHook, 0, 8, 0.9)
	// 79 ASCII characters followed by multibyte runes, so the cut at 80
	// characters lands inside the non-ASCII run.
	hook.Text = strings.Repeat("a", 79) + "ünïcödé tëxt thät rüns wëll päst thë lïmït"
	proof := beat(model.BeatProof, 10, 18, 0.9)
	arcs := []*model.StoryArc{arc(model.ArcHookProof, 0.8, hook, proof)}

	suggestions := planner.Plan(arcs)
	assert.NotEmpty(t, suggestions)

	for _, s := range suggestions {
		assert.True(t, utf8.ValidString(s.Description),
			"description must be valid UTF-8, got %q", s.Description)
	}
	// The hook's individual suggestion carries the truncated transcript:
	// exactly 80 characters of it plus the ellipsis marker.
	var hookDescription string
	for _, s := range suggestions {
		if s.Name == "hook_proof_hook" {
			hookDescription = s.Description
		}
	}
	assert.Contains(t, hookDescription, string([]rune(hook.Text)[:80])+"...")
}

// TestPlanPurposeBuckets verifies the platform label tracks the total
// duration bucket.
func TestPlanPurposeBuckets(t *testing.T) {
	planner := narrative.NewClipPlanner()
	arcs := []*model.StoryArc{arc(model.ArcHookProof, 0.8,
		beat(model.BeatHook, 0, 4, 0.9),
		beat(model.BeatProof, 5, 9, 0.9),
	)}

	suggestions := planner.Plan(arcs)
	assert.NotEmpty(t, suggestions)
	for _, s := range suggestions {
		// Every suggestion here totals under ten seconds.
		assert.Equal(t, "Social media hook (5-10s)", s.Purpose)
	}
}
