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

// This file exercises the ArcBuilder: pattern template matching, the
// beat-ownership invariant, the release-on-rejection policy, and arc
// scoring.
package narrative_test

import (
	"testing"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/narrative"
	"github.com/stretchr/testify/assert"
)

func beat(t model.BeatType, start, end, importance float64) *model.StoryBeat {
	return &model.StoryBeat{Type: t, Start: start, End: end, Importance: importance}
}

// TestBuildProblemSolutionArc verifies the canonical problem-solution-proof
// sequence produces one arc spanning all three beats with the per-beat
// score bonus.
func TestBuildProblemSolutionArc(t *testing.T) {
	builder := narrative.NewArcBuilder()
	beats := []*model.StoryBeat{
		beat(model.BeatProblem, 0, 10, 0.6),
		beat(model.BeatSolution, 12, 20, 0.8),
		beat(model.BeatProof, 22, 28, 0.9),
	}

	arcs := builder.BuildArcs(beats)

	assert.Len(t, arcs, 1)
	arc := arcs[0]
	assert.Equal(t, model.ArcProblemSolution, arc.Type)
	assert.Len(t, arc.Beats, 3)
	assert.Equal(t, 0.0, arc.Beats[0].Start)
	assert.Equal(t, 28.0, arc.Beats[2].End)
	assert.InDelta(t, 28.0, arc.Duration, 0.0001)
	// mean(0.6, 0.8, 0.9) + 0.1*3
	assert.InDelta(t, (0.6+0.8+0.9)/3+0.3, arc.Score, 0.0001)
}

// TestBuildArcsNoBeatReuse verifies that across one run no beat index is
// claimed by more than one arc: the problem_solution template runs first
// and wins the shared proof beat, leaving the later hook_proof candidate
// to form without it or not at all.
func TestBuildArcsNoBeatReuse(t *testing.T) {
	builder := narrative.NewArcBuilder()
	beats := []*model.StoryBeat{
		beat(model.BeatHook, 0, 4, 0.9),
		beat(model.BeatProblem, 5, 12, 0.6),
		beat(model.BeatSolution, 14, 20, 0.8),
		beat(model.BeatProof, 22, 28, 0.9),
	}

	arcs := builder.BuildArcs(beats)

	seen := make(map[*model.StoryBeat]int)
	for _, arc := range arcs {
		for _, b := range arc.Beats {
			seen[b]++
		}
	}
	for b, count := range seen {
		assert.Equal(t, 1, count, "beat %s@%v claimed %d times", b.Type, b.Start, count)
	}
}

// TestBuildArcsReleasesRejectedClaims verifies the uniform release policy:
// when a higher-priority template's candidate is rejected on its span
// bound, the beats it touched stay available to later templates.
func TestBuildArcsReleasesRejectedClaims(t *testing.T) {
	builder := narrative.NewArcBuilder()
	// The problem_solution candidate collects the far-away emotion beat,
	// stretching its span past the 90 second maximum, so the whole
	// candidate is rejected. The transformation template must still be able
	// to use the emotion beat the rejected candidate claimed.
	beats := []*model.StoryBeat{
		beat(model.BeatProblem, 0, 2, 0.5),
		beat(model.BeatSolution, 3, 6, 0.5),
		beat(model.BeatTransformation, 95, 101, 0.7),
		beat(model.BeatEmotion, 103, 109, 0.8),
	}

	arcs := builder.BuildArcs(beats)

	assert.Len(t, arcs, 1)
	assert.Equal(t, model.ArcTransformation, arcs[0].Type)
	assert.Len(t, arcs[0].Beats, 2)
	// mean(0.7, 0.8) + 0.15 flat bonus
	assert.InDelta(t, 0.75+0.15, arcs[0].Score, 0.0001)
}

// TestBuildArcsSpanBounds verifies candidates outside a template's span
// window are rejected entirely.
func TestBuildArcsSpanBounds(t *testing.T) {
	builder := narrative.NewArcBuilder()
	// Hook to proof spans 50 seconds, outside hook_proof's [5,45] window.
	beats := []*model.StoryBeat{
		beat(model.BeatHook, 0, 4, 0.9),
		beat(model.BeatProof, 46, 50, 0.9),
	}

	assert.Empty(t, builder.BuildArcs(beats))
}

// TestBuildArcsWindowLimit verifies the look-ahead window: a solution more
// than ten beats after the problem anchor is never found.
func TestBuildArcsWindowLimit(t *testing.T) {
	builder := narrative.NewArcBuilder()
	beats := []*model.StoryBeat{beat(model.BeatProblem, 0, 5, 0.6)}
	// Eleven context beats separate the problem from its solution.
	for i := 0; i < 11; i++ {
		start := 6 + float64(i)*2
		beats = append(beats, beat(model.BeatContext, start, start+1, 0.3))
	}
	beats = append(beats, beat(model.BeatSolution, 40, 45, 0.8))

	assert.Empty(t, builder.BuildArcs(beats))
}

// TestBuildArcsSortedByScore verifies final ordering is descending by
// score across templates.
func TestBuildArcsSortedByScore(t *testing.T) {
	builder := narrative.NewArcBuilder()
	beats := []*model.StoryBeat{
		beat(model.BeatProblem, 0, 10, 0.3),
		beat(model.BeatSolution, 12, 22, 0.3),
		beat(model.BeatHook, 30, 34, 0.9),
		beat(model.BeatSolution, 36, 42, 0.9),
	}

	arcs := builder.BuildArcs(beats)

	assert.Len(t, arcs, 2)
	for i := 1; i < len(arcs); i++ {
		assert.GreaterOrEqual(t, arcs[i-1].Score, arcs[i].Score)
	}
	assert.Equal(t, model.ArcHookProof, arcs[0].Type)
}
