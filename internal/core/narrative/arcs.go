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

// This file implements the ArcBuilder, which assembles classified story
// beats into recognized narrative arcs. Four pattern templates are scanned
// in a fixed priority order, and an explicit index-keyed ownership table
// guarantees that no beat is claimed by more than one arc: the
// first-matched template wins a beat permanently.
//
// Logic Flow (BuildArcs):
// 1. Allocate an ownership table with one slot per beat index.
// 2. Run the four template passes in order: problem_solution, hook_proof,
//    transformation, emotional_journey. Each pass walks the beat list
//    looking for an unclaimed anchor beat of its anchor type, then collects
//    unclaimed follow-up beats of its target types within a bounded
//    look-ahead window.
// 3. Beat indices are claimed as soon as they are selected into a candidate
//    arc. If the candidate is then rejected (too few beats, or a total span
//    outside the template's bounds), every index it claimed is released
//    again. This release-on-rejection policy is applied uniformly across all
//    templates.
// 4. Accepted arcs are scored per template and the final list is sorted
//    descending by score.
package narrative

import (
	"sort"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
)

// arcTemplate describes one narrative pattern scan: the anchor beat type
// that starts a candidate, the follow-up types collected after it, the
// look-ahead window, the acceptable total span in seconds, and the scoring
// bonus terms.
type arcTemplate struct {
	arcType     model.ArcType
	anchor      model.BeatType
	targets     []model.BeatType
	window      int     // Max beats to look ahead from the anchor.
	minSpan     float64 // Seconds.
	maxSpan     float64 // Seconds.
	flatBonus   float64 // Added to the mean importance.
	perBeatBonus float64 // Added per collected beat.
}

// arcTemplates is the fixed scan order. Earlier templates claim beats first.
var arcTemplates = []arcTemplate{
	{
		arcType: model.ArcProblemSolution,
		anchor:  model.BeatProblem,
		// The problem_solution template uses a dedicated two-phase search;
		// targets here name the second-phase types only.
		targets:      []model.BeatType{model.BeatProof, model.BeatEmotion},
		window:       10,
		minSpan:      10,
		maxSpan:      90,
		perBeatBonus: 0.1,
	},
	{
		arcType: model.ArcHookProof,
		anchor:  model.BeatHook,
		targets: []model.BeatType{model.BeatProof, model.BeatEmotion, model.BeatSolution},
		window:  6,
		minSpan: 5,
		maxSpan: 45,
	},
	{
		arcType:   model.ArcTransformation,
		anchor:    model.BeatTransformation,
		targets:   []model.BeatType{model.BeatProof, model.BeatEmotion},
		window:    6,
		minSpan:   5,
		maxSpan:   60,
		flatBonus: 0.15,
	},
	{
		arcType: model.ArcEmotionalJourney,
		anchor:  model.BeatEmotion,
		targets: []model.BeatType{model.BeatProof, model.BeatCTA},
		window:  6,
		minSpan: 5,
		maxSpan: 45,
	},
}

// ArcBuilder assembles beats into narrative arcs. The zero value is ready
// to use; each BuildArcs call runs with a fresh ownership table.
type ArcBuilder struct{}

func NewArcBuilder() *ArcBuilder {
	return &ArcBuilder{}
}

// BuildArcs runs every pattern template over the time-ordered beat list and
// returns the accepted arcs sorted descending by score. Across one call, no
// beat index appears in more than one returned arc.
func (b *ArcBuilder) BuildArcs(beats []*model.StoryBeat) []*model.StoryArc {
	owned := make([]bool, len(beats))
	var arcs []*model.StoryArc

	for _, tmpl := range arcTemplates {
		for i := range beats {
			if owned[i] || beats[i].Type != tmpl.anchor {
				continue
			}
			var indices []int
			if tmpl.arcType == model.ArcProblemSolution {
				indices = collectProblemSolution(beats, owned, i, tmpl)
			} else {
				indices = collectWindow(beats, owned, i, tmpl)
			}
			if indices == nil {
				continue
			}

			// Claim the candidate's beats up front.
			for _, idx := range indices {
				owned[idx] = true
			}

			arc := buildArc(beats, indices, tmpl)
			if arc == nil {
				// Rejected candidate: release everything it claimed.
				for _, idx := range indices {
					owned[idx] = false
				}
				continue
			}
			arcs = append(arcs, arc)
		}
	}

	sort.SliceStable(arcs, func(i, j int) bool {
		return arcs[i].Score > arcs[j].Score
	})
	return arcs
}

// collectProblemSolution gathers indices for the problem_solution template:
// the anchor, the first unclaimed solution within the look-ahead window, and
// any unclaimed proof/emotion beats in the five slots after that solution.
// Returns nil when no solution follows the anchor.
func collectProblemSolution(beats []*model.StoryBeat, owned []bool, anchor int, tmpl arcTemplate) []int {
	solution := -1
	for j := anchor + 1; j <= anchor+tmpl.window && j < len(beats); j++ {
		if !owned[j] && beats[j].Type == model.BeatSolution {
			solution = j
			break
		}
	}
	if solution < 0 {
		return nil
	}
	indices := []int{anchor, solution}
	for j := solution + 1; j <= solution+5 && j < len(beats); j++ {
		if !owned[j] && beatTypeIn(beats[j].Type, tmpl.targets) {
			indices = append(indices, j)
		}
	}
	return indices
}

// collectWindow gathers indices for the single-window templates: the anchor
// plus every unclaimed target-type beat within the look-ahead window.
func collectWindow(beats []*model.StoryBeat, owned []bool, anchor int, tmpl arcTemplate) []int {
	indices := []int{anchor}
	for j := anchor + 1; j <= anchor+tmpl.window && j < len(beats); j++ {
		if !owned[j] && beatTypeIn(beats[j].Type, tmpl.targets) {
			indices = append(indices, j)
		}
	}
	return indices
}

// buildArc validates a candidate against the template's size and span
// bounds and computes its score. Returns nil when the candidate is
// rejected.
func buildArc(beats []*model.StoryBeat, indices []int, tmpl arcTemplate) *model.StoryArc {
	if len(indices) < 2 {
		return nil
	}
	arcBeats := make([]*model.StoryBeat, 0, len(indices))
	for _, idx := range indices {
		arcBeats = append(arcBeats, beats[idx])
	}
	span := arcBeats[len(arcBeats)-1].End - arcBeats[0].Start
	if span < tmpl.minSpan || span > tmpl.maxSpan {
		return nil
	}

	total := 0.0
	for _, beat := range arcBeats {
		total += beat.Importance
	}
	score := total/float64(len(arcBeats)) + tmpl.flatBonus + tmpl.perBeatBonus*float64(len(arcBeats))

	return &model.StoryArc{
		Type:     tmpl.arcType,
		Beats:    arcBeats,
		Duration: span,
		Score:    score,
	}
}

func beatTypeIn(t model.BeatType, set []model.BeatType) bool {
	for _, candidate := range set {
		if t == candidate {
			return true
		}
	}
	return false
}
