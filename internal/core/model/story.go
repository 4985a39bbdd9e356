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

// Package model defines the core data structures for the application.
// This file contains the narrative analysis models: story beats, story arcs,
// and clip suggestions. These are in-memory values produced by one analysis
// pass over a transcript; beats and arcs are immutable once built.
//
// The beat and arc type tags are closed enumerations rather than free-form
// strings so that the arc pattern templates can switch over them and be
// checked for completeness at compile time.
package model

// BeatType classifies the narrative role a transcript segment plays in a
// testimonial. The set is closed; adding a member requires updating the
// classifier keyword table and the arc pattern templates.
type BeatType string

const (
	BeatHook           BeatType = "hook"           // Attention grabber.
	BeatProblem        BeatType = "problem"        // Pain point.
	BeatAgitation      BeatType = "agitation"      // Why the pain matters.
	BeatSolution       BeatType = "solution"       // The fix that was found.
	BeatProof          BeatType = "proof"          // Results and evidence.
	BeatTransformation BeatType = "transformation" // Before/after contrast.
	BeatEmotion        BeatType = "emotion"        // Feeling or reaction.
	BeatCTA            BeatType = "cta"            // Call to action.
	BeatContext        BeatType = "context"        // Background and setup.
)

// BeatTypes lists every beat type in declaration order. Used by the
// classifier to iterate the keyword table deterministically.
var BeatTypes = []BeatType{
	BeatHook,
	BeatProblem,
	BeatAgitation,
	BeatSolution,
	BeatProof,
	BeatTransformation,
	BeatEmotion,
	BeatCTA,
	BeatContext,
}

// ArcType identifies which narrative pattern template produced an arc. The
// declaration order is also the priority order in which the arc builder
// scans for each pattern.
type ArcType string

const (
	ArcProblemSolution  ArcType = "problem_solution"
	ArcHookProof        ArcType = "hook_proof"
	ArcTransformation   ArcType = "transformation"
	ArcEmotionalJourney ArcType = "emotional_journey"
)

// StoryBeat is one classified narrative unit detected in a single transcript
// segment. Beats are created once per analysis pass and ordered by Start.
type StoryBeat struct {
	Type       BeatType `json:"type"`       // The winning classification for the segment.
	Start      float64  `json:"start"`      // Start offset in seconds.
	End        float64  `json:"end"`        // End offset in seconds.
	Text       string   `json:"text"`       // The segment text.
	Importance float64  `json:"importance"` // Classifier confidence in [0,1].
	Keywords   []string `json:"keywords"`   // Distinct keywords that matched any beat type.
}

// Duration returns the beat's time span in seconds.
func (b *StoryBeat) Duration() float64 {
	return b.End - b.Start
}

// StoryArc is an ordered sequence of at least two beats that matched one of
// the narrative pattern templates. Within one arc builder run no beat index
// is claimed by more than one arc.
type StoryArc struct {
	Type     ArcType      `json:"type"`     // Which pattern template matched.
	Beats    []*StoryBeat `json:"beats"`    // Time-ordered member beats, len >= 2.
	Duration float64      `json:"duration"` // Span from the first beat's start to the last beat's end, in seconds.
	Score    float64      `json:"score"`    // Pattern score used for ranking.
}

// ClipSegment is one (offset, length) slice of the source video referenced by
// a clip suggestion.
type ClipSegment struct {
	Offset float64 `json:"offset"` // Start offset into the source, in seconds.
	Length float64 `json:"length"` // Slice length, in seconds.
}

// ClipSuggestion is a plan for a clip derived from a story arc. Composite
// suggestions stitch every beat of an arc together; individual suggestions
// cover a single beat. For composite suggestions Duration always equals the
// sum of the segment lengths.
type ClipSuggestion struct {
	Name          string        `json:"name"`           // Stable identifier, e.g. "problem_solution_full".
	Duration      float64       `json:"duration"`       // Total planned clip length, in seconds.
	Segments      []ClipSegment `json:"segments"`       // Ordered source slices to stitch.
	Description   string        `json:"description"`    // Human-readable summary of the clip content.
	Purpose       string        `json:"purpose"`        // Target platform/use bucket.
	BeatsUsed     []BeatType    `json:"beats_used"`     // Beat types included, in order.
	NarrativeFlow string        `json:"narrative_flow"` // Arrow-joined beat sequence, e.g. "problem → solution → proof".
}
