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

// This file implements the ClipPlanner, which turns ranked narrative arcs
// into concrete clip suggestions under a duration and platform policy.
//
// Logic Flow (Plan):
// 1. Consider only the top three arcs. Arcs whose total span is under five
//    seconds or over ninety are skipped entirely, they make no usable clip.
// 2. For each kept arc, emit one composite suggestion that stitches every
//    beat into a single clip plan (per-beat contribution capped at thirty
//    seconds) plus one individual suggestion per beat (capped at fifteen
//    seconds). The composite's purpose label is chosen by total-duration
//    bucket, matching the platforms those lengths suit.
// 3. Cap the pool at six suggestions and sort it ascending by duration so
//    the cheapest clips to review come first.
package narrative

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
)

const (
	maxPlannedArcs      = 3
	maxSuggestions      = 6
	compositeSegmentCap = 30.0 // Seconds per beat in a composite clip.
	individualSegmentCap = 15.0 // Seconds for a single-beat clip.
	minArcSpan          = 5.0
	maxArcSpan          = 90.0
)

// ClipPlanner converts arcs into clip suggestions. The zero value is ready
// to use.
type ClipPlanner struct{}

func NewClipPlanner() *ClipPlanner {
	return &ClipPlanner{}
}

// Plan generates clip suggestions from the given arcs, which are expected
// to arrive sorted descending by score.
func (p *ClipPlanner) Plan(arcs []*model.StoryArc) []*model.ClipSuggestion {
	var suggestions []*model.ClipSuggestion

	considered := arcs
	if len(considered) > maxPlannedArcs {
		considered = considered[:maxPlannedArcs]
	}

	for _, arc := range considered {
		span := arc.Beats[len(arc.Beats)-1].End - arc.Beats[0].Start
		if span < minArcSpan || span > maxArcSpan {
			continue
		}

		suggestions = append(suggestions, compositeSuggestion(arc))
		for _, beat := range arc.Beats {
			suggestions = append(suggestions, individualSuggestion(arc, beat))
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Duration < suggestions[j].Duration
	})
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

// compositeSuggestion stitches all of an arc's beats into one clip plan.
// The suggestion's duration is the sum of its segment lengths, which can be
// shorter than the arc's wall-clock span when beats are far apart.
func compositeSuggestion(arc *model.StoryArc) *model.ClipSuggestion {
	segments := make([]model.ClipSegment, 0, len(arc.Beats))
	beatsUsed := make([]model.BeatType, 0, len(arc.Beats))
	total := 0.0
	for _, beat := range arc.Beats {
		length := beat.Duration()
		if length > compositeSegmentCap {
			length = compositeSegmentCap
		}
		segments = append(segments, model.ClipSegment{Offset: beat.Start, Length: length})
		beatsUsed = append(beatsUsed, beat.Type)
		total += length
	}

	return &model.ClipSuggestion{
		Name:          fmt.Sprintf("%s_complete", arc.Type),
		Duration:      total,
		Segments:      segments,
		Description:   fmt.Sprintf("Complete %s story with %d beats", strings.ReplaceAll(string(arc.Type), "_", " "), len(arc.Beats)),
		Purpose:       purposeForDuration(total),
		BeatsUsed:     beatsUsed,
		NarrativeFlow: flowLabel(beatsUsed),
	}
}

// individualSuggestion plans a single-beat clip.
func individualSuggestion(arc *model.StoryArc, beat *model.StoryBeat) *model.ClipSuggestion {
	length := beat.Duration()
	if length > individualSegmentCap {
		length = individualSegmentCap
	}
	// Truncate on runes so a multibyte character is never split.
	description := beat.Text
	if runes := []rune(description); len(runes) > 80 {
		description = string(runes[:80]) + "..."
	}
	return &model.ClipSuggestion{
		Name:          fmt.Sprintf("%s_%s", arc.Type, beat.Type),
		Duration:      length,
		Segments:      []model.ClipSegment{{Offset: beat.Start, Length: length}},
		Description:   fmt.Sprintf("%s: %s", titleCase(string(beat.Type)), description),
		Purpose:       purposeForDuration(length),
		BeatsUsed:     []model.BeatType{beat.Type},
		NarrativeFlow: string(beat.Type),
	}
}

// purposeForDuration maps a clip's total duration onto the platform bucket
// it best serves.
func purposeForDuration(duration float64) string {
	switch {
	case duration <= 10:
		return "Social media hook (5-10s)"
	case duration <= 30:
		return "Instagram Reel / TikTok (15-30s)"
	case duration <= 45:
		return "YouTube Short / Facebook (30-45s)"
	default:
		return "Full-form testimonial cut"
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func flowLabel(beats []model.BeatType) string {
	parts := make([]string, 0, len(beats))
	for _, b := range beats {
		parts = append(parts, string(b))
	}
	return strings.Join(parts, " -> ")
}
