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

// This file implements the SegmentScorer, the heuristic that rates how
// asset-worthy a single transcript segment is. The score feeds the fallback
// moment-selection path used when the generative AI collaborator is
// unavailable or returns unusable output.
//
// Logic Flow (Score):
// 1. A short-circuit filter rejects segments that can never be useful:
//    blank text, spans under three seconds, and interviewer questions
//    (trailing "?" or a question-starter phrase in the first three words).
//    Each rejection carries a fixed low score and a reject reason.
// 2. Surviving segments accumulate a quality score: penalties for rambling
//    (over 45 seconds) and a high filler-word ratio, bonuses for distinct
//    result and emotion keywords, an ideal 5-20 second span, a natural
//    2-4 words-per-second pace, and a quantified numeric result. The score
//    is floored at zero.
package narrative

import (
	"sort"
	"strings"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
)

// qualityThreshold is the minimum score a segment must exceed to be
// considered a candidate by SelectBest.
const qualityThreshold = 0.3

// SegmentScorer rates transcript segments for quotability. The zero value
// is ready to use; the type exists so callers can hold it as a collaborator
// rather than reaching for package functions.
type SegmentScorer struct{}

func NewSegmentScorer() *SegmentScorer {
	return &SegmentScorer{}
}

// Score evaluates one segment. The filter rules run in strict priority
// order and the first match wins; only segments that pass every filter get
// the accumulated quality score.
//
// Inputs:
//   - segment: The transcript segment to rate.
//
// Outputs:
//   - *model.ScoredSegment: The segment paired with its score and reason.
func (s *SegmentScorer) Score(segment *model.TranscriptSegment) *model.ScoredSegment {
	text := strings.TrimSpace(segment.Text)
	if text == "" {
		return &model.ScoredSegment{Segment: segment, QualityScore: 0.0, Reason: model.RejectEmpty}
	}
	if segment.Duration() < 3 {
		return &model.ScoredSegment{Segment: segment, QualityScore: 0.1, Reason: model.RejectTooShort}
	}
	if strings.HasSuffix(text, "?") {
		return &model.ScoredSegment{Segment: segment, QualityScore: 0.1, Reason: model.RejectIsQuestion}
	}
	if startsWithQuestion(text) {
		return &model.ScoredSegment{Segment: segment, QualityScore: 0.15, Reason: model.RejectStartsWithQuestion}
	}

	lower := strings.ToLower(text)
	words := strings.Fields(lower)
	duration := segment.Duration()
	score := 0.0

	if duration > 45 {
		score -= 0.2
	}
	if fillerRatio(words) > 0.15 {
		score -= 0.3
	}
	for _, kw := range resultKeywords {
		if strings.Contains(lower, kw) {
			score += 0.25
		}
	}
	for _, kw := range emotionKeywords {
		if strings.Contains(lower, kw) {
			score += 0.2
		}
	}
	if duration >= 5 && duration <= 20 {
		score += 0.3
	}
	if wps := float64(len(words)) / duration; wps >= 2 && wps <= 4 {
		score += 0.2
	}
	if numericResultPattern.MatchString(lower) {
		score += 0.4
	}
	if score < 0 {
		score = 0
	}
	return &model.ScoredSegment{Segment: segment, QualityScore: score, Reason: model.RejectQuality}
}

// SelectBest scores every segment and returns up to max candidates sorted
// descending by score. Only segments above the quality threshold qualify; if
// none do, it falls back to the max longest segments so the caller always
// gets something to work with when the input is non-empty.
func (s *SegmentScorer) SelectBest(segments []*model.TranscriptSegment, max int) []*model.ScoredSegment {
	scored := make([]*model.ScoredSegment, 0, len(segments))
	for _, seg := range segments {
		scored = append(scored, s.Score(seg))
	}

	candidates := make([]*model.ScoredSegment, 0, len(scored))
	for _, sc := range scored {
		if sc.QualityScore > qualityThreshold {
			candidates = append(candidates, sc)
		}
	}

	if len(candidates) == 0 {
		// Nothing cleared the bar. Hand back the longest segments instead.
		candidates = append(candidates, scored...)
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Segment.Duration() > candidates[j].Segment.Duration()
		})
	} else {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].QualityScore > candidates[j].QualityScore
		})
	}

	if len(candidates) > max {
		candidates = candidates[:max]
	}
	return candidates
}

// startsWithQuestion reports whether the first three words of the text
// contain a question-starter phrase.
func startsWithQuestion(text string) bool {
	words := strings.Fields(strings.ToLower(text))
	if len(words) > 3 {
		words = words[:3]
	}
	head := " " + strings.Join(words, " ") + " "
	for _, starter := range questionStarters {
		if strings.Contains(head, " "+starter+" ") {
			return true
		}
	}
	return false
}

// fillerRatio returns the fraction of tokens that are disfluencies.
func fillerRatio(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	count := 0
	for _, w := range words {
		if fillerWords[strings.Trim(w, ".,!")] {
			count++
		}
	}
	return float64(count) / float64(len(words))
}
