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

// This file implements the BeatClassifier, which tags transcript segments
// with narrative beat types (hook, problem, solution, proof, and so on)
// using the fixed keyword tables in keywords.go.
//
// Logic Flow (Classify):
// 1. Lowercase the segment text once.
// 2. For each beat type, count the distinct keywords contained in the text.
//    Confidence is 0.2 per match, plus a 0.3 bonus when two or more distinct
//    keywords matched, capped at 1.0.
// 3. Types with confidence at or below 0.2 are dropped; the survivors are
//    returned sorted descending by confidence. Beat types are always scanned
//    in their declaration order so equal-confidence results rank
//    deterministically.
package narrative

import (
	"sort"
	"strings"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
)

// minBeatConfidence is the floor below which a classification is considered
// noise and discarded.
const minBeatConfidence = 0.2

// BeatClassification is one candidate tag for a segment.
type BeatClassification struct {
	Type       model.BeatType
	Confidence float64
	Keywords   []string
}

// BeatClassifier tags segments with narrative beat types. The zero value is
// ready to use.
type BeatClassifier struct{}

func NewBeatClassifier() *BeatClassifier {
	return &BeatClassifier{}
}

// Classify returns the qualifying beat classifications for one segment,
// sorted descending by confidence. A segment that matches nothing returns an
// empty slice.
func (c *BeatClassifier) Classify(segment *model.TranscriptSegment) []BeatClassification {
	lower := strings.ToLower(segment.Text)
	out := make([]BeatClassification, 0, 3)

	for _, beatType := range model.BeatTypes {
		var matched []string
		for _, kw := range beatKeywords[beatType] {
			if strings.Contains(lower, kw) {
				matched = append(matched, kw)
			}
		}
		confidence := 0.2 * float64(len(matched))
		if len(matched) >= 2 {
			confidence += 0.3
		}
		if confidence > 1.0 {
			confidence = 1.0
		}
		if confidence > minBeatConfidence {
			out = append(out, BeatClassification{Type: beatType, Confidence: confidence, Keywords: matched})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// DetectBeats classifies every segment and emits a time-ordered list of
// story beats. Only the top-ranked classification per segment becomes a
// beat; segments with no qualifying classification are skipped. The beat's
// keyword set aggregates the matches from all of the segment's qualifying
// classifications, which keeps the weaker signals visible downstream.
func (c *BeatClassifier) DetectBeats(segments []*model.TranscriptSegment) []*model.StoryBeat {
	beats := make([]*model.StoryBeat, 0, len(segments))

	for _, seg := range segments {
		classifications := c.Classify(seg)
		if len(classifications) == 0 {
			continue
		}
		best := classifications[0]
		var keywords []string
		for _, cl := range classifications {
			keywords = append(keywords, cl.Keywords...)
		}
		beats = append(beats, &model.StoryBeat{
			Type:       best.Type,
			Start:      seg.Start,
			End:        seg.End,
			Text:       seg.Text,
			Importance: best.Confidence,
			Keywords:   keywords,
		})
	}

	sort.SliceStable(beats, func(i, j int) bool {
		return beats[i].Start < beats[j].Start
	})
	return beats
}
