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

// This file exercises the BeatClassifier's keyword matching, confidence
// math, and beat detection over whole transcripts.
package narrative_test

import (
	"testing"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/narrative"
	"github.com/stretchr/testify/assert"
)

// TestClassifyConfidence verifies the confidence formula: 0.2 per distinct
// keyword, a 0.3 bonus at two or more matches, capped at 1.0.
func TestClassifyConfidence(t *testing.T) {
	classifier := narrative.NewBeatClassifier()

	// One problem keyword ("struggling") scores 0.2, which is at the floor
	// and therefore dropped.
	single := classifier.Classify(segment(0, 10, "we were struggling a bit"))
	assert.Empty(t, single)

	// Two problem keywords ("struggling", "frustrated") score
	// 0.2*2 + 0.3 = 0.7.
	double := classifier.Classify(segment(0, 10, "we were struggling and everyone was frustrated"))
	assert.Len(t, double, 1)
	assert.Equal(t, model.BeatProblem, double[0].Type)
	assert.InDelta(t, 0.7, double[0].Confidence, 0.0001)

	// Five proof keywords cap at 1.0.
	capped := classifier.Classify(segment(0, 10, "we increased and improved results, doubled and tripled everything"))
	assert.Equal(t, model.BeatProof, capped[0].Type)
	assert.InDelta(t, 1.0, capped[0].Confidence, 0.0001)
}

// TestClassifyRanksDescending verifies a segment matching several beat
// types returns them sorted by confidence.
func TestClassifyRanksDescending(t *testing.T) {
	classifier := narrative.NewBeatClassifier()
	// Proof matches "doubled" and "results"; emotion matches "love" only,
	// which lands at the 0.2 floor and is dropped.
	out := classifier.Classify(segment(0, 10, "we doubled our results, we were struggling and frustrated before"))

	assert.NotEmpty(t, out)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Confidence, out[i].Confidence)
	}
}

// TestDetectBeats verifies that only the top classification per segment
// becomes a beat, unmatched segments produce nothing, and the output is
// time-ordered.
func TestDetectBeats(t *testing.T) {
	classifier := narrative.NewBeatClassifier()
	segments := []*model.TranscriptSegment{
		segment(0, 8, "we were struggling and everyone was frustrated"),
		segment(10, 15, "the weather was nice that day"),
		segment(16, 24, "then we discovered this tool and decided to roll it out"),
		segment(26, 33, "we doubled our revenue and the results kept improving"),
	}

	beats := classifier.DetectBeats(segments)

	assert.Len(t, beats, 3)
	assert.Equal(t, model.BeatProblem, beats[0].Type)
	assert.Equal(t, model.BeatSolution, beats[1].Type)
	assert.Equal(t, model.BeatProof, beats[2].Type)
	for i := 1; i < len(beats); i++ {
		assert.LessOrEqual(t, beats[i-1].Start, beats[i].Start)
	}
	// The beat inherits its segment's span and text.
	assert.Equal(t, 0.0, beats[0].Start)
	assert.Equal(t, 8.0, beats[0].End)
	assert.NotEmpty(t, beats[0].Keywords)
}
