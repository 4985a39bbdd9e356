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

// Package narrative implements the heuristic analysis core: per-segment
// quality scoring, story-beat classification, beat-to-arc assembly, and
// clip-suggestion planning. All components in this package are pure
// functions over transcript data; they never touch external services.
//
// This file holds the fixed keyword tables the heuristics match against.
// The tables are package-level constants in spirit: they are built once at
// init time and shared by reference, and nothing in the package mutates
// them afterwards.
package narrative

import (
	"regexp"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
)

// beatKeywords binds each narrative beat type to the phrases that signal it.
// Matching is case-insensitive substring containment over the segment text.
var beatKeywords = map[model.BeatType][]string{
	model.BeatHook: {
		"can't believe", "amazing", "incredible", "shocked", "blown away",
		"game changer", "life changing", "never thought", "best decision",
	},
	model.BeatProblem: {
		"struggling", "problem", "difficult", "hard", "challenge",
		"issue", "concerned", "worried", "frustrated", "used to",
	},
	model.BeatAgitation: {
		"costing", "losing", "wasting", "every day", "constantly",
		"always", "never", "tired of", "fed up",
	},
	model.BeatSolution: {
		"found", "discovered", "started using", "switched to", "tried",
		"implemented", "decided to", "chose", "recommend",
	},
	model.BeatProof: {
		"increased", "decreased", "improved", "doubled", "tripled",
		"saved", "gained", "achieved", "percent", "%", "times", "results",
	},
	model.BeatTransformation: {
		"before", "after", "now", "used to", "changed", "transformed",
		"completely", "totally", "entirely", "difference",
	},
	model.BeatEmotion: {
		"love", "happy", "excited", "thrilled", "grateful", "relieved",
		"confident", "peace of mind", "comfortable", "trust",
	},
	model.BeatCTA: {
		"recommend", "suggest", "try", "check out", "look into",
		"worth it", "give it a shot", "you should",
	},
	model.BeatContext: {
		"my name", "i'm a", "we are", "our business", "been using",
		"for about", "since", "when we started",
	},
}

// resultKeywords signal concrete outcomes. Each distinct match adds to the
// quality score.
var resultKeywords = []string{
	"increased", "decreased", "improved", "doubled", "tripled", "saved",
	"grew", "reduced", "gained", "achieved", "revenue", "results",
}

// emotionKeywords signal genuine reactions worth quoting.
var emotionKeywords = []string{
	"love", "amazing", "incredible", "excited", "thrilled", "grateful",
	"happy", "relieved", "game changer", "blown away",
}

// fillerWords are disfluencies counted token-by-token; a high filler ratio
// penalizes the segment.
var fillerWords = map[string]bool{
	"um":        true,
	"uh":        true,
	"like":      true,
	"basically": true,
	"actually":  true,
	"literally": true,
	"honestly":  true,
	"right":     true,
	"so":        true,
}

// questionStarters are interviewer-phrase indicators checked against the
// first three words of a segment. A segment that opens with one of these is
// almost always the interviewer talking, not the subject.
var questionStarters = []string{
	"what", "how", "why", "when", "where", "who",
	"can you", "could you", "would you", "do you", "did you", "tell me",
}

// numericResultPattern matches quantified outcomes: percentages,
// multipliers, and currency amounts.
var numericResultPattern = regexp.MustCompile(`\d+(\.\d+)?\s*(%|percent|x\b|times)|[$€£]\s*\d`)
