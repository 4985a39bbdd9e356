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
// This file contains the transcript models produced by the transcription
// collaborator and consumed by the narrative analysis pipeline. Transcript
// data is transient: it is created once per transcription pass, held in
// memory for the duration of a pipeline run, and never mutated afterwards.
//
// Structs:
//   - TranscriptSegment: A single timed utterance from the transcript.
//   - Transcript: The full transcription result, including the ordered
//     segment list and concatenated text.
//   - ScoredSegment: A TranscriptSegment paired with its computed content
//     quality score and, when rejected, the reason it was rejected.
package model

import "strings"

// RejectReason identifies why the segment scorer assigned a segment a
// short-circuit score instead of evaluating its content quality. The set is
// closed; Quality means the segment passed all of the rejection rules and
// carries an accumulated content score.
type RejectReason string

const (
	RejectEmpty              RejectReason = "empty"
	RejectTooShort           RejectReason = "too_short"
	RejectIsQuestion         RejectReason = "is_question"
	RejectStartsWithQuestion RejectReason = "starts_with_question"
	RejectQuality            RejectReason = "quality"
)

// TranscriptSegment is a single timed utterance produced by the transcription
// collaborator. Segments are ordered non-decreasing by Start and are immutable
// once produced.
type TranscriptSegment struct {
	Start float64 `json:"start"` // Segment start offset from the beginning of the source, in seconds.
	End   float64 `json:"end"`   // Segment end offset, in seconds.
	Text  string  `json:"text"`  // The transcribed text for this time span.
}

// Duration returns the length of the segment in seconds.
func (s *TranscriptSegment) Duration() float64 {
	return s.End - s.Start
}

// Words returns the whitespace-separated tokens of the segment text.
func (s *TranscriptSegment) Words() []string {
	return strings.Fields(s.Text)
}

// Transcript is the complete transcription result for one source video.
type Transcript struct {
	FullText string               `json:"full_text"` // All segment texts joined with single spaces.
	Language string               `json:"language"`  // BCP-47 language tag reported by the transcriber.
	Segments []*TranscriptSegment `json:"segments"`  // Time-ordered utterances.
}

// DurationSeconds returns the end offset of the final segment, which is the
// effective spoken duration of the transcript. Returns 0 for an empty
// transcript.
func (t *Transcript) DurationSeconds() float64 {
	if len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End
}

// ScoredSegment pairs a transcript segment with the quality score computed by
// the segment scorer. ScoredSegments are derived values: they are recomputed
// on demand and never persisted.
type ScoredSegment struct {
	Segment      *TranscriptSegment // The underlying transcript segment.
	QualityScore float64            // Non-negative heuristic content quality rating.
	Reason       RejectReason       // Why the score was short-circuited, or RejectQuality.
}
