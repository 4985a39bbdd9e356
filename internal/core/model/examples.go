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

// Package model defines the data structures for the application. This file,
// `examples.go`, provides factory functions for creating hardcoded, example
// instances of the data models.
//
// These example objects are crucial for "few-shot" prompting with the
// generative AI models. By providing a concrete example of the desired JSON
// output structure within the prompt itself, we guide the AI to return data
// that is consistent, correctly formatted, and easily parsable.
package model

// GetExampleMoments creates a sample slice of Moment objects. It is used to
// provide a "few-shot" learning example to the generative AI model when it is
// asked to identify the most asset-worthy moments in a testimonial
// transcript. The examples show the AI the expected JSON structure, the
// moment type vocabulary, and the score ranges for sentiment, importance,
// and quotability. Identity and timestamp fields are overwritten when the
// response is converted to persistent records, so their example values are
// placeholders only.
//
// Outputs:
//   - []*Moment: A slice of hardcoded Moment objects.
func GetExampleMoments() []*Moment {
	problem := &Moment{
		Type:            MomentProblem,
		StartTime:       12.4,
		EndTime:         31.0,
		Transcript:      "We were spending almost twenty hours a week just reconciling spreadsheets, and every quarter close felt like a fire drill.",
		Summary:         "Manual reconciliation consumed the finance team and made quarter close chaotic.",
		SentimentScore:  -0.6,
		ImportanceScore: 0.85,
		QuotableText:    "Every quarter close felt like a fire drill.",
		QuotableScore:   0.8,
	}
	result := &Moment{
		Type:            MomentResult,
		StartTime:       64.2,
		EndTime:         79.5,
		Transcript:      "Within two months we had cut our close time from ten days to three, and the team actually took vacations again.",
		Summary:         "Close time dropped from ten days to three within two months of adoption.",
		SentimentScore:  0.9,
		ImportanceScore: 0.95,
		QuotableText:    "We cut our close time from ten days to three.",
		QuotableScore:   0.9,
	}
	return []*Moment{problem, result}
}
