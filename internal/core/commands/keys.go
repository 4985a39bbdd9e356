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

package commands

// Well-known workflow context keys. Commands that produce values other
// consumers need by name (rather than through the chain's input/output
// piping) publish them under these keys.
const (
	// CtxProject holds the *model.Project the run belongs to.
	CtxProject = "__PROJECT__"
	// CtxSourceFile holds the local path of the uploaded source video.
	CtxSourceFile = "__SOURCE_FILE__"
	// CtxSourceSizeMB holds the staged source's size in megabytes (float64).
	CtxSourceSizeMB = "__SOURCE_SIZE_MB__"
	// CtxTranscript holds the *model.Transcript produced by transcription.
	CtxTranscript = "__TRANSCRIPT__"
	// CtxMoments holds the []*model.Moment selected for asset generation.
	CtxMoments = "__MOMENTS__"
	// CtxAssets holds the accumulated []*model.Asset for the run.
	CtxAssets = "__ASSETS__"
	// CtxSuggestions holds the []*model.ClipSuggestion from story planning.
	CtxSuggestions = "__STORY_SUGGESTIONS__"
)
