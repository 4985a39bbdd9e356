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

package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-story-clips/internal/cloud"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/commands"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/narrative"
)

// analysisReport is the JSON document the analyze command prints.
type analysisReport struct {
	ProjectId   string                  `json:"project_id"`
	Transcript  *model.Transcript       `json:"transcript"`
	Beats       []*model.StoryBeat      `json:"beats"`
	Arcs        []*model.StoryArc       `json:"arcs"`
	Suggestions []*model.ClipSuggestion `json:"clip_suggestions"`
}

// runAnalyze transcribes the input and prints the detected beats, arcs,
// and clip suggestions as JSON.
func runAnalyze(cmd *cobra.Command, input string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	project, corCtx, transcript, err := transcribeLocal(cmd, config, input)
	if err != nil {
		return err
	}
	defer corCtx.Close()

	beats := narrative.NewBeatClassifier().DetectBeats(transcript.Segments)
	arcs := narrative.NewArcBuilder().BuildArcs(beats)
	suggestions := narrative.NewClipPlanner().Plan(arcs)

	report := analysisReport{
		ProjectId:   project.Id,
		Transcript:  transcript,
		Beats:       beats,
		Arcs:        arcs,
		Suggestions: suggestions,
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(out))
	return nil
}

// transcribeLocal stages a chain context for the input file and runs the
// transcription command against it. The caller owns the returned context
// and must Close it to release temp files.
func transcribeLocal(cmd *cobra.Command, config *cloud.Config, input string) (*model.Project, cor.Context, *model.Transcript, error) {
	absIn, err := filepath.Abs(input)
	if err != nil {
		return nil, nil, nil, err
	}

	project := model.NewProject(filepath.Base(absIn), "testimonial")
	project.SourcePath = absIn

	corCtx := cor.NewBaseContext()
	corCtx.SetContext(cmd.Context())
	corCtx.Add(commands.CtxProject, project)
	corCtx.Add(commands.CtxSourceFile, absIn)

	encoder := commands.NewEncoder(config.Encoder)
	transcribe := commands.NewTranscribeCommand("transcribe-source", encoder, config)
	transcribe.Execute(corCtx)
	if corCtx.HasErrors() {
		err := firstError(corCtx)
		corCtx.Close()
		return nil, nil, nil, fmt.Errorf("transcription failed: %w", err)
	}

	transcript := corCtx.Get(commands.CtxTranscript).(*model.Transcript)
	return project, corCtx, transcript, nil
}

func firstError(corCtx cor.Context) error {
	for _, err := range corCtx.GetErrors() {
		return err
	}
	return fmt.Errorf("unknown error")
}
