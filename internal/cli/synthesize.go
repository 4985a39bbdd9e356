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

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/commands"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
)

// synthesisReport is the JSON document the synthesize command prints.
type synthesisReport struct {
	ProjectId string          `json:"project_id"`
	WorkDir   string          `json:"work_dir"`
	Moments   []*model.Moment `json:"moments"`
	Assets    []*model.Asset  `json:"assets"`
}

// runSynthesize transcribes the input, selects moments with the heuristic
// scorer, cuts the clip variants into the work directory, and generates
// the text assets. Results are printed as JSON; clips are left under
// {workdir}/{projectId}/clips.
func runSynthesize(cmd *cobra.Command, input string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	project, corCtx, _, err := transcribeLocal(cmd, config, input)
	if err != nil {
		return err
	}
	defer corCtx.Close()

	// No generative model offline; an empty response makes the selector
	// take the heuristic path.
	corCtx.Add(cor.CtxIn, "")
	selector := commands.NewMomentSelector("select-moments")
	selector.Execute(corCtx)
	if corCtx.HasErrors() {
		return fmt.Errorf("moment selection failed: %w", firstError(corCtx))
	}
	moments := corCtx.Get(commands.CtxMoments).([]*model.Moment)

	encoder := commands.NewEncoder(config.Encoder)
	synthesizer := commands.NewClipSynthesizerCommand(
		"synthesize-clips", encoder, &commands.LocalClipUploader{}, config)
	synthesizer.BaseCommand.InputParamName = commands.CtxMoments
	synthesizer.Execute(corCtx)
	if corCtx.HasErrors() {
		return fmt.Errorf("clip synthesis failed: %w", firstError(corCtx))
	}

	textAssets := commands.NewTextAssetGenerator("generate-text-assets")
	textAssets.BaseCommand.InputParamName = commands.CtxMoments
	textAssets.Execute(corCtx)
	if corCtx.HasErrors() {
		return fmt.Errorf("text asset generation failed: %w", firstError(corCtx))
	}

	assets, _ := corCtx.Get(commands.CtxAssets).([]*model.Asset)
	report := synthesisReport{
		ProjectId: project.Id,
		WorkDir:   config.Storage.LocalWorkDir,
		Moments:   moments,
		Assets:    assets,
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(out))
	return nil
}
