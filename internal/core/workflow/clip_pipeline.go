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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements
// the clip pipeline: the staged run that takes an uploaded testimonial from
// transcript to persisted assets.
//
// Stage sequence and cumulative progress:
//
//	transcribing            15%  critical
//	analyzing               35%  critical
//	generating_story_clips  45%  non-critical
//	generating_video_clips  60%  critical
//	generating_text_assets  85%  critical
//	generating_visuals      90%  non-critical
//	finalizing             100%  critical
//
// Before each stage executes, the updated stage descriptor and progress
// value are persisted to the project registry, so status queries always see
// where a run is. A critical stage error fails the run with the error as
// the stage descriptor; a non-critical error is logged and absorbed.
//
// One run executes as a single goroutine with strictly sequential stages.
// There is no cancellation: a started run proceeds to completed or failed,
// and a retry is an entirely new run.
package workflow

import (
	"context"
	"text/template"

	"github.com/jaycherian/gcp-go-story-clips/internal/cloud"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/commands"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/services"
)

// Stage descriptors, visible verbatim through the status endpoint.
const (
	StageTranscribing = "transcribing"
	StageAnalyzing    = "analyzing"
	StageStoryClips   = "generating_story_clips"
	StageVideoClips   = "generating_video_clips"
	StageTextAssets   = "generating_text_assets"
	StageVisuals      = "generating_visuals"
	StageFinalizing   = "finalizing"
	StageCompleted    = "completed"
)

// ClipPipelineWorkflow owns the dependencies shared by every run and
// assembles a fresh staged pipeline per project.
type ClipPipelineWorkflow struct {
	config         *cloud.Config
	serviceClients *cloud.ServiceClients
	registry       *services.ProjectRegistry
	encoder        commands.MediaEncoder
	uploader       commands.ClipUploader
	momentTemplate *template.Template
	agentModelName string
}

// NewClipPipelineWorkflow is the constructor for the clip pipeline. It
// compiles the moment prompt template and wires the encoder and uploader
// collaborators.
//
// Inputs:
//   - config: The application's overall configuration.
//   - serviceClients: Initialized clients for GCP services.
//   - registry: The project registry runs report progress into.
//   - agentModelName: The agent model config used for moment identification.
func NewClipPipelineWorkflow(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	registry *services.ProjectRegistry,
	agentModelName string) *ClipPipelineWorkflow {

	momentTemplate, err := template.New("moment-template").Parse(config.PromptTemplates.MomentPrompt)
	if err != nil {
		panic(err) // The app cannot run without a valid prompt template.
	}

	return &ClipPipelineWorkflow{
		config:         config,
		serviceClients: serviceClients,
		registry:       registry,
		encoder:        commands.NewEncoder(config.Encoder),
		uploader:       commands.NewGCSClipUploader(serviceClients.StorageClient, config.Storage.ClipOutputBucket),
		momentTemplate: momentTemplate,
		agentModelName: agentModelName,
	}
}

// Run executes one complete pipeline run for the project. The project must
// already be registered and its SourcePath staged on local disk. Run blocks
// until the run reaches completed or failed; callers that want asynchrony
// start it in a goroutine. A nil return means the run completed; a failed
// critical stage yields a *model.FatalPipelineError naming the stage.
func (w *ClipPipelineWorkflow) Run(ctx context.Context, project *model.Project) error {
	corCtx := cor.NewBaseContext()
	corCtx.SetContext(ctx)
	corCtx.Add(commands.CtxProject, project)
	corCtx.Add(commands.CtxSourceFile, project.SourcePath)

	pipeline, sink := w.buildPipeline(project.Id)
	pipeline.Execute(corCtx)

	// Keep whatever the run produced available to the read APIs, even when
	// a later stage failed.
	if transcript, ok := corCtx.Get(commands.CtxTranscript).(*model.Transcript); ok {
		w.registry.SetTranscript(project.Id, transcript)
	}
	if suggestions, ok := corCtx.Get(commands.CtxSuggestions).([]*model.ClipSuggestion); ok {
		w.registry.SetSuggestions(project.Id, suggestions)
	}
	corCtx.Close()
	return sink.failure
}

// buildPipeline assembles the stage sequence, binding the progress sink to
// one project.
func (w *ClipPipelineWorkflow) buildPipeline(projectId string) (*cor.Pipeline, *registrySink) {
	sink := &registrySink{registry: w.registry, projectId: projectId}
	pipeline := cor.NewPipeline("clip-pipeline", sink)

	pipeline.AddStage(&cor.Stage{
		Name:     StageTranscribing,
		Percent:  15,
		Critical: true,
		Command:  commands.NewTranscribeCommand("transcribe-source", w.encoder, w.config),
	})

	analyze := cor.NewBaseChain("select-moments")
	analyze.AddCommand(commands.NewMomentIdentifier(
		"identify-moments",
		w.config,
		w.serviceClients.AgentModels[w.agentModelName],
		w.momentTemplate))
	analyze.AddCommand(commands.NewMomentSelector("select-moments"))
	pipeline.AddStage(&cor.Stage{
		Name:     StageAnalyzing,
		Percent:  35,
		Critical: true,
		Command:  analyze,
	})

	pipeline.AddStage(&cor.Stage{
		Name:     StageStoryClips,
		Percent:  45,
		Critical: false,
		Command:  commands.NewStoryClipPlanner("plan-story-clips"),
	})

	synthesizer := commands.NewClipSynthesizerCommand("synthesize-clips", w.encoder, w.uploader, w.config)
	synthesizer.BaseCommand.InputParamName = commands.CtxMoments
	pipeline.AddStage(&cor.Stage{
		Name:     StageVideoClips,
		Percent:  60,
		Critical: true,
		Command:  synthesizer,
	})

	textAssets := commands.NewTextAssetGenerator("generate-text-assets")
	textAssets.BaseCommand.InputParamName = commands.CtxMoments
	pipeline.AddStage(&cor.Stage{
		Name:     StageTextAssets,
		Percent:  85,
		Critical: true,
		Command:  textAssets,
	})

	pipeline.AddStage(&cor.Stage{
		Name:     StageVisuals,
		Percent:  90,
		Critical: false,
		Command:  commands.NewVisualSearchCommand("source-visuals", w.config),
	})

	finalize := cor.NewBaseChain("finalize")
	finalize.AddCommand(commands.NewMomentPersistToBigQuery(
		"persist-moments",
		w.serviceClients.BigQueryClient,
		w.config.BigQueryDataSource.DatasetName,
		w.config.BigQueryDataSource.MomentTable))
	finalize.AddCommand(commands.NewAssetPersistToBigQuery(
		"persist-assets",
		w.serviceClients.BigQueryClient,
		w.config.BigQueryDataSource.DatasetName,
		w.config.BigQueryDataSource.AssetTable))
	finalize.AddCommand(commands.NewWorkspaceCleanup("cleanup-workspace", w.config.Storage.LocalWorkDir))
	pipeline.AddStage(&cor.Stage{
		Name:     StageFinalizing,
		Percent:  100,
		Critical: true,
		Command:  finalize,
	})

	return pipeline, sink
}

// registrySink persists stage transitions for one project. It is the only
// writer of that project's pipeline state during a run.
type registrySink struct {
	registry  *services.ProjectRegistry
	projectId string
	percent   int
	failure   error
}

// OnStageStart persists the stage descriptor and progress before the stage
// runs.
func (s *registrySink) OnStageStart(stage *cor.Stage) {
	s.percent = stage.Percent
	s.registry.UpdateState(s.projectId, model.StatusProcessing, stage.Name, stage.Percent)
}

// OnFailure marks the run failed with the error as the stage descriptor and
// keeps the wrapped cause for Run to return.
func (s *registrySink) OnFailure(stage *cor.Stage, err error) {
	s.failure = &model.FatalPipelineError{Stage: stage.Name, Err: err}
	s.registry.UpdateState(s.projectId, model.StatusFailed, "Error: "+err.Error(), s.percent)
}

// OnComplete marks the run completed.
func (s *registrySink) OnComplete() {
	s.registry.UpdateState(s.projectId, model.StatusCompleted, StageCompleted, 100)
}
