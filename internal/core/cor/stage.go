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

// This file defines the staged pipeline extension of the workflow engine.
//
// A plain chain treats every command failure the same way: stop, unless
// configured to continue. The clip pipeline needs a finer policy. Its run is
// divided into named stages, each with a cumulative progress value and a
// criticality flag. An error inside a critical stage fails the whole run; an
// error inside a non-critical stage (story-arc detection, stock visuals) is
// logged and dropped, and the run carries on. A ProgressSink observes stage
// transitions so the caller can persist externally visible state before each
// stage executes.
//
// Logic Flow (Pipeline.Execute):
// 1. For each stage in order, notify the sink with the stage's descriptor
//    and progress, then run the stage's command under its own span with the
//    usual CtxOut to CtxIn piping.
// 2. If the command recorded errors and the stage is critical, notify the
//    sink of the failure and stop; the remaining stages never run.
// 3. If the stage is non-critical, log the errors, clear them from the
//    context, and continue to the next stage untainted.
// 4. When every stage has run, notify the sink of completion.
package cor

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
)

// Stage is one named step of a pipeline run.
type Stage struct {
	Name     string  // Externally visible stage descriptor.
	Percent  int     // Cumulative progress in [0,100] reported when the stage begins.
	Critical bool    // When true, an error in this stage fails the whole run.
	Command  Command // The work itself, usually a chain.
}

// ProgressSink observes pipeline lifecycle transitions. Implementations
// persist them so status queries can see where a run is.
type ProgressSink interface {
	// OnStageStart fires before the stage's command executes.
	OnStageStart(stage *Stage)
	// OnFailure fires when a critical stage fails; err carries the cause.
	OnFailure(stage *Stage, err error)
	// OnComplete fires after the final stage succeeds.
	OnComplete()
}

// Pipeline executes stages strictly in order under the critical /
// non-critical policy. It is a Command, so a pipeline can be nested in a
// chain when needed.
type Pipeline struct {
	BaseCommand
	stages []*Stage
	sink   ProgressSink
}

// NewPipeline creates an empty pipeline with the given name for tracing.
func NewPipeline(name string, sink ProgressSink) *Pipeline {
	return &Pipeline{BaseCommand: *NewBaseCommand(name), sink: sink}
}

// AddStage appends a stage and returns the pipeline for fluent building.
func (p *Pipeline) AddStage(stage *Stage) *Pipeline {
	p.stages = append(p.stages, stage)
	return p
}

// IsExecutable requires only a live Go context.
func (p *Pipeline) IsExecutable(context Context) bool {
	return context.GetContext() != nil
}

// Execute runs the stage sequence. On a critical failure the remaining
// stages are skipped and the sink is notified; non-critical failures are
// logged and absorbed.
func (p *Pipeline) Execute(chCtx Context) {
	parentCtx := chCtx.GetContext()
	outerCtx, pipelineSpan := p.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", p.GetName()))
	defer pipelineSpan.End()

	for _, stage := range p.stages {
		if p.sink != nil {
			p.sink.OnStageStart(stage)
		}

		stageContext, stageSpan := p.Tracer.Start(outerCtx, stage.Name)
		chCtx.SetContext(stageContext)
		if stage.Command.IsExecutable(chCtx) {
			stage.Command.Execute(chCtx)
		} else {
			chCtx.AddError(stage.Name, fmt.Errorf("stage not executable: %s", stage.Name))
		}
		chCtx.SetContext(outerCtx)

		if chCtx.HasErrors() {
			err := firstError(chCtx.GetErrors())
			if stage.Critical {
				stageSpan.SetStatus(codes.Error, "critical stage failed")
				stageSpan.End()
				pipelineSpan.SetStatus(codes.Error, fmt.Sprintf("pipeline halted at stage %s", stage.Name))
				p.ErrorCounter.Add(outerCtx, 1)
				if p.sink != nil {
					p.sink.OnFailure(stage, err)
				}
				return
			}
			// Non-critical: note it and move on with a clean slate.
			for name, stageErr := range chCtx.GetErrors() {
				slog.Warn("non-critical stage error",
					"stage", stage.Name,
					"command", name,
					"error", stageErr.Error())
			}
			chCtx.ClearErrors()
			stageSpan.SetStatus(codes.Error, "non-critical stage failed; continuing")
		} else {
			stageSpan.SetStatus(codes.Ok, "stage completed")
		}
		stageSpan.End()

		// Pipe the stage's output into the next stage's input.
		outputValue := chCtx.Get(CtxOut)
		chCtx.Remove(CtxIn)
		if outputValue != nil {
			chCtx.Add(CtxIn, outputValue)
		}
		chCtx.Remove(CtxOut)
	}

	pipelineSpan.SetStatus(codes.Ok, "pipeline completed")
	p.SuccessCounter.Add(outerCtx, 1)
	if p.sink != nil {
		p.sink.OnComplete()
	}
}

func firstError(errs map[string]error) error {
	for _, err := range errs {
		return err
	}
	return nil
}
