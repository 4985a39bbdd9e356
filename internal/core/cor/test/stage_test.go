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

// Package cor_test contains unit tests for the staged pipeline extension of
// the workflow engine: stage ordering, the critical / non-critical error
// policy, inter-stage piping, and progress sink notifications.
package cor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/cor"
)

// recordingSink captures every sink notification so tests can assert on the
// exact transition sequence a pipeline produced.
type recordingSink struct {
	started  []string
	percents []int
	failed   string
	err      error
	complete bool
}

func (s *recordingSink) OnStageStart(stage *cor.Stage) {
	s.started = append(s.started, stage.Name)
	s.percents = append(s.percents, stage.Percent)
}

func (s *recordingSink) OnFailure(stage *cor.Stage, err error) {
	s.failed = stage.Name
	s.err = err
}

func (s *recordingSink) OnComplete() {
	s.complete = true
}

// stubCommand is a minimal command whose behavior each test scripts: it can
// fail, and it records what input it saw before publishing its output.
type stubCommand struct {
	cor.BaseCommand
	fail     error
	output   interface{}
	sawInput interface{}
	ran      bool
}

func newStubCommand(name string) *stubCommand {
	return &stubCommand{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *stubCommand) IsExecutable(_ cor.Context) bool { return true }

func (c *stubCommand) Execute(ctx cor.Context) {
	c.ran = true
	c.sawInput = ctx.Get(c.GetInputParam())
	if c.fail != nil {
		ctx.AddError(c.GetName(), c.fail)
		return
	}
	if c.output != nil {
		ctx.Add(cor.CtxOut, c.output)
	}
}

// newTestContext builds a chain context bound to a background Go context.
func newTestContext() cor.Context {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	return ctx
}

// TestPipelineRunsStagesInOrder verifies that every stage runs exactly once,
// in declaration order, and that the sink sees each start with the stage's
// progress value before seeing completion.
func TestPipelineRunsStagesInOrder(t *testing.T) {
	sink := &recordingSink{}
	first := newStubCommand("first")
	second := newStubCommand("second")

	pipeline := cor.NewPipeline("test-pipeline", sink)
	pipeline.AddStage(&cor.Stage{Name: "stage_one", Percent: 40, Critical: true, Command: first})
	pipeline.AddStage(&cor.Stage{Name: "stage_two", Percent: 100, Critical: true, Command: second})

	pipeline.Execute(newTestContext())

	// Both commands must have executed.
	assert.True(t, first.ran)
	assert.True(t, second.ran)
	// The sink must see the stages in declaration order.
	assert.Equal(t, []string{"stage_one", "stage_two"}, sink.started)
	// Each start notification carries the stage's cumulative progress.
	assert.Equal(t, []int{40, 100}, sink.percents)
	// The run finished, so the completion callback fired.
	assert.True(t, sink.complete)
	// No stage failed.
	assert.Empty(t, sink.failed)
}

// TestPipelinePipesOutputBetweenStages verifies the CtxOut to CtxIn flip
// between adjacent stages: the second stage's input is the first stage's
// output.
func TestPipelinePipesOutputBetweenStages(t *testing.T) {
	first := newStubCommand("producer")
	first.output = "produced-value"
	second := newStubCommand("consumer")

	pipeline := cor.NewPipeline("piping-pipeline", nil)
	pipeline.AddStage(&cor.Stage{Name: "produce", Percent: 50, Critical: true, Command: first})
	pipeline.AddStage(&cor.Stage{Name: "consume", Percent: 100, Critical: true, Command: second})

	chCtx := newTestContext()
	pipeline.Execute(chCtx)

	// The consumer's primary input is what the producer published.
	assert.Equal(t, "produced-value", second.sawInput)
	// The reserved output key is cleared once the run ends.
	assert.Nil(t, chCtx.Get(cor.CtxOut))
}

// TestPipelineCriticalFailureHalts verifies that an error in a critical
// stage stops the run: remaining stages never execute, the sink is told
// which stage failed and why, and completion never fires.
func TestPipelineCriticalFailureHalts(t *testing.T) {
	sink := &recordingSink{}
	boom := errors.New("encoder exploded")
	first := newStubCommand("fails")
	first.fail = boom
	second := newStubCommand("never-runs")

	pipeline := cor.NewPipeline("halting-pipeline", sink)
	pipeline.AddStage(&cor.Stage{Name: "critical_stage", Percent: 30, Critical: true, Command: first})
	pipeline.AddStage(&cor.Stage{Name: "unreached", Percent: 100, Critical: true, Command: second})

	chCtx := newTestContext()
	pipeline.Execute(chCtx)

	// The failing stage is reported to the sink with its cause.
	assert.Equal(t, "critical_stage", sink.failed)
	assert.Equal(t, boom, sink.err)
	// The downstream stage must not have started.
	assert.False(t, second.ran)
	assert.Equal(t, []string{"critical_stage"}, sink.started)
	// A failed run never completes.
	assert.False(t, sink.complete)
	// The error stays recorded on the context for the caller to inspect.
	assert.True(t, chCtx.HasErrors())
}

// TestPipelineNonCriticalFailureAbsorbed verifies that a non-critical stage
// error is cleared from the context and the run continues to completion.
func TestPipelineNonCriticalFailureAbsorbed(t *testing.T) {
	sink := &recordingSink{}
	first := newStubCommand("optional")
	first.fail = errors.New("stock photos unavailable")
	second := newStubCommand("still-runs")

	pipeline := cor.NewPipeline("absorbing-pipeline", sink)
	pipeline.AddStage(&cor.Stage{Name: "optional_stage", Percent: 60, Critical: false, Command: first})
	pipeline.AddStage(&cor.Stage{Name: "final_stage", Percent: 100, Critical: true, Command: second})

	chCtx := newTestContext()
	pipeline.Execute(chCtx)

	// The failure was absorbed, so the next stage still ran.
	assert.True(t, second.ran)
	// The run reached completion and no failure was reported.
	assert.True(t, sink.complete)
	assert.Empty(t, sink.failed)
	// The absorbed errors are gone from the context.
	assert.False(t, chCtx.HasErrors())
}

// TestPipelineNonExecutableStageFails verifies that a stage whose command
// declines the precondition check is treated as a stage error.
func TestPipelineNonExecutableStageFails(t *testing.T) {
	sink := &recordingSink{}
	cmd := newStubCommand("guarded")

	pipeline := cor.NewPipeline("guarded-pipeline", sink)
	pipeline.AddStage(&cor.Stage{Name: "guarded_stage", Percent: 100, Critical: true, Command: &notExecutable{cmd}})

	pipeline.Execute(newTestContext())

	// The command never ran and the stage failure was reported.
	assert.False(t, cmd.ran)
	assert.Equal(t, "guarded_stage", sink.failed)
	assert.False(t, sink.complete)
}

// notExecutable wraps a command and always declines the precondition.
type notExecutable struct {
	*stubCommand
}

func (c *notExecutable) IsExecutable(_ cor.Context) bool { return false }
