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

// Package cor (Chain of Responsibility) is the workflow engine underneath
// the clip pipeline. A workflow is a sequence of commands that share one
// mutable Context; each command reads its input from the context, does one
// unit of work (probe a file, call the model, run the encoder), and writes
// its output back for the next command. This file declares the interfaces
// the engine is built from, so commands, chains, and contexts stay
// swappable in tests.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the reserved keys the engine uses to pipe data
// between adjacent commands in a chain.
const (
	// CtxIn holds the primary input for the next command to run. The chain
	// fills it from the previous command's output.
	CtxIn = "__IN__"
	// CtxOut is where a command leaves its primary output. The chain moves
	// it into CtxIn before the next command runs.
	CtxOut = "__OUT__"
)

// Context is the shared state for one workflow execution: a property bag of
// intermediate values, the errors commands have raised, and the temp files
// they created along the way.
type Context interface {
	// SetContext swaps the standard Go context, which carries cancellation
	// and the active trace span.
	SetContext(context context.Context)

	// GetContext returns the standard Go context.
	GetContext() context.Context

	// Add stores a value under a key and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records a command failure, keyed by the command's name.
	AddError(key string, err error)

	// GetErrors returns every error recorded so far.
	GetErrors() map[string]error

	// Get looks up a stored value, nil when absent.
	Get(key string) interface{}

	// Remove drops a key from the bag.
	Remove(key string)

	// HasErrors reports whether any command has failed.
	HasErrors() bool

	// ClearErrors drops all recorded errors. The staged pipeline uses this
	// to absorb non-critical stage failures.
	ClearErrors()

	// AddTempFile registers a scratch file for cleanup at Close.
	AddTempFile(file string)

	// GetTempFiles lists the registered scratch files.
	GetTempFiles() []string

	// Close deletes the registered scratch files. Defer it where the
	// workflow starts.
	Close()
}

// Executable is anything with a single execute entry point over a Context.
type Executable interface {
	Execute(context Context)
}

// Command is one atomic, individually traceable unit of work in a
// workflow.
type Command interface {
	Executable

	// GetName identifies the command in logs, traces, and error keys.
	GetName() string

	// GetInputParam names the context key the command reads its primary
	// input from.
	GetInputParam() string

	// GetOutputParam names the context key the command writes its primary
	// output to.
	GetOutputParam() string

	// IsExecutable is the precondition check run before Execute.
	IsExecutable(context Context) bool

	// GetTracer returns the command's OpenTelemetry tracer.
	GetTracer() trace.Tracer

	// GetMeter returns the command's OpenTelemetry meter.
	GetMeter() metric.Meter

	// GetSuccessCounter counts successful executions.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter counts failed executions.
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. A Chain is itself a Command, so
// chains nest inside other chains.
type Chain interface {
	Command

	// ContinueOnFailure controls whether the chain keeps executing after a
	// command records an error. The default is to stop.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
