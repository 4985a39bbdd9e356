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

// This file defines `BaseCommand`, the foundation every concrete command in
// the pipeline embeds. It carries the command's name, its OpenTelemetry
// tracer, meter, and success/error counters, and the default input/output
// parameter handling that makes the chain's piping work without per-command
// boilerplate.
package cor

import (
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// BaseCommand provides the shared plumbing for the Command interface.
type BaseCommand struct {
	Name            string              // Identifies the command in traces, metrics, and error keys.
	InputParamName  string              // Context key for the primary input; empty means CtxIn.
	OutputParamName string              // Context key for the primary output; empty means CtxOut.
	Tracer          trace.Tracer        // Tracer for per-execution spans.
	Meter           metric.Meter        // Meter the counters are created from.
	SuccessCounter  metric.Int64Counter // Incremented on successful execution.
	ErrorCounter    metric.Int64Counter // Incremented when the command records an error.
}

// NewBaseCommand builds a command skeleton with its telemetry wired to the
// global OpenTelemetry providers.
//
// Inputs:
//   - name: The command's name, also used to namespace its counters.
//
// Outputs:
//   - *BaseCommand: The initialized command skeleton.
func NewBaseCommand(name string) *BaseCommand {
	meter := otel.Meter("github.com/jaycherian/gcp-go-story-clips")

	successCounter, err := meter.Int64Counter(fmt.Sprintf("%s.counter.success", name))
	if err != nil {
		log.Printf("error creating success counter for command '%s': %v\n", name, err)
	}
	errorCounter, err := meter.Int64Counter(fmt.Sprintf("%s.counter.error", name))
	if err != nil {
		log.Printf("error creating error counter for command '%s': %v\n", name, err)
	}

	return &BaseCommand{
		Name:           name,
		Tracer:         otel.Tracer(name),
		Meter:          meter,
		SuccessCounter: successCounter,
		ErrorCounter:   errorCounter,
	}
}

// GetName returns the command's name.
func (c *BaseCommand) GetName() string {
	return c.Name
}

// IsExecutable is the default precondition: a live Go context and a present
// input value. Commands with no input override this.
func (c *BaseCommand) IsExecutable(context Context) bool {
	return context != nil && context.Get(c.GetInputParam()) != nil && context.GetContext() != nil
}

// GetInputParam returns the configured input key, defaulting to CtxIn so
// the chain's piping reaches this command without configuration.
func (c *BaseCommand) GetInputParam() string {
	if len(c.InputParamName) == 0 {
		return CtxIn
	}
	return c.InputParamName
}

// GetOutputParam returns the configured output key, defaulting to CtxOut.
func (c *BaseCommand) GetOutputParam() string {
	if len(c.OutputParamName) == 0 {
		return CtxOut
	}
	return c.OutputParamName
}

// GetTracer returns the command's tracer.
func (c *BaseCommand) GetTracer() trace.Tracer {
	return c.Tracer
}

// GetMeter returns the command's meter.
func (c *BaseCommand) GetMeter() metric.Meter {
	return c.Meter
}

// GetSuccessCounter returns the success counter.
func (c *BaseCommand) GetSuccessCounter() metric.Int64Counter {
	return c.SuccessCounter
}

// GetErrorCounter returns the error counter.
func (c *BaseCommand) GetErrorCounter() metric.Int64Counter {
	return c.ErrorCounter
}
