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

// This file defines `BaseContext`, the default Context implementation: a
// property bag for intermediate pipeline values, the errors commands have
// recorded, and the scratch files to delete when the workflow finishes.
// Video workflows create a lot of scratch files (normalized sources,
// extracted audio, intermediate clips); tracking them here keeps cleanup in
// one place instead of scattered across commands.
package cor

import (
	"context"
	"log"
	"os"
)

// BaseContext holds the shared state for one workflow execution.
type BaseContext struct {
	data      map[string]interface{} // Arbitrary key-value state shared between commands.
	errors    map[string]error       // Failures, keyed by the command that raised them.
	tempFiles []string               // Scratch files to delete at Close.
	context   context.Context        // Go context carrying cancellation and the active span.
}

// NewBaseContext creates an empty, ready-to-use context.
func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		errors:    make(map[string]error),
		tempFiles: make([]string, 0),
	}
}

// SetContext swaps the underlying Go context. The chain uses this to hand
// each command the context of its own trace span.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

// GetContext returns the underlying Go context.
func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close removes every scratch file the workflow registered. Defer it where
// the workflow starts.
func (c *BaseContext) Close() {
	for _, file := range c.GetTempFiles() {
		err := os.Remove(file)
		if err != nil {
			log.Printf("failed to remove temporary file '%s': %v\n", file, err)
		}
	}
}

// Add stores a value and returns the context for fluent chaining.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// AddTempFile registers a scratch file for deletion at Close.
func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

// GetTempFiles returns the registered scratch file paths.
func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

// AddError records a command failure.
func (c *BaseContext) AddError(key string, err error) {
	c.errors[key] = err
}

// GetErrors returns every recorded failure.
func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// Get looks up a stored value, nil when absent.
func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

// Remove drops a key from the bag.
func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

// HasErrors reports whether any command has failed.
func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}

// ClearErrors drops all recorded errors.
func (c *BaseContext) ClearErrors() {
	c.errors = make(map[string]error)
}
