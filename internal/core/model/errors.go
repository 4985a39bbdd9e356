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

package model

import "fmt"

// ValidationError indicates malformed or out-of-range input: a bad upload, an
// unusable transcript, or collaborator output that failed validation. It is
// not retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// ExternalServiceError wraps a failure from an external collaborator (model
// endpoint, storage service, stock image search). Stages decide individually
// whether the failure is fatal to the run.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// EncodeError indicates that every configured encoder profile failed (or
// timed out) for one output. The asset it was producing is marked failed; the
// pipeline itself continues.
type EncodeError struct {
	Output  string
	Profile string
	Err     error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s failed (last profile %s): %v", e.Output, e.Profile, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// FatalPipelineError halts the pipeline run that raised it. The stage
// descriptor it carries becomes the externally visible failure message.
type FatalPipelineError struct {
	Stage string
	Err   error
}

func (e *FatalPipelineError) Error() string {
	return fmt.Sprintf("pipeline stage %q failed: %v", e.Stage, e.Err)
}

func (e *FatalPipelineError) Unwrap() error { return e.Err }
