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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command that reclaims scratch space at the end of a run. Finished clips
// are kept on disk so the local fallback URLs keep working; everything
// else in the project's work directory (staged source, normalized copy,
// extracted audio) is removed.
package commands

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
)

// WorkspaceCleanup removes the intermediate files of one pipeline run.
type WorkspaceCleanup struct {
	cor.BaseCommand
	workDir string
}

// NewWorkspaceCleanup is the constructor for the cleanup step.
func NewWorkspaceCleanup(name string, workDir string) *WorkspaceCleanup {
	return &WorkspaceCleanup{BaseCommand: *cor.NewBaseCommand(name), workDir: workDir}
}

// IsExecutable requires only the project; cleanup runs even when earlier
// stages produced nothing.
func (c *WorkspaceCleanup) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(CtxProject) != nil
}

// Execute deletes every file in the project's work directory except the
// clips subdirectory.
func (c *WorkspaceCleanup) Execute(context cor.Context) {
	project := context.Get(CtxProject).(*model.Project)
	projectDir := filepath.Join(c.workDir, project.Id)

	entries, err := os.ReadDir(projectDir)
	if err != nil {
		// Nothing staged, nothing to reclaim.
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() && entry.Name() == "clips" {
			continue
		}
		path := filepath.Join(projectDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			slog.Warn("failed to remove scratch file", "path", path, "error", err)
		}
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, project)
}
