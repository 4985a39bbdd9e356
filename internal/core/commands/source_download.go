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
// command that stages an uploaded source video onto local disk for the
// encoder and transcriber, streaming it from GCS into the project's work
// directory.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"

	"github.com/jaycherian/gcp-go-story-clips/internal/cloud"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
)

// SourceToWorkDir downloads the triggering GCS object into the project's
// local work directory and publishes the local path for the encoder and
// transcriber stages.
type SourceToWorkDir struct {
	cor.BaseCommand
	client  *storage.Client
	workDir string
}

// NewSourceToWorkDir is the constructor for the source staging step.
func NewSourceToWorkDir(name string, client *storage.Client, workDir string) *SourceToWorkDir {
	return &SourceToWorkDir{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      client,
		workDir:     workDir,
	}
}

// IsExecutable requires the project and the GCS object reference.
func (c *SourceToWorkDir) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(CtxProject) != nil &&
		context.Get(cloud.GetGCSObjectName()) != nil
}

// Execute streams the object to {workDir}/{projectId}/source{ext}.
func (c *SourceToWorkDir) Execute(context cor.Context) {
	project := context.Get(CtxProject).(*model.Project)
	msg := context.Get(cloud.GetGCSObjectName()).(*cloud.GCSObject)

	reader, err := c.client.Bucket(msg.Bucket).Object(msg.Name).NewReader(context.GetContext())
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to create GCS reader for gs://%s/%s: %w", msg.Bucket, msg.Name, err))
		return
	}
	defer func() {
		if err := reader.Close(); err != nil {
			slog.Warn("failed to close GCS reader", "error", err)
		}
	}()

	projectDir := filepath.Join(c.workDir, project.Id)
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("create work dir: %w", err))
		return
	}

	localPath := filepath.Join(projectDir, "source"+filepath.Ext(msg.Name))
	dest, err := os.Create(localPath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("create local source file: %w", err))
		return
	}

	written, err := io.Copy(dest, reader)
	_ = dest.Close()
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("download gs://%s/%s after %d bytes: %w", msg.Bucket, msg.Name, written, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.Info("staged source video", "project", project.Id,
		"object", fmt.Sprintf("gs://%s/%s", msg.Bucket, msg.Name), "bytes", written)

	// The registry owns the project once it is registered, so the caller
	// records the staged path and size through it rather than this command
	// writing project fields.
	context.AddTempFile(localPath)
	context.Add(CtxSourceFile, localPath)
	context.Add(CtxSourceSizeMB, float64(written)/(1024*1024))
	context.Add(cor.CtxOut, localPath)
}
