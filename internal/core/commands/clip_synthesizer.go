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
// command that turns selected moments into video clip assets.
//
// Logic Flow:
// The command runs a per-clip state machine:
//
//	NORMALIZE -> EXTRACT -> VERTICAL (independent) -> PERSIST
//
//  1. Normalize the source once per batch to the canonical codec, falling
//     back through the encoder profile list and, if every profile fails,
//     operating directly on the un-normalized source.
//  2. For each of the highest-importance moments (up to three), cut a main
//     clip, a five-second micro clip, and a vertical 9:16 reframe. Every
//     requested window is clamped to the measured source duration first.
//  3. An encode failure marks only that clip's asset failed; the batch
//     always continues. The vertical reframe runs regardless of how the
//     main and micro clips fared.
//  4. Each successfully encoded clip is uploaded to durable storage. If
//     the upload fails the asset keeps its completed status and is given
//     a locally served URL instead.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/jaycherian/gcp-go-story-clips/internal/cloud"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
)

const (
	// MaxClipMoments bounds how many moments get clip variants per run.
	// Each moment costs three encoder invocations, so this is the main
	// lever on total encode time and memory.
	MaxClipMoments = 3

	// DefaultClipSeconds is used when a moment's own span falls outside
	// the usable clip range.
	DefaultClipSeconds = 15.0
	MinUsableClipSpan  = 5.0
	MaxUsableClipSpan  = 30.0
	MicroClipSeconds   = 5.0
)

// ClipSynthesizerCommand materializes video clip assets from the selected
// moments using the external encoder and storage collaborators.
type ClipSynthesizerCommand struct {
	cor.BaseCommand
	encoder  MediaEncoder
	uploader ClipUploader
	config   *cloud.Config
}

// NewClipSynthesizerCommand is the constructor for the clip synthesis step.
//
// Inputs:
//   - name: A string name for this command instance, used for logging and telemetry.
//   - encoder: The encoder collaborator used for all invocations.
//   - uploader: The durable storage collaborator for finished clips.
//   - config: The application configuration (work directory, buckets).
func NewClipSynthesizerCommand(name string, encoder MediaEncoder, uploader ClipUploader, config *cloud.Config) *ClipSynthesizerCommand {
	return &ClipSynthesizerCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		encoder:     encoder,
		uploader:    uploader,
		config:      config,
	}
}

// IsExecutable requires the project, the source file, and a non-empty
// moment list to be present.
func (c *ClipSynthesizerCommand) IsExecutable(context cor.Context) bool {
	return context.Get(CtxProject) != nil &&
		context.Get(CtxSourceFile) != nil &&
		context.Get(c.GetInputParam()) != nil
}

// Execute runs the clip state machine for the batch and publishes the
// resulting assets, including the failed ones, to the output key.
func (c *ClipSynthesizerCommand) Execute(context cor.Context) {
	project := context.Get(CtxProject).(*model.Project)
	moments := context.Get(c.GetInputParam()).([]*model.Moment)
	sourcePath := context.Get(CtxSourceFile).(string)
	ctx := context.GetContext()

	clipDir := filepath.Join(c.config.Storage.LocalWorkDir, project.Id, "clips")
	if err := os.MkdirAll(clipDir, 0o755); err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), fmt.Errorf("create clip dir: %w", err))
		return
	}

	normalizedPath := filepath.Join(c.config.Storage.LocalWorkDir, project.Id, "normalized.mp4")
	workPath, normalized := Normalize(ctx, c.encoder, sourcePath, normalizedPath)
	if normalized {
		context.AddTempFile(normalizedPath)
	}

	sourceDuration, err := c.encoder.ProbeDuration(ctx, workPath)
	if err != nil {
		slog.Warn("probe failed, windows will not be clamped", "source", workPath, "error", err)
		sourceDuration = 0
	}

	ranked := make([]*model.Moment, len(moments))
	copy(ranked, moments)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ImportanceScore > ranked[j].ImportanceScore
	})
	if len(ranked) > MaxClipMoments {
		ranked = ranked[:MaxClipMoments]
	}

	assets := existingAssets(context)
	for i, moment := range ranked {
		span := moment.Duration()
		if span < MinUsableClipSpan || span > MaxUsableClipSpan {
			span = DefaultClipSeconds
		}

		main := c.synthesize(context, clipSpec{
			project:  project,
			moment:   moment,
			source:   workPath,
			dir:      clipDir,
			filename: fmt.Sprintf("moment_%d_main.mp4", i+1),
			profile:  ExtractProfile(),
			window:   ClipWindow{Start: moment.StartTime, Duration: span},
			srcDur:   sourceDuration,
			kind:     model.AssetTypeVideoClip,
			title:    fmt.Sprintf("Clip: %s", truncate(moment.Summary, 50)),
			dims:     "480p",
		})
		micro := c.synthesize(context, clipSpec{
			project:  project,
			moment:   moment,
			source:   workPath,
			dir:      clipDir,
			filename: fmt.Sprintf("moment_%d_micro.mp4", i+1),
			profile:  ExtractProfile(),
			window:   ClipWindow{Start: moment.StartTime, Duration: MicroClipSeconds},
			srcDur:   sourceDuration,
			kind:     model.AssetTypeVideoMicro,
			title:    fmt.Sprintf("Micro Clip: %s", truncate(moment.Summary, 50)),
			dims:     "480p",
		})
		// The vertical reframe is independent of the main/micro outcome.
		vertical := c.synthesize(context, clipSpec{
			project:  project,
			moment:   moment,
			source:   workPath,
			dir:      clipDir,
			filename: fmt.Sprintf("moment_%d_vertical.mp4", i+1),
			profile:  VerticalProfile(),
			window:   ClipWindow{Start: moment.StartTime, Duration: span},
			srcDur:   sourceDuration,
			kind:     model.AssetTypeVideoVertical,
			title:    fmt.Sprintf("Vertical: %s", truncate(moment.Summary, 40)),
			dims:     "720x1280",
		})
		assets = append(assets, main, micro, vertical)
	}

	c.GetSuccessCounter().Add(ctx, 1)
	context.Add(CtxAssets, assets)
	context.Add(cor.CtxOut, assets)
}

// clipSpec collects everything one clip attempt needs.
type clipSpec struct {
	project  *model.Project
	moment   *model.Moment
	source   string
	dir      string
	filename string
	profile  EncoderProfile
	window   ClipWindow
	srcDur   float64
	kind     string
	title    string
	dims     string
}

// synthesize runs EXTRACT and PERSIST for one clip. The returned asset is
// failed when the encode failed and completed otherwise; an upload failure
// downgrades only the URL, never the status.
func (c *ClipSynthesizerCommand) synthesize(context cor.Context, spec clipSpec) *model.Asset {
	ctx := context.GetContext()

	asset := model.NewAsset(spec.project.Id, spec.moment.Id, spec.kind)
	asset.Title = spec.title
	asset.Format = "mp4"
	asset.Dimensions = spec.dims

	window := ClampWindow(spec.window, spec.srcDur)
	if window.Duration <= 0 {
		slog.Warn("clip window is outside the source, skipping",
			"clip", spec.filename, "start", spec.window.Start)
		asset.Status = model.AssetFailed
		return asset
	}
	asset.SourceStart = window.Start
	asset.SourceDuration = window.Duration

	outputPath := filepath.Join(spec.dir, spec.filename)
	if err := c.encoder.Invoke(ctx, spec.profile, spec.source, outputPath, &window); err != nil {
		slog.Warn("clip encode failed", "clip", spec.filename, "error", err)
		c.GetErrorCounter().Add(ctx, 1)
		asset.Status = model.AssetFailed
		return asset
	}

	asset.LocalPath = outputPath
	asset.FileSizeMB = FileSizeMB(outputPath)
	asset.DurationSeconds = window.Duration
	asset.Status = model.AssetCompleted

	url, err := c.uploader.Upload(ctx, outputPath, spec.project.Id, spec.filename)
	if err != nil {
		// Serve the clip from local disk instead.
		slog.Warn("clip upload failed, using local URL", "clip", spec.filename, "error", err)
		asset.DurableURL = fmt.Sprintf("/clips/%s/clips/%s", spec.project.Id, spec.filename)
		return asset
	}
	asset.DurableURL = url
	return asset
}

// existingAssets returns the asset slice accumulated so far this run.
func existingAssets(context cor.Context) []*model.Asset {
	if v := context.Get(CtxAssets); v != nil {
		return v.([]*model.Asset)
	}
	return nil
}

// truncate shortens s to at most n runes for titles and captions, never
// splitting a multibyte character.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
