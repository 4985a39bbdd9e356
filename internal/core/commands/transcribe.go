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
// command that produces the transcript for an uploaded source video.
//
// Logic Flow:
//  1. Pull the audio track out of the source as 16 kHz mono PCM using the
//     encoder; the transcriber is far more reliable on a clean WAV than on
//     the original container.
//  2. Run the external whisper.cpp binary against the WAV with JSON output
//     enabled, and parse its segment list.
//  3. Assemble the model.Transcript (trimmed segment texts, concatenated
//     full text, detected language) and publish it to the context.
//
// Transcription is a critical stage: an empty transcript means nothing
// downstream can work, so it is reported as an error rather than absorbed.
package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jaycherian/gcp-go-story-clips/internal/cloud"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
)

// TranscribeCommand extracts the audio track from the source video and runs
// the external speech-to-text binary over it.
type TranscribeCommand struct {
	cor.BaseCommand
	encoder MediaEncoder
	config  *cloud.Config
}

// NewTranscribeCommand is the constructor for the transcription step.
func NewTranscribeCommand(name string, encoder MediaEncoder, config *cloud.Config) *TranscribeCommand {
	return &TranscribeCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		encoder:     encoder,
		config:      config,
	}
}

// IsExecutable requires the project and the local source file.
func (c *TranscribeCommand) IsExecutable(context cor.Context) bool {
	return context.Get(CtxProject) != nil && context.Get(CtxSourceFile) != nil
}

// Execute runs audio extraction and transcription, publishing the
// resulting transcript under both CtxTranscript and the output key.
func (c *TranscribeCommand) Execute(context cor.Context) {
	project := context.Get(CtxProject).(*model.Project)
	sourcePath := context.Get(CtxSourceFile).(string)
	ctx := context.GetContext()

	workDir := filepath.Join(c.config.Storage.LocalWorkDir, project.Id)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), fmt.Errorf("create work dir: %w", err))
		return
	}

	audioPath := filepath.Join(workDir, "audio.wav")
	if err := c.encoder.Invoke(ctx, AudioExtractProfile(), sourcePath, audioPath, nil); err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), fmt.Errorf("audio extraction failed: %w", err))
		return
	}
	context.AddTempFile(audioPath)

	transcript, err := c.transcribe(context, audioPath, workDir)
	if err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), err)
		return
	}
	if len(transcript.Segments) == 0 {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), &model.ValidationError{
			Field:  "transcript",
			Reason: "transcriber returned no segments",
		})
		return
	}

	c.GetSuccessCounter().Add(ctx, 1)
	context.Add(CtxTranscript, transcript)
	context.Add(cor.CtxOut, transcript)
}

// whisperResult mirrors the JSON structure whisper.cpp emits with -oj.
// Offsets are in milliseconds.
type whisperResult struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// transcribe invokes the whisper binary and converts its JSON output into
// the transcript model. Empty segments are dropped.
func (c *TranscribeCommand) transcribe(context cor.Context, audioPath string, workDir string) (*model.Transcript, error) {
	outPrefix := filepath.Join(workDir, "whisper")
	args := []string{
		"-m", c.config.Transcriber.Model,
		"-f", audioPath,
		"-oj",
		"-of", outPrefix,
	}
	if c.config.Transcriber.Language != "" {
		args = append(args, "-l", c.config.Transcriber.Language)
	}

	cmd := exec.CommandContext(context.GetContext(), c.config.Transcriber.BinaryPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, &model.ExternalServiceError{
			Service: "transcriber",
			Err:     fmt.Errorf("%w: %s", err, stderrTail(out)),
		}
	}

	jsonPath := outPrefix + ".json"
	context.AddTempFile(jsonPath)
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, &model.ExternalServiceError{Service: "transcriber", Err: fmt.Errorf("read %s: %w", jsonPath, err)}
	}

	var result whisperResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &model.ExternalServiceError{Service: "transcriber", Err: fmt.Errorf("parse %s: %w", jsonPath, err)}
	}

	transcript := &model.Transcript{Language: result.Result.Language}
	var parts []string
	for _, seg := range result.Transcription {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		transcript.Segments = append(transcript.Segments, &model.TranscriptSegment{
			Start: float64(seg.Offsets.From) / 1000.0,
			End:   float64(seg.Offsets.To) / 1000.0,
			Text:  text,
		})
		parts = append(parts, text)
	}
	transcript.FullText = strings.Join(parts, " ")
	return transcript, nil
}
