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
// encoder engine the clip commands share: a thin wrapper over the external
// ffmpeg/ffprobe binaries with encode profiles, invocation timeouts, and
// the cooldown pacing that keeps peak memory bounded on small hosts.
//
// An EncoderProfile captures one complete set of encoder arguments (codec,
// filter, quality). Where the same logical operation has more than one
// viable profile, the caller holds them as an ordered list and tries each
// in sequence until one succeeds. Normalization uses this: a standard
// H.264/AAC pass first, then an error-tolerant pass that discards corrupt
// frames at reduced quality, and finally the un-normalized source itself.
package commands

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-story-clips/internal/cloud"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
)

// Default encoder bounds applied when the configuration leaves them unset.
const (
	DefaultEncodeTimeout  = 120 * time.Second
	DefaultEncodeCooldown = 2 * time.Second

	// stderrTailBytes bounds how much encoder stderr is kept for diagnostics.
	stderrTailBytes = 1024
)

// EncoderProfile is one complete argument set for an encoder invocation.
// InputFlags are placed before the input file (demuxer and error-recovery
// options), OutputFlags before the output file (codec, filter, quality).
type EncoderProfile struct {
	Name        string
	InputFlags  []string
	OutputFlags []string
}

// ClipWindow selects a time span of the source: Start seconds in, Duration
// seconds long. A nil window encodes the whole source.
type ClipWindow struct {
	Start    float64
	Duration float64
}

// NormalizeProfiles returns the ordered fallback list for the normalize
// pass. The standard profile handles well-formed sources; the recovery
// profile trades quality for resilience against corrupt frames and missing
// timestamps, which shows up often in .mov uploads.
func NormalizeProfiles() []EncoderProfile {
	return []EncoderProfile{
		{
			Name:       "normalize_standard",
			InputFlags: []string{"-err_detect", "ignore_err"},
			OutputFlags: []string{
				"-c:v", "libx264", "-preset", "ultrafast", "-crf", "23",
				"-pix_fmt", "yuv420p",
				"-c:a", "aac", "-b:a", "128k",
				"-movflags", "+faststart", "-fflags", "+genpts",
			},
		},
		{
			Name:       "normalize_recovery",
			InputFlags: []string{"-fflags", "+discardcorrupt", "-err_detect", "ignore_err"},
			OutputFlags: []string{
				"-c:v", "libx264", "-preset", "ultrafast", "-crf", "28",
				"-pix_fmt", "yuv420p",
				"-c:a", "aac", "-b:a", "96k",
				"-movflags", "+faststart",
			},
		},
	}
}

// ExtractProfile returns the low-resource profile for cutting clips: 480p,
// single-threaded x264, high CRF. Tuned for constrained hosts where a
// full-resolution encode would be killed for memory.
func ExtractProfile() EncoderProfile {
	return EncoderProfile{
		Name:       "extract_480p",
		InputFlags: []string{"-threads", "1"},
		OutputFlags: []string{
			"-vf", "scale=480:-2",
			"-c:v", "libx264", "-preset", "ultrafast", "-crf", "30",
			"-x264-params", "threads=1:lookahead-threads=1",
			"-pix_fmt", "yuv420p",
			"-c:a", "aac", "-b:a", "64k",
			"-movflags", "+faststart",
		},
	}
}

// VerticalProfile returns the 9:16 reframe profile: scale into a 720x1280
// canvas preserving aspect ratio, pad the remainder with black bars.
func VerticalProfile() EncoderProfile {
	return EncoderProfile{
		Name:       "vertical_720x1280",
		InputFlags: []string{"-threads", "1"},
		OutputFlags: []string{
			"-vf", "scale=720:1280:force_original_aspect_ratio=decrease,pad=720:1280:(ow-iw)/2:(oh-ih)/2:black",
			"-c:v", "libx264", "-preset", "ultrafast", "-crf", "28",
			"-pix_fmt", "yuv420p",
			"-c:a", "aac", "-b:a", "96k",
			"-movflags", "+faststart",
		},
	}
}

// AudioExtractProfile returns the profile for pulling the audio track as
// 16 kHz mono PCM, the sample rate the transcriber expects.
func AudioExtractProfile() EncoderProfile {
	return EncoderProfile{
		Name: "audio_16k_mono",
		OutputFlags: []string{
			"-vn",
			"-acodec", "pcm_s16le",
			"-ar", "16000",
			"-ac", "1",
		},
	}
}

// MediaEncoder is the encoder surface the clip commands depend on. The
// production implementation shells out to ffmpeg; tests substitute fakes.
type MediaEncoder interface {
	// Invoke runs one encoder pass with the given profile. A nil window
	// encodes the whole source. A non-zero exit or timeout is returned as
	// a *model.EncodeError.
	Invoke(ctx context.Context, profile EncoderProfile, input string, output string, window *ClipWindow) error
	// ProbeDuration measures the source duration in seconds.
	ProbeDuration(ctx context.Context, input string) (float64, error)
}

// Encoder drives the external ffmpeg and ffprobe binaries. Invocations run
// under a hard wall-clock timeout, and each successful encode is followed
// by a short cooldown so back-to-back invocations don't stack memory.
type Encoder struct {
	binaryPath string
	probePath  string
	timeout    time.Duration
	cooldown   time.Duration
}

// NewEncoder builds an Encoder from configuration, applying the default
// timeout and cooldown where the config leaves them zero.
func NewEncoder(cfg cloud.Encoder) *Encoder {
	timeout := time.Duration(cfg.TimeoutInSeconds) * time.Second
	if timeout <= 0 {
		timeout = DefaultEncodeTimeout
	}
	cooldown := time.Duration(cfg.CooldownMilliseconds) * time.Millisecond
	if cooldown <= 0 {
		cooldown = DefaultEncodeCooldown
	}
	return &Encoder{
		binaryPath: cfg.BinaryPath,
		probePath:  cfg.ProbeBinaryPath,
		timeout:    timeout,
		cooldown:   cooldown,
	}
}

// Invoke runs a single encoder pass. The argument order matters: input
// flags precede -i, the seek window follows the input so timestamps refer
// to the decoded stream, and the profile's output flags come last before
// the output path.
func (e *Encoder) Invoke(ctx context.Context, profile EncoderProfile, input string, output string, window *ClipWindow) error {
	args := []string{"-y", "-hide_banner"}
	args = append(args, profile.InputFlags...)
	args = append(args, "-i", input)
	if window != nil {
		args = append(args,
			"-ss", strconv.FormatFloat(window.Start, 'f', 3, 64),
			"-t", strconv.FormatFloat(window.Duration, 'f', 3, 64))
	}
	args = append(args, profile.OutputFlags...)
	args = append(args, output)

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, e.binaryPath, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("timed out after %s: %w", e.timeout, err)
		}
		return &model.EncodeError{
			Output:  stderrTail(stderr.Bytes()),
			Profile: profile.Name,
			Err:     err,
		}
	}

	// Deliberate backpressure: let the host's memory settle before the
	// next invocation.
	time.Sleep(e.cooldown)
	return nil
}

// ProbeDuration shells out to ffprobe and parses the container duration.
func (e *Encoder) ProbeDuration(ctx context.Context, input string) (float64, error) {
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, e.probePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		input)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("probe of %s failed: %w", input, err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable probe output %q: %w", strings.TrimSpace(string(out)), err)
	}
	return duration, nil
}

// Normalize transcodes the source to the canonical codec, trying each
// profile in NormalizeProfiles order. If every profile fails it returns
// the original source path so downstream extraction can still run against
// the un-normalized file. The returned bool reports whether normalization
// succeeded.
func Normalize(ctx context.Context, encoder MediaEncoder, input string, output string) (string, bool) {
	for _, profile := range NormalizeProfiles() {
		err := encoder.Invoke(ctx, profile, input, output, nil)
		if err == nil {
			return output, true
		}
		slog.Warn("normalize profile failed",
			"profile", profile.Name,
			"input", input,
			"error", err)
	}
	slog.Warn("all normalize profiles failed, continuing with un-normalized source", "input", input)
	return input, false
}

// ClampWindow trims the window so it never reads past the measured source
// duration. A window that starts at or beyond the end collapses to zero
// duration; callers skip those clips.
func ClampWindow(window ClipWindow, sourceDuration float64) ClipWindow {
	if sourceDuration <= 0 {
		return window
	}
	if window.Start >= sourceDuration {
		window.Duration = 0
		return window
	}
	if window.Start+window.Duration > sourceDuration {
		window.Duration = sourceDuration - window.Start
	}
	return window
}

// FileSizeMB returns the size of a file in megabytes, 0 when unreadable.
func FileSizeMB(path string) float64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return float64(info.Size()) / (1024 * 1024)
}

func stderrTail(b []byte) string {
	if len(b) > stderrTailBytes {
		b = b[len(b)-stderrTailBytes:]
	}
	return string(b)
}
