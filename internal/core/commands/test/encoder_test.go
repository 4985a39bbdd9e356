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

// This file exercises the encoder helpers that carry the clamping and
// normalization invariants: ClampWindow's bounds arithmetic and Normalize's
// ordered profile fallback.
package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/commands"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
	"github.com/stretchr/testify/assert"
)

// TestClampWindowUnknownDurationPassesThrough verifies a non-positive source
// duration leaves the window untouched, since there is nothing to clamp
// against.
func TestClampWindowUnknownDurationPassesThrough(t *testing.T) {
	window := commands.ClipWindow{Start: 50, Duration: 15}
	assert.Equal(t, window, commands.ClampWindow(window, 0))
	assert.Equal(t, window, commands.ClampWindow(window, -1))
}

// TestClampWindowStartBeyondEndCollapses verifies a window starting at or
// past the source end collapses to zero duration.
func TestClampWindowStartBeyondEndCollapses(t *testing.T) {
	clamped := commands.ClampWindow(commands.ClipWindow{Start: 60, Duration: 15}, 60)
	assert.Equal(t, 0.0, clamped.Duration)

	clamped = commands.ClampWindow(commands.ClipWindow{Start: 90, Duration: 15}, 60)
	assert.Equal(t, 0.0, clamped.Duration)
}

// TestClampWindowTrimsOverhang verifies a window overrunning the source end
// is shortened to stop exactly at it.
func TestClampWindowTrimsOverhang(t *testing.T) {
	clamped := commands.ClampWindow(commands.ClipWindow{Start: 50, Duration: 15}, 60)
	assert.InDelta(t, 50.0, clamped.Start, 0.0001)
	assert.InDelta(t, 10.0, clamped.Duration, 0.0001)

	// A window fully inside the source is untouched.
	clamped = commands.ClampWindow(commands.ClipWindow{Start: 10, Duration: 15}, 60)
	assert.InDelta(t, 15.0, clamped.Duration, 0.0001)
}

// profileRecorder records the profile names of each invocation and fails
// until the scripted number of failures is exhausted.
type profileRecorder struct {
	profiles []string
	failures int
}

func (p *profileRecorder) Invoke(_ context.Context, profile commands.EncoderProfile, _ string, _ string, _ *commands.ClipWindow) error {
	p.profiles = append(p.profiles, profile.Name)
	if len(p.profiles) <= p.failures {
		return &model.EncodeError{Profile: profile.Name, Err: errors.New("exit status 1")}
	}
	return nil
}

func (p *profileRecorder) ProbeDuration(_ context.Context, _ string) (float64, error) {
	return 0, errors.New("not probed")
}

// TestNormalizeStandardProfileFirst verifies the standard profile alone is
// used when it succeeds.
func TestNormalizeStandardProfileFirst(t *testing.T) {
	rec := &profileRecorder{}
	out, ok := commands.Normalize(context.Background(), rec, "in.mov", "out.mp4")

	assert.True(t, ok)
	assert.Equal(t, "out.mp4", out)
	assert.Equal(t, []string{"normalize_standard"}, rec.profiles)
}

// TestNormalizeFallsBackToRecovery verifies the recovery profile runs when
// the standard pass fails, and its success still counts as normalized.
func TestNormalizeFallsBackToRecovery(t *testing.T) {
	rec := &profileRecorder{failures: 1}
	out, ok := commands.Normalize(context.Background(), rec, "in.mov", "out.mp4")

	assert.True(t, ok)
	assert.Equal(t, "out.mp4", out)
	assert.Equal(t, []string{"normalize_standard", "normalize_recovery"}, rec.profiles)
}

// TestNormalizeReturnsSourceWhenAllFail verifies total failure degrades to
// the un-normalized input path.
func TestNormalizeReturnsSourceWhenAllFail(t *testing.T) {
	rec := &profileRecorder{failures: 2}
	out, ok := commands.Normalize(context.Background(), rec, "in.mov", "out.mp4")

	assert.False(t, ok)
	assert.Equal(t, "in.mov", out)
	assert.Len(t, rec.profiles, 2)
}
