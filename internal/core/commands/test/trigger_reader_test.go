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

// This file exercises the GCS notification parsing at the front of the
// ingest chain.
package commands_test

import (
	"context"
	"testing"

	"github.com/jaycherian/gcp-go-story-clips/internal/cloud"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/commands"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/cor"
	test "github.com/jaycherian/gcp-go-story-clips/internal/testutil"
	"github.com/stretchr/testify/assert"
)

// TestUploadTriggerParsesNotification verifies the upload notification is
// reduced to the bucket, object name, and MIME type the chain needs.
func TestUploadTriggerParsesNotification(t *testing.T) {
	cmd := commands.NewUploadTriggerToGCSObject("parse-upload-trigger")
	corCtx := cor.NewBaseContext()
	corCtx.SetContext(context.Background())
	corCtx.Add(cor.CtxIn, test.GetTestUploadMessageText())

	cmd.Execute(corCtx)

	assert.False(t, corCtx.HasErrors())
	obj, ok := corCtx.Get(cloud.GetGCSObjectName()).(*cloud.GCSObject)
	assert.True(t, ok)
	assert.Equal(t, "story_clip_uploads", obj.Bucket)
	assert.Equal(t, "testimonial/acme-launch.mp4", obj.Name)
	assert.Equal(t, "video/mp4", obj.MIMEType)
	// The object is also the chain output for the next command.
	assert.Equal(t, obj, corCtx.Get(cor.CtxOut))
}

// TestUploadTriggerRejectsMalformedPayload verifies junk payloads surface an
// error so the message is redelivered instead of silently dropped.
func TestUploadTriggerRejectsMalformedPayload(t *testing.T) {
	cmd := commands.NewUploadTriggerToGCSObject("parse-upload-trigger")
	corCtx := cor.NewBaseContext()
	corCtx.SetContext(context.Background())
	corCtx.Add(cor.CtxIn, "not a notification")

	cmd.Execute(corCtx)

	assert.True(t, corCtx.HasErrors())
	assert.Nil(t, corCtx.Get(cor.CtxOut))
}
