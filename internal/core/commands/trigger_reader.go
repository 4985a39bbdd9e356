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
// command that parses a GCS Pub/Sub notification into the simplified
// GCSObject the rest of the ingest chain works with.
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jaycherian/gcp-go-story-clips/internal/cloud"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/cor"
)

// UploadTriggerToGCSObject parses the raw GCS notification payload that
// arrives when a source video lands in the input bucket.
type UploadTriggerToGCSObject struct {
	cor.BaseCommand
}

// NewUploadTriggerToGCSObject is the constructor for the trigger parsing
// step.
func NewUploadTriggerToGCSObject(name string) *UploadTriggerToGCSObject {
	return &UploadTriggerToGCSObject{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute unmarshals the notification and publishes the object reference
// under both the well-known GCS object key and the chain output.
func (c *UploadTriggerToGCSObject) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam()).(string)

	var notification cloud.GCSPubSubNotification
	if err := json.Unmarshal([]byte(in), &notification); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to unmarshal GCS notification: %w", err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	msg := &cloud.GCSObject{Bucket: notification.Bucket, Name: notification.Name, MIMEType: notification.ContentType}
	context.Add(cloud.GetGCSObjectName(), msg)
	context.Add(c.GetOutputParam(), msg)
}
