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
// durable storage collaborator for finished clips: a streaming upload to
// a Google Cloud Storage bucket, keyed by project so one project's clips
// share a prefix.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
)

// ClipUploader persists a finished clip to durable storage and returns the
// URL it is reachable at. On error the caller falls back to serving the
// clip from local disk.
type ClipUploader interface {
	Upload(ctx context.Context, localPath string, projectId string, filename string) (string, error)
}

// GCSClipUploader streams finished clips into a GCS bucket under a
// per-project prefix.
type GCSClipUploader struct {
	client *storage.Client
	bucket string
}

// NewGCSClipUploader creates an uploader targeting the given bucket.
func NewGCSClipUploader(client *storage.Client, bucket string) *GCSClipUploader {
	return &GCSClipUploader{client: client, bucket: bucket}
}

// Upload streams the file at localPath to the bucket as
// {projectId}/{filename} and returns the public object URL. The local file
// is left in place so the caller can still serve it directly.
func (u *GCSClipUploader) Upload(ctx context.Context, localPath string, projectId string, filename string) (string, error) {
	dat, err := os.Open(localPath)
	if err != nil {
		return "", &model.ExternalServiceError{Service: "gcs", Err: fmt.Errorf("open %s: %w", localPath, err)}
	}
	defer dat.Close()

	objectName := fmt.Sprintf("%s/%s", projectId, filename)
	writer := u.client.Bucket(u.bucket).Object(objectName).NewWriter(ctx)

	if _, err := io.Copy(writer, dat); err != nil {
		_ = writer.Close()
		return "", &model.ExternalServiceError{Service: "gcs", Err: fmt.Errorf("write gs://%s/%s: %w", u.bucket, objectName, err)}
	}
	// Close finalizes the object; an incomplete upload surfaces here.
	if err := writer.Close(); err != nil {
		return "", &model.ExternalServiceError{Service: "gcs", Err: fmt.Errorf("finalize gs://%s/%s: %w", u.bucket, objectName, err)}
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, objectName), nil
}

// LocalClipUploader is the offline uploader: clips stay on local disk and
// the returned URL points at the static /clips route that serves the work
// tree. The CLI uses it to run without any cloud dependency.
type LocalClipUploader struct{}

// Upload returns the local serving path for the clip. The file itself is
// already in place under the project's work directory.
func (u *LocalClipUploader) Upload(_ context.Context, _ string, projectId string, filename string) (string, error) {
	return fmt.Sprintf("/clips/%s/clips/%s", projectId, filename), nil
}
