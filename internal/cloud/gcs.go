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

// Package cloud provides components for interacting with Google Cloud services.
// This file defines the Google Cloud Storage (GCS) shapes the ingest path
// works with: the Pub/Sub notification payload GCS emits when a source
// video lands in the input bucket, and the trimmed-down object reference
// the workflow commands pass between each other.
package cloud

// GetGCSObjectName returns the context key under which workflow commands
// store the GCSObject currently being processed.
func GetGCSObjectName() string {
	return "__GCS__OBJ__"
}

// GCSPubSubNotification maps the JSON payload GCS publishes to Pub/Sub when
// an object is created or updated in a monitored bucket.
type GCSPubSubNotification struct {
	Kind                    string                 `json:"kind"`                    // The kind of the object, typically "storage#object".
	ID                      string                 `json:"id"`                      // The full ID of the object, including bucket and generation.
	SelfLink                string                 `json:"selfLink"`                // The URI for this object.
	Name                    string                 `json:"name"`                    // The name of the object within the bucket.
	Bucket                  string                 `json:"bucket"`                  // The name of the bucket containing the object.
	Generation              string                 `json:"generation"`              // The generation number of the object's content.
	MetaGeneration          string                 `json:"metageneration"`          // The generation number of the object's metadata.
	ContentType             string                 `json:"contentType"`             // The MIME type of the object's content.
	TimeCreated             string                 `json:"timeCreated"`             // The creation time of the object.
	Updated                 string                 `json:"updated"`                 // The last modification time of the object.
	StorageClass            string                 `json:"storageClass"`            // The storage class of the object.
	TimeStorageClassUpdated string                 `json:"timeStorageClassUpdated"` // The time the storage class was last updated.
	Size                    string                 `json:"size"`                    // The size of the object in bytes.
	MD5Hash                 string                 `json:"md5Hash"`                 // The MD5 hash of the object's content.
	MediaLink               string                 `json:"mediaLink"`               // A link to download the object's content.
	MetaData                map[string]interface{} `json:"metadata"`                // User-provided metadata, if any.
	Crc32c                  string                 `json:"crc32c"`                  // The CRC32C checksum of the object's content.
	ETag                    string                 `json:"etag"`                    // The HTTP ETag of the object.
}

// GCSObject is the minimal object reference the pipeline commands need:
// where a source video lives and what it is.
type GCSObject struct {
	Bucket   string // The GCS bucket name.
	Name     string // The object name.
	MIMEType string // The MIME type (e.g. "video/mp4").
}
