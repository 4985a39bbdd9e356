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

// Package services contains the business logic for interacting with data
// sources. This file defines the CatalogService, the read side of the
// asset catalog: it retrieves persisted moments and assets from BigQuery
// and generates secure, time-limited URLs for clips stored in Google
// Cloud Storage.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
)

// CatalogService encapsulates the clients and table names needed to read
// the persisted pipeline output. It is a data access layer; it never
// mutates pipeline state.
type CatalogService struct {
	BigqueryClient *bigquery.Client                  // Client for interacting with Google BigQuery.
	StorageClient  *storage.Client                   // Client for interacting with Google Cloud Storage.
	IAMClient      *credentials.IamCredentialsClient // Client for IAM, used when signing URLs.
	SignerEmail    string                            // The service account email used to sign URLs.
	DatasetName    string                            // The BigQuery dataset name.
	MomentTable    string                            // The table holding identified moments.
	AssetTable     string                            // The table holding generated assets.
}

// fqn returns the fully qualified, dot-separated name of a table so it can
// be interpolated into standard SQL.
func (s *CatalogService) fqn(table string) string {
	name := s.BigqueryClient.Dataset(s.DatasetName).Table(table).FullyQualifiedName()
	return strings.Replace(name, ":", ".", -1)
}

// GetMoments retrieves every persisted moment for a project in source
// order.
func (s *CatalogService) GetMoments(ctx context.Context, projectId string) ([]*model.Moment, error) {
	queryText := fmt.Sprintf(QryFindMomentsByProject, s.fqn(s.MomentTable), projectId)
	itr, err := s.BigqueryClient.Query(queryText).Read(ctx)
	if err != nil {
		return nil, err
	}

	var moments []*model.Moment
	for {
		moment := &model.Moment{}
		err := itr.Next(moment)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		moments = append(moments, moment)
	}
	return moments, nil
}

// GetAssets retrieves every generated asset for a project, newest first.
func (s *CatalogService) GetAssets(ctx context.Context, projectId string) ([]*model.Asset, error) {
	queryText := fmt.Sprintf(QryFindAssetsByProject, s.fqn(s.AssetTable), projectId)
	itr, err := s.BigqueryClient.Query(queryText).Read(ctx)
	if err != nil {
		return nil, err
	}

	var assets []*model.Asset
	for {
		asset := &model.Asset{}
		err := itr.Next(asset)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// GetAssetsForMoment retrieves the assets cut from one moment.
func (s *CatalogService) GetAssetsForMoment(ctx context.Context, momentId string) ([]*model.Asset, error) {
	queryText := fmt.Sprintf(QryFindAssetsByMoment, s.fqn(s.AssetTable), momentId)
	itr, err := s.BigqueryClient.Query(queryText).Read(ctx)
	if err != nil {
		return nil, err
	}

	var assets []*model.Asset
	for {
		asset := &model.Asset{}
		err := itr.Next(asset)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// GenerateSignedURL creates a time-limited URL for a private clip object.
// The input is the public object URL recorded on the asset
// (https://storage.googleapis.com/{bucket}/{object}); locally served
// fallback URLs are returned unchanged since they are already reachable.
func (s *CatalogService) GenerateSignedURL(_ context.Context, assetURL string, expires time.Duration) (string, error) {
	const prefix = "https://storage.googleapis.com/"
	if strings.HasPrefix(assetURL, "/") {
		return assetURL, nil
	}
	if !strings.HasPrefix(assetURL, prefix) {
		return "", fmt.Errorf("invalid GCS URL format: %s", assetURL)
	}

	path := strings.TrimPrefix(assetURL, prefix)
	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 {
		return "", fmt.Errorf("invalid GCS URL: unable to determine bucket and object from %s", assetURL)
	}
	bucketName, objectName := parts[0], parts[1]

	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.SignerEmail,
	}

	u, err := s.StorageClient.Bucket(bucketName).SignedURL(objectName, opts)
	if err != nil {
		return "", fmt.Errorf("sign gs://%s/%s: %w", bucketName, objectName, err)
	}
	return u, nil
}
