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
// persistence commands that stream the run's moments and assets into
// BigQuery.
//
// The BigQuery inserter streams rows rather than issuing individual INSERT
// statements, and the client library maps struct fields onto table columns
// through the `bigquery` tags on the model types.
package commands

import (
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
)

// MomentPersistToBigQuery streams the selected moments into the moment
// table.
type MomentPersistToBigQuery struct {
	cor.BaseCommand
	client  *bigquery.Client
	dataset string
	table   string
}

// NewMomentPersistToBigQuery is the constructor for the moment persistence
// step.
func NewMomentPersistToBigQuery(name string, client *bigquery.Client, dataset string, table string) *MomentPersistToBigQuery {
	return &MomentPersistToBigQuery{BaseCommand: *cor.NewBaseCommand(name), client: client, dataset: dataset, table: table}
}

// IsExecutable requires the moment list to be present.
func (s *MomentPersistToBigQuery) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(CtxMoments) != nil
}

// Execute streams the moments in a single Put call.
func (s *MomentPersistToBigQuery) Execute(context cor.Context) {
	moments := context.Get(CtxMoments).([]*model.Moment)
	if len(moments) == 0 {
		s.GetSuccessCounter().Add(context.GetContext(), 1)
		return
	}

	inserter := s.client.Dataset(s.dataset).Table(s.table).Inserter()
	if err := inserter.Put(context.GetContext(), moments); err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("bigquery moment insert failed: %w", err))
		return
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.Info("persisted moments", "count", len(moments), "table", s.table)
	context.Add(cor.CtxOut, moments)
}

// AssetPersistToBigQuery streams the run's accumulated assets into the
// asset table. It persists every asset, failed ones included, so the
// catalog records what was attempted.
type AssetPersistToBigQuery struct {
	cor.BaseCommand
	client  *bigquery.Client
	dataset string
	table   string
}

// NewAssetPersistToBigQuery is the constructor for the asset persistence
// step.
func NewAssetPersistToBigQuery(name string, client *bigquery.Client, dataset string, table string) *AssetPersistToBigQuery {
	return &AssetPersistToBigQuery{BaseCommand: *cor.NewBaseCommand(name), client: client, dataset: dataset, table: table}
}

// IsExecutable requires the accumulated asset slice to be present.
func (s *AssetPersistToBigQuery) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(CtxAssets) != nil
}

// Execute streams the assets in a single Put call.
func (s *AssetPersistToBigQuery) Execute(context cor.Context) {
	assets := context.Get(CtxAssets).([]*model.Asset)
	if len(assets) == 0 {
		s.GetSuccessCounter().Add(context.GetContext(), 1)
		return
	}

	inserter := s.client.Dataset(s.dataset).Table(s.table).Inserter()
	if err := inserter.Put(context.GetContext(), assets); err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("bigquery asset insert failed: %w", err))
		return
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.Info("persisted assets", "count", len(assets), "table", s.table)
	context.Add(cor.CtxOut, assets)
}
