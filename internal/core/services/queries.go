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
// sources. This file centralizes the BigQuery SQL query strings used by the
// catalog service. The queries use `fmt.Sprintf` format verbs (e.g., %s)
// as placeholders for values injected at runtime.
package services

const (
	// QryFindMomentsByProject retrieves every persisted moment for one
	// project, in source order.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the moment table.
	// - `%s`: The project id.
	QryFindMomentsByProject = "SELECT * FROM `%s` WHERE project_id = '%s' ORDER BY start_time"

	// QryFindAssetsByProject retrieves every generated asset for one
	// project, newest first.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the asset table.
	// - `%s`: The project id.
	QryFindAssetsByProject = "SELECT * FROM `%s` WHERE project_id = '%s' ORDER BY create_date DESC"

	// QryFindAssetsByMoment retrieves the assets cut from one moment.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the asset table.
	// - `%s`: The moment id.
	QryFindAssetsByMoment = "SELECT * FROM `%s` WHERE moment_id = '%s' ORDER BY create_date DESC"
)
