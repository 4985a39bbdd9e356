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

// Package main contains the API definitions for the dashboard. This file
// defines the statistics endpoint backing the operations view.
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
)

// Dashboard configures the statistics routes. It creates a new route group
// "/stats" nested under the main API router group.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the new "/stats" route group will be added.
//
// The GET endpoint at the root of the "/stats" group reports how many
// registered projects sit in each pipeline state, which is the number the
// operations dashboard polls.
func Dashboard(r *gin.RouterGroup) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			counts := map[model.PipelineStatus]int{
				model.StatusPending:    0,
				model.StatusProcessing: 0,
				model.StatusCompleted:  0,
				model.StatusFailed:     0,
			}
			for _, project := range state.registry.List() {
				counts[project.State.Status]++
			}
			c.JSON(http.StatusOK, gin.H{
				"projects":   len(state.registry.List()),
				"pending":    counts[model.StatusPending],
				"processing": counts[model.StatusProcessing],
				"completed":  counts[model.StatusCompleted],
				"failed":     counts[model.StatusFailed],
			})
		})
	}
}
