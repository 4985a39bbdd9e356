// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// *****************************************************************************************************//
// Package main is the entry point for the story clips backend server.
//
// This application sets up and runs a web server using the Gin framework. It
// provides a REST API for uploading testimonial videos, tracking pipeline
// progress, and reading the moments, story suggestions, and generated assets
// each run produces. The server is instrumented with OpenTelemetry for
// logging, tracing, and metrics.
//
// The main function initializes the application's configuration, sets up
// logging and telemetry, and initializes the application state, including
// clients for Google Cloud services. It defines API routes for uploads,
// status polling, retries, and asset retrieval, and serves locally staged
// clips under /clips when a durable upload was not possible.
//
// The server also sets up and manages a background listener for the upload
// Pub/Sub topic, which triggers the clip pipeline when new files are dropped
// directly into the ingest bucket.
//
// Functions:
//   - main: The main entry point of the application. It sets up the server,
//     configures routes, initializes services, and handles graceful shutdown.
//   - ProjectRouter: Sets up the API routes for project state: status,
//     retry, transcript, moments, story suggestions, and assets.
//   - FileUpload: Configures the API endpoint for multipart video uploads,
//     staging the file locally and starting a pipeline run.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-story-clips/internal/core/model"
	"github.com/jaycherian/gcp-go-story-clips/internal/telemetry"
)

// signedURLTTL bounds how long a generated streaming URL stays valid.
const signedURLTTL = 15 * time.Minute

// main is the primary entry point for the application.
// It orchestrates the setup of logging, telemetry, configuration, cloud services,
// the web server, API routes, and background listeners. It also handles graceful
// shutdown of the server upon receiving an interrupt signal.
func main() {
	// Initialize structured logging for the application.
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	// Create a new context that can be cancelled. This is the root context for the application.
	ctx, cancel := context.WithCancel(context.Background())
	// Defer the cancel function to be called when main exits, ensuring all child contexts are cancelled.
	defer cancel()

	// Load application configuration from TOML files.
	config := GetConfig()

	// Initialize OpenTelemetry for distributed tracing and metrics.
	_, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	// Initialize the application's state, including all necessary service clients.
	InitState(ctx)
	slog.Info("Initialized State")

	// Set up the Gin web server with default middleware.
	r := gin.Default()

	// Add OpenTelemetry middleware to the Gin router to trace incoming requests.
	// This will automatically create spans for each request.
	r.Use(otelgin.Middleware("story-clips-server"))

	// Configure Cross-Origin Resource Sharing (CORS) middleware.
	// Using cors.Default() provides a permissive configuration suitable for development,
	// allowing requests from any origin.
	r.Use(cors.Default())

	// Serve the local work tree under /clips. Clip assets whose durable
	// upload failed carry URLs of the form /clips/{projectId}/clips/{file},
	// which resolve into this tree.
	r.Static("/clips", config.Storage.LocalWorkDir)

	// Group routes under the "/api/v1" prefix.
	apiV1 := r.Group("/api/v1")
	{
		// Register the routes for project state and file upload functionality.
		ProjectRouter(apiV1)
		FileUpload(apiV1)
		Dashboard(apiV1)
	}

	// Configure the HTTP server with the address and handler.
	srv := &http.Server{
		Addr:         ":8080",
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	// Start the HTTP server in a separate goroutine so it doesn't block the main thread.
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	// Set up a channel to listen for OS interrupt signals (e.g., Ctrl+C).
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	// Block until a signal is received on the quit channel.
	<-quit
	slog.Info("Shutdown Server ...")

	// Create a context with a timeout for the graceful shutdown.
	// This gives active requests 5 seconds to complete.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	// Attempt to gracefully shut down the server.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// ProjectRouter sets up the API routes for project state and run outputs.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the project routes will be added. This
//     allows nesting routes under a common path prefix (e.g., "/api/v1").
//
// This function defines the following endpoints:
//   - GET /projects: Lists all registered projects, newest first.
//   - GET /projects/:id: Returns one project with its pipeline state.
//   - GET /status/:id: Returns the pipeline state of a project.
//   - POST /projects/:id/retry: Starts a fresh pipeline run for a failed project.
//   - GET /projects/:id/transcript: Returns the transcript once available.
//   - GET /projects/:id/moments: Returns the persisted moments.
//   - GET /projects/:id/story-suggestions: Returns the narrative clip suggestions.
//   - GET /projects/:id/assets: Returns the generated assets with signed streaming URLs.
func ProjectRouter(r *gin.RouterGroup) {
	// Handler for GET /status/:id, the cheap polling endpoint the frontend
	// hits while a run is in flight.
	r.GET("/status/:id", func(c *gin.Context) {
		project, ok := state.registry.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"project_id":       project.Id,
			"status":           project.State.Status,
			"processing_stage": project.State.Stage,
			"progress_percent": project.State.ProgressPercent,
			"created_at":       project.CreateDate,
			"updated_at":       project.State.UpdatedAt,
		})
	})

	// Group all project-related routes under the "/projects" path.
	projects := r.Group("/projects")
	{
		// Handler for GET /projects
		projects.GET("", func(c *gin.Context) {
			out := state.registry.List()
			// Newest first, matching the catalog's asset ordering.
			sort.Slice(out, func(i, j int) bool {
				return out[i].CreateDate.After(out[j].CreateDate)
			})
			c.JSON(http.StatusOK, gin.H{"projects": out})
		})

		// Handler for GET /projects/:id
		projects.GET("/:id", func(c *gin.Context) {
			project, ok := state.registry.Get(c.Param("id"))
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
				return
			}
			c.JSON(http.StatusOK, project)
		})

		// Handler for POST /projects/:id/retry
		// A retry is a brand new run over the already-staged source; only
		// failed projects are eligible.
		projects.POST("/:id/retry", func(c *gin.Context) {
			project, ok := state.registry.Get(c.Param("id"))
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
				return
			}
			if project.State.Status != model.StatusFailed {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Can only retry failed projects"})
				return
			}
			state.registry.UpdateState(project.Id, model.StatusPending, "retry_queued", 0)
			// Run in the background against the staged source. The registry
			// copy carries everything the pipeline needs.
			go func(p model.Project) {
				if err := state.clipPipeline.Run(context.Background(), &p); err != nil {
					slog.Error("pipeline retry failed", "project", p.Id, "error", err)
				}
			}(project)
			c.JSON(http.StatusOK, gin.H{
				"message":    "Project queued for retry",
				"project_id": project.Id,
			})
		})

		// Handler for GET /projects/:id/transcript
		projects.GET("/:id/transcript", func(c *gin.Context) {
			id := c.Param("id")
			if _, ok := state.registry.Get(id); !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
				return
			}
			transcript, ok := state.registry.GetTranscript(id)
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "Transcript not yet available"})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"project_id": id,
				"full_text":  transcript.FullText,
				"language":   transcript.Language,
				"segments":   transcript.Segments,
			})
		})

		// Handler for GET /projects/:id/moments
		projects.GET("/:id/moments", func(c *gin.Context) {
			id := c.Param("id")
			if _, ok := state.registry.Get(id); !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
				return
			}
			moments, err := state.catalog.GetMoments(c, id)
			if err != nil {
				slog.Error("failed to read moments", "project", id, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read moments"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"moments": moments})
		})

		// Handler for GET /projects/:id/story-suggestions
		projects.GET("/:id/story-suggestions", func(c *gin.Context) {
			id := c.Param("id")
			if _, ok := state.registry.Get(id); !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
				return
			}
			suggestions, ok := state.registry.GetSuggestions(id)
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "Story analysis not yet available"})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"project_id":  id,
				"suggestions": suggestions,
			})
		})

		// Handler for GET /projects/:id/assets
		// Durable clip URLs are exchanged for short-lived signed URLs;
		// local-fallback URLs pass through untouched and resolve against
		// the /clips static route.
		projects.GET("/:id/assets", func(c *gin.Context) {
			id := c.Param("id")
			if _, ok := state.registry.Get(id); !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
				return
			}
			assets, err := state.catalog.GetAssets(c, id)
			if err != nil {
				slog.Error("failed to read assets", "project", id, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read assets"})
				return
			}
			for _, asset := range assets {
				if asset.DurableURL == "" {
					continue
				}
				signed, err := state.catalog.GenerateSignedURL(c, asset.DurableURL, signedURLTTL)
				if err != nil {
					slog.Warn("failed to sign asset url", "asset", asset.Id, "error", err)
					continue
				}
				asset.DurableURL = signed
			}
			c.JSON(http.StatusOK, gin.H{"assets": assets})
		})
	}
}

// FileUpload sets up the route for handling video uploads.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the file upload route will be added.
//
// This function configures a POST endpoint at "/uploads" that accepts
// multipart/form-data with a single "file" field and an optional
// "content_type" field naming the testimonial category. The upload is
// sniffed to confirm it is a video, staged into the project's local work
// directory, probed for duration, and handed to the clip pipeline in a
// background goroutine.
func FileUpload(r *gin.RouterGroup) {
	// Group the upload route under "/uploads".
	upload := r.Group("/uploads")
	{
		// Handler for POST /uploads
		upload.POST("", func(c *gin.Context) {
			file, err := c.FormFile("file")
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "get form err: " + err.Error()})
				return
			}

			// Sniff the magic bytes before accepting the upload. The
			// declared MIME type is client-controlled and not trusted.
			src, err := file.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "open upload err: " + err.Error()})
				return
			}
			head := make([]byte, 261)
			n, _ := src.Read(head)
			_ = src.Close()
			if !filetype.IsVideo(head[:n]) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type. Only video uploads are accepted."})
				return
			}

			contentType := c.DefaultPostForm("content_type", "testimonial")
			if _, ok := state.config.ContentTypes[contentType]; !ok {
				contentType = "testimonial"
			}

			// Create and register the project before staging, so status
			// polling works from the first moment.
			project := model.NewProject(file.Filename, contentType)
			state.registry.Put(project)
			state.registry.UpdateState(project.Id, model.StatusProcessing, "staging_source", 5)

			// Stage the source into the project's work directory.
			dir := filepath.Join(state.config.Storage.LocalWorkDir, project.Id)
			if err := os.MkdirAll(dir, 0o750); err != nil {
				state.registry.UpdateState(project.Id, model.StatusFailed, "Upload error: "+err.Error(), 5)
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			localPath := filepath.Join(dir, "source"+filepath.Ext(file.Filename))
			if err := c.SaveUploadedFile(file, localPath); err != nil {
				state.registry.UpdateState(project.Id, model.StatusFailed, "Upload error: "+err.Error(), 5)
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			// The registry owns the project pointer once it is registered,
			// so metadata writes go through its locked setters.
			fileSizeMB := float64(file.Size) / (1024.0 * 1024.0)
			state.registry.SetSourceMetadata(project.Id, localPath, fileSizeMB)

			// Measure the source duration. A probe failure is not fatal;
			// the synthesizer clamps against the probe again later.
			durationSeconds := 0
			if seconds, err := state.encoder.ProbeDuration(c, localPath); err == nil {
				durationSeconds = int(seconds)
				state.registry.SetDuration(project.Id, durationSeconds)
			} else {
				slog.Warn("unable to probe uploaded source", "project", project.Id, "error", err)
			}

			state.registry.UpdateState(project.Id, model.StatusPending, "", 10)

			// Start processing in the background and return immediately.
			go func() {
				if err := state.clipPipeline.Run(context.Background(), project); err != nil {
					slog.Error("pipeline run failed", "project", project.Id, "error", err)
				}
			}()

			c.JSON(http.StatusOK, gin.H{
				"message":          "Video uploaded successfully",
				"project_id":       project.Id,
				"status":           model.StatusPending,
				"file_size_mb":     fileSizeMB,
				"duration_seconds": durationSeconds,
			})
		})
	}
}
