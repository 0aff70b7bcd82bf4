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

package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/videopulse/video-insights/internal/core/jobs"
	"github.com/videopulse/video-insights/internal/core/model"
	"github.com/videopulse/video-insights/internal/telemetry"
)

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()
	r.Use(otelgin.Middleware("video-insights-server"))
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		JobRouter(apiV1)
		FileUpload(apiV1)
		apiV1.GET("/stats", func(c *gin.Context) {
			c.JSON(http.StatusOK, state.orchestrator.Stats())
		})
	}

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}
	state.orchestrator.Stop()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Error("Telemetry Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// submitRequest is the POST /jobs body.
type submitRequest struct {
	Source      model.VideoReference `json:"source"`
	DisplayName string               `json:"display_name"`
}

// httpStatusOf maps the pipeline error taxonomy onto HTTP status codes.
func httpStatusOf(err error) int {
	switch jobs.CodeOf(err) {
	case jobs.CodeInvalidArgument:
		return http.StatusBadRequest
	case jobs.CodeNotFound:
		return http.StatusNotFound
	case jobs.CodeNotReady:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// JobRouter sets up the routes for submitting jobs and reading their
// status and results.
func JobRouter(r *gin.RouterGroup) {
	group := r.Group("/jobs")
	{
		group.POST("", func(c *gin.Context) {
			var req submitRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			id, err := state.orchestrator.Submit(c.Request.Context(), req.Source, req.DisplayName)
			if err != nil {
				c.JSON(httpStatusOf(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusAccepted, gin.H{"id": id})
		})

		group.GET("/:id", func(c *gin.Context) {
			job, err := state.orchestrator.GetStatus(c.Param("id"))
			if err != nil {
				c.JSON(httpStatusOf(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, job)
		})

		group.GET("/:id/result", func(c *gin.Context) {
			result, err := state.orchestrator.GetResult(c.Param("id"))
			if err != nil {
				c.JSON(httpStatusOf(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, result)
		})

		// Archived copy of the result from BigQuery. Survives restarts,
		// unlike the in-memory registry behind /result.
		group.GET("/:id/archive", func(c *gin.Context) {
			row, err := state.resultService.GetArchived(c.Request.Context(), c.Param("id"))
			if err != nil {
				c.JSON(httpStatusOf(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, row)
		})

		// Signed URL for one archived frame image, valid for 15 minutes.
		group.GET("/:id/frames/:seq/url", func(c *gin.Context) {
			seq, err := strconv.Atoi(c.Param("seq"))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "frame sequence must be an integer"})
				return
			}
			result, err := state.orchestrator.GetResult(c.Param("id"))
			if err != nil {
				c.JSON(httpStatusOf(err), gin.H{"error": err.Error()})
				return
			}
			uri := findFrameURI(result, seq)
			if len(uri) == 0 {
				c.JSON(http.StatusNotFound, gin.H{"error": "frame has no archived image"})
				return
			}
			signedURL, err := state.resultService.GenerateSignedURL(c.Request.Context(), uri, 15*time.Minute)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate frame URL"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": signedURL})
		})
	}
}

// findFrameURI locates the archived storage URI of the frame with the
// given sequence. Orphan frames are not nested under any topic and so
// have no servable image.
func findFrameURI(result *model.SummaryResult, seq int) string {
	for _, section := range result.Topics {
		for _, frame := range section.Frames {
			if frame.Sequence == seq {
				return frame.StorageURI
			}
		}
	}
	return ""
}

// FileUpload accepts multipart uploads and stages them in the input
// bucket, where the GCS notification listener picks them up as jobs.
func FileUpload(r *gin.RouterGroup) {
	upload := r.Group("/uploads")
	{
		upload.POST("", func(c *gin.Context) {
			form, err := c.MultipartForm()
			if err != nil {
				c.String(http.StatusBadRequest, "get form err: %s", err.Error())
				return
			}
			files := form.File["files"]
			bucket := state.cloud.StorageClient.Bucket(state.config.Storage.InputBucket)

			for _, file := range files {
				localPath := filepath.Join(os.TempDir(), file.Filename)
				if err := c.SaveUploadedFile(file, localPath); err != nil {
					c.String(http.StatusBadRequest, "upload file err: %s", err.Error())
					return
				}

				content, err := os.ReadFile(localPath)
				if err != nil {
					log.Println(err)
					c.Status(http.StatusInternalServerError)
					return
				}
				wc := bucket.Object(file.Filename).NewWriter(c)
				wc.ContentType = "video/mp4"
				if _, err = wc.Write(content); err != nil {
					c.String(http.StatusInternalServerError, "write file to bucket err: %s", err.Error())
					return
				}
				if err := wc.Close(); err != nil {
					log.Printf("failed to close bucket handle: %v\n", err)
				}
				if err := os.Remove(localPath); err != nil {
					log.Printf("failed to remove file from server: %v\n", err)
				}
			}
			c.String(http.StatusOK, "Uploaded successfully %d files.", len(files))
		})
	}
}
