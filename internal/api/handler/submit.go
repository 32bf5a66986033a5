package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apidomain "github.com/philjnicholls/sendtokindle/internal/api/domain"
	"github.com/philjnicholls/sendtokindle/internal/api/dto"
	"github.com/philjnicholls/sendtokindle/internal/api/model"
	workerdomain "github.com/philjnicholls/sendtokindle/internal/worker/domain"
)

// SubmitPage handles POST /api
// Validates the caller's token and the target page, then queues a job to
// extract, convert and deliver the article. The response is returned before
// the pipeline runs; completion is reported via the job status endpoint.
func (h *Handler) SubmitPage(c *gin.Context) {
	var req dto.SubmitPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid submission body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	if req.URL == "" && req.HTML == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": `Missing parameter "url" or "html"`,
		})
		return
	}

	if req.URL == "" && req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": `Parameter "title" is required with "html"`,
		})
		return
	}

	user, err := h.users.FindByToken(c.Request.Context(), req.Token)
	if err != nil {
		if errors.Is(err, apidomain.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": apidomain.ErrUnknownToken.Error(),
			})
			return
		}
		h.logger.Error("Failed to look up token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to validate token",
		})
		return
	}

	if !user.Verified {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": apidomain.ErrUnverified.Error(),
		})
		return
	}

	// Fail fast if the page cannot be fetched at all, before committing a
	// job to the queue.
	if req.URL != "" {
		if err := h.pageChecker.Check(c.Request.Context(), req.URL); err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, apidomain.ErrPageNotFound) {
				status = http.StatusNotFound
			}
			h.logger.Warn("Submitted URL failed reachability check",
				slog.String("url", req.URL),
				slog.String("error", err.Error()),
			)
			c.JSON(status, gin.H{
				"error": err.Error(),
			})
			return
		}
	}

	// RecipientEmail snapshots the user's delivery address now; later
	// account changes do not affect this job.
	job := model.Job{
		JobID:          uuid.New().String(),
		URL:            req.URL,
		HTML:           req.HTML,
		Title:          req.Title,
		RecipientEmail: user.KindleEmail,
		Status:         workerdomain.JobStatusQueued,
		CreatedAt:      time.Now().UTC(),
	}

	body, err := json.Marshal(workerdomain.JobMessage{JobID: job.JobID})
	if err != nil {
		h.logger.Error("Failed to encode job message", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to queue job",
		})
		return
	}

	if err := h.jobs.CreateJob(c.Request.Context(), &job); err != nil {
		h.logger.Error("Failed to create job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create job",
		})
		return
	}

	if err := h.queue.Publish(c.Request.Context(), body, "application/json"); err != nil {
		h.logger.Error("Failed to publish job",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
		// Back the row out so the status endpoint never reports a QUEUED
		// job no worker will receive
		if delErr := h.jobs.DeleteJob(c.Request.Context(), job.JobID); delErr != nil {
			h.logger.Error("Failed to delete unpublished job",
				slog.String("job_id", job.JobID),
				slog.String("error", delErr.Error()),
			)
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to queue job",
		})
		return
	}

	h.logger.Info("Job queued",
		slog.String("job_id", job.JobID),
		slog.String("url", job.URL),
	)

	c.JSON(http.StatusAccepted, dto.SubmitPageResponse{
		Accepted: true,
		JobID:    job.JobID,
	})
}
