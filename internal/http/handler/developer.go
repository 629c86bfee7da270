package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"devassist.app/engine/internal/http/dto"
	"devassist.app/engine/internal/model"
)

// DeveloperDirectory is the slice of the developer store this handler needs.
type DeveloperDirectory interface {
	UpsertSkillTier(ctx context.Context, developerID string, tier model.SkillTier) error
}

// FeedbackReader reads persisted feedback for the operator surface.
type FeedbackReader interface {
	ListByDeveloper(ctx context.Context, developerID string, limit int32) ([]model.FeedbackEvent, error)
	AccuracyByDeveloper(ctx context.Context, developerID string, window int32) (*model.AccuracyState, error)
}

type DeveloperHandler struct {
	directory DeveloperDirectory
	feedback  FeedbackReader
}

func NewDeveloperHandler(directory DeveloperDirectory, feedback FeedbackReader) *DeveloperHandler {
	return &DeveloperHandler{directory: directory, feedback: feedback}
}

// UpsertSkillTier sets a developer's tier, which biases ranking for their
// requests.
func (h *DeveloperHandler) UpsertSkillTier(c *gin.Context) {
	ctx := c.Request.Context()

	developerID := c.Param("developerId")
	if developerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "developer id is required"})
		return
	}

	var req dto.UpsertSkillTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tier := model.SkillTier(req.SkillTier)
	if !tier.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown skill tier: " + req.SkillTier})
		return
	}

	if err := h.directory.UpsertSkillTier(ctx, developerID, tier); err != nil {
		slog.ErrorContext(ctx, "failed to upsert skill tier", "error", err, "developer_id", developerID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update skill tier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Accuracy serves the persisted rolling acceptance rate for one developer,
// the durable counterpart of the controller's in-memory window.
func (h *DeveloperHandler) Accuracy(c *gin.Context) {
	ctx := c.Request.Context()

	developerID := c.Param("developerId")
	window := queryInt32(c, "window", 50)

	state, err := h.feedback.AccuracyByDeveloper(ctx, developerID, window)
	if err != nil {
		slog.ErrorContext(ctx, "failed to compute developer accuracy", "error", err, "developer_id", developerID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute accuracy"})
		return
	}
	c.JSON(http.StatusOK, state)
}

// Feedback lists a developer's most recent persisted feedback events.
func (h *DeveloperHandler) Feedback(c *gin.Context) {
	ctx := c.Request.Context()

	developerID := c.Param("developerId")
	limit := queryInt32(c, "limit", 50)

	events, err := h.feedback.ListByDeveloper(ctx, developerID, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list feedback events", "error", err, "developer_id", developerID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list feedback"})
		return
	}
	if events == nil {
		events = []model.FeedbackEvent{}
	}
	c.JSON(http.StatusOK, dto.DeveloperFeedbackResponse{Events: events})
}

func queryInt32(c *gin.Context, key string, fallback int32) int32 {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n <= 0 {
		return fallback
	}
	return int32(n)
}
