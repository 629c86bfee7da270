package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"devassist.app/engine/internal/engine"
	"devassist.app/engine/internal/http/dto"
	"devassist.app/engine/internal/model"
)

type FeedbackHandler struct {
	engine SuggestionEngine
}

func NewFeedbackHandler(eng SuggestionEngine) *FeedbackHandler {
	return &FeedbackHandler{engine: eng}
}

func (h *FeedbackHandler) Record(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid feedback request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	eventID, err := h.engine.RecordFeedback(ctx, model.FeedbackEvent{
		SuggestionID:  req.SuggestionID,
		DeveloperID:   req.DeveloperID,
		Accepted:      *req.Accepted,
		QualityRating: req.QualityRating,
	})
	if err != nil {
		if errors.Is(err, engine.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "failed to record feedback", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record feedback"})
		return
	}

	c.JSON(http.StatusAccepted, dto.FeedbackResponse{EventID: eventID})
}
