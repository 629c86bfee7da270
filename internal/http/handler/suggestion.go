package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"devassist.app/engine/internal/engine"
	"devassist.app/engine/internal/http/dto"
	"devassist.app/engine/internal/model"
)

// SuggestionEngine is the slice of the engine the HTTP layer depends on.
type SuggestionEngine interface {
	GenerateSuggestions(ctx context.Context, req model.SuggestionRequest) (*model.SuggestionResponse, error)
	RecordFeedback(ctx context.Context, event model.FeedbackEvent) (int64, error)
	UpdateContext(ctx context.Context, update model.ContextUpdate)
	ForgetContext(ctx context.Context, fileID string)
	InvalidateCache(ctx context.Context, fileID string)
	Status() engine.Status
}

type SuggestionHandler struct {
	engine SuggestionEngine
}

func NewSuggestionHandler(eng SuggestionEngine) *SuggestionHandler {
	return &SuggestionHandler{engine: eng}
}

func (h *SuggestionHandler) Suggest(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid suggestion request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.engine.GenerateSuggestions(ctx, model.SuggestionRequest{
		FileID:         req.FileID,
		CursorPosition: req.CursorPosition,
		DeveloperID:    req.DeveloperID,
		ProjectID:      req.ProjectID,
	})
	if err != nil {
		if errors.Is(err, engine.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "failed to generate suggestions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate suggestions"})
		return
	}

	c.JSON(http.StatusOK, dto.SuggestResponse{
		Suggestions:    resp.Suggestions,
		CacheHit:       resp.CacheHit,
		Degradation:    resp.Degradation.String(),
		ResponseTimeMS: resp.ResponseTime.Milliseconds(),
	})
}
