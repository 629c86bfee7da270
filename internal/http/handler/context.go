package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"devassist.app/engine/internal/http/dto"
	"devassist.app/engine/internal/model"
)

type ContextHandler struct {
	engine SuggestionEngine
}

func NewContextHandler(eng SuggestionEngine) *ContextHandler {
	return &ContextHandler{engine: eng}
}

// Update replaces the tracked context for a file. Called by the editor
// integration on every meaningful buffer change.
func (h *ContextHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	fileID := c.Param("fileId")
	if fileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file id is required"})
		return
	}

	var req dto.UpdateContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid context update", "error", err, "file_id", fileID)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.engine.UpdateContext(ctx, model.ContextUpdate{
		FileID:         fileID,
		Content:        req.Content,
		CursorPosition: req.CursorPosition,
		Language:       req.Language,
		Project:        req.Project,
	})
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Forget drops the tracked context and cached suggestions for a file. Called
// when the editor closes it.
func (h *ContextHandler) Forget(c *gin.Context) {
	fileID := c.Param("fileId")
	if fileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file id is required"})
		return
	}

	h.engine.ForgetContext(c.Request.Context(), fileID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// InvalidateCache force-drops all cached suggestions for a file.
func (h *ContextHandler) InvalidateCache(c *gin.Context) {
	fileID := c.Param("fileId")
	if fileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file id is required"})
		return
	}

	h.engine.InvalidateCache(c.Request.Context(), fileID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
