package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"devassist.app/engine/internal/http/dto"
	"devassist.app/engine/internal/model"
)

// StandardsWriter is the slice of the standards store this handler needs.
type StandardsWriter interface {
	Upsert(ctx context.Context, standards model.Standards) (string, error)
}

type StandardsHandler struct {
	standards StandardsWriter
}

func NewStandardsHandler(standards StandardsWriter) *StandardsHandler {
	return &StandardsHandler{standards: standards}
}

// Upsert replaces a project's denylist. The stored version is returned; it
// participates in cache fingerprints, so suggestions validated under older
// rules age out on their own.
func (h *StandardsHandler) Upsert(c *gin.Context) {
	ctx := c.Request.Context()

	projectID := c.Param("projectId")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project id is required"})
		return
	}

	var req dto.UpsertStandardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	version, err := h.standards.Upsert(ctx, model.Standards{
		ProjectID: projectID,
		Version:   req.Version,
		Rules:     req.Rules,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to upsert project standards", "error", err, "project_id", projectID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update standards"})
		return
	}
	c.JSON(http.StatusOK, dto.UpsertStandardsResponse{Version: version})
}
