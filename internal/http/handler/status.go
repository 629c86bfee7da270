package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"devassist.app/engine/internal/http/dto"
)

type StatusHandler struct {
	engine SuggestionEngine
}

func NewStatusHandler(eng SuggestionEngine) *StatusHandler {
	return &StatusHandler{engine: eng}
}

func (h *StatusHandler) Status(c *gin.Context) {
	status := h.engine.Status()

	c.JSON(http.StatusOK, dto.StatusResponse{
		Degradation:    status.Degradation.String(),
		SystemAccuracy: status.SystemAccuracy,
		Cache:          status.Cache,
		Capabilities:   status.Capabilities,
	})
}
