package router

import (
	"github.com/gin-gonic/gin"

	"devassist.app/engine/internal/http/handler"
)

func StandardsRouter(router *gin.RouterGroup, handler *handler.StandardsHandler) {
	router.PUT("/:projectId/standards", handler.Upsert)
}
