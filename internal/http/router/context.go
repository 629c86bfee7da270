package router

import (
	"github.com/gin-gonic/gin"

	"devassist.app/engine/internal/http/handler"
)

func ContextRouter(router *gin.RouterGroup, handler *handler.ContextHandler) {
	router.PUT("/context/:fileId", handler.Update)
	router.DELETE("/context/:fileId", handler.Forget)
	router.DELETE("/cache/:fileId", handler.InvalidateCache)
}
