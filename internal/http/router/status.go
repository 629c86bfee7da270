package router

import (
	"github.com/gin-gonic/gin"

	"devassist.app/engine/internal/http/handler"
)

func StatusRouter(router *gin.RouterGroup, handler *handler.StatusHandler) {
	router.GET("/status", handler.Status)
}
