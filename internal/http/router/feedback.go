package router

import (
	"github.com/gin-gonic/gin"

	"devassist.app/engine/internal/http/handler"
)

func FeedbackRouter(router *gin.RouterGroup, handler *handler.FeedbackHandler) {
	router.POST("", handler.Record)
}
