package router

import (
	"github.com/gin-gonic/gin"

	"devassist.app/engine/internal/http/handler"
)

func SuggestionRouter(router *gin.RouterGroup, handler *handler.SuggestionHandler) {
	router.POST("", handler.Suggest)
}
