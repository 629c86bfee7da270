package router

import (
	"github.com/gin-gonic/gin"

	"devassist.app/engine/internal/http/handler"
)

func DeveloperRouter(router *gin.RouterGroup, handler *handler.DeveloperHandler) {
	router.PUT("/:developerId/skill-tier", handler.UpsertSkillTier)
	router.GET("/:developerId/accuracy", handler.Accuracy)
	router.GET("/:developerId/feedback", handler.Feedback)
}
