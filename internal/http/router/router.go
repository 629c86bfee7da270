package router

import (
	"github.com/gin-gonic/gin"

	"devassist.app/engine/internal/http/handler"
)

func SetupRoutes(router *gin.Engine, eng handler.SuggestionEngine, developers *handler.DeveloperHandler, standards *handler.StandardsHandler) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		SuggestionRouter(v1.Group("/suggestions"), handler.NewSuggestionHandler(eng))
		FeedbackRouter(v1.Group("/feedback"), handler.NewFeedbackHandler(eng))
		ContextRouter(v1, handler.NewContextHandler(eng))
		StatusRouter(v1, handler.NewStatusHandler(eng))
		DeveloperRouter(v1.Group("/developers"), developers)
		StandardsRouter(v1.Group("/projects"), standards)
	}
}
