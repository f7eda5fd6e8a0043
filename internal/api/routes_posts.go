package api

import (
	"github.com/gin-gonic/gin"

	"github.com/connecthq/connect/internal/handlers"
)

func registerPostRoutes(r *gin.Engine, requireAuth gin.HandlerFunc, h *handlers.PostHandler) {
	posts := r.Group("/api/posts")
	posts.Use(requireAuth)
	{
		posts.POST("", h.Create)
		posts.GET("/feed", h.Feed)

		posts.POST("/:id/comments", h.Comment)
		posts.GET("/:id/comments", h.Comments)

		posts.GET("/:id/likes", h.Likes)
		posts.POST("/:id/like", h.ToggleLike)
	}
}
