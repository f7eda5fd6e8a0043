package api

import (
	"github.com/gin-gonic/gin"

	"github.com/connecthq/connect/internal/handlers"
)

func registerUserRoutes(r *gin.Engine, requireAuth gin.HandlerFunc, deps Dependencies) {
	userHandler := handlers.NewUserHandler(deps.Users, deps.Uploads)
	followHandler := handlers.NewFollowHandler(deps.Follows)
	postHandler := handlers.NewPostHandler(deps.Posts, deps.Uploads)

	users := r.Group("/api/users")
	users.Use(requireAuth)
	{
		users.GET("/me", userHandler.Me)
		users.PUT("/me", userHandler.UpdateProfile)
		users.POST("/change-password", userHandler.ChangePassword)
		users.GET("/search", userHandler.Search)

		users.GET("/:id", userHandler.Profile)
		users.GET("/:id/posts", postHandler.UserPosts)

		users.POST("/:id/follow", followHandler.Toggle)
		users.GET("/:id/followers", followHandler.Followers)
		users.GET("/:id/following", followHandler.Following)
	}
}
