package api

import (
	"github.com/gin-gonic/gin"

	"github.com/connecthq/connect/internal/handlers"
)

// The whole auth surface is public: refresh and logout authenticate with the
// refresh token they carry, not with an access token.
func registerAuthRoutes(r *gin.Engine, h *handlers.AuthHandler) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/request-code", h.RequestCode)
		auth.POST("/verify-code", h.VerifyCode)
		auth.POST("/signup", h.Signup)
		auth.POST("/signin", h.Signin)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
	}
}
