package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	iauth "github.com/connecthq/connect/internal/auth"
	"github.com/connecthq/connect/internal/handlers"
	"github.com/connecthq/connect/internal/middleware"
	"github.com/connecthq/connect/internal/services"
	appErrors "github.com/connecthq/connect/pkg/errors"
	"github.com/connecthq/connect/pkg/response"
)

// Dependencies carries the wired services the router mounts handlers on.
type Dependencies struct {
	Tokens       *iauth.TokenService
	Verification *services.VerificationService
	Accounts     *services.AccountService
	Users        *services.UserService
	Posts        *services.PostService
	Follows      *services.FollowService
	Uploads      handlers.UploadConfig
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.Tokens == nil {
		return nil, fmt.Errorf("token service must be provided")
	}
	if deps.Verification == nil || deps.Accounts == nil {
		return nil, fmt.Errorf("auth services must be provided")
	}
	if deps.Users == nil || deps.Posts == nil || deps.Follows == nil {
		return nil, fmt.Errorf("domain services must be provided")
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.ErrNotFound)
	})

	r.GET("/health", handlers.Health())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if deps.Uploads.Dir != "" {
		r.StaticFS("/uploads", http.Dir(deps.Uploads.Dir))
	}

	requireAuth := middleware.Auth(deps.Tokens)

	registerAuthRoutes(r, handlers.NewAuthHandler(deps.Verification, deps.Accounts))
	registerUserRoutes(r, requireAuth, deps)
	registerPostRoutes(r, requireAuth, handlers.NewPostHandler(deps.Posts, deps.Uploads))

	return r, nil
}
