package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/connecthq/connect/internal/services"
	"github.com/connecthq/connect/pkg/response"
)

// FollowHandler serves the follower graph.
type FollowHandler struct {
	follows *services.FollowService
}

func NewFollowHandler(follows *services.FollowService) *FollowHandler {
	return &FollowHandler{follows: follows}
}

// POST /api/users/:id/follow
func (h *FollowHandler) Toggle(c *gin.Context) {
	following, err := h.follows.ToggleFollow(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"following": following})
}

// GET /api/users/:id/followers?page=
func (h *FollowHandler) Followers(c *gin.Context) {
	page := services.NormalisePage(parseIntQuery(c, "page", 1), parseIntQuery(c, "per_page", 0), 10)

	users, total, err := h.follows.Followers(requestContext(c), c.Param("id"), page)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, users, page.Meta(total))
}

// GET /api/users/:id/following?page=
func (h *FollowHandler) Following(c *gin.Context) {
	page := services.NormalisePage(parseIntQuery(c, "page", 1), parseIntQuery(c, "per_page", 0), 10)

	users, total, err := h.follows.Following(requestContext(c), c.Param("id"), page)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, users, page.Meta(total))
}
