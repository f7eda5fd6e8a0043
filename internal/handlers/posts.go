package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/connecthq/connect/internal/services"
	appErrors "github.com/connecthq/connect/pkg/errors"
	"github.com/connecthq/connect/pkg/response"
)

// PostHandler serves posts, comments and likes.
type PostHandler struct {
	posts   *services.PostService
	uploads UploadConfig
}

func NewPostHandler(posts *services.PostService, uploads UploadConfig) *PostHandler {
	return &PostHandler{posts: posts, uploads: uploads}
}

// POST /api/posts
//
// Multipart form: the image is mandatory, title and description optional.
func (h *PostHandler) Create(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("image is required"))
		return
	}

	url, err := saveImage(file, h.uploads)
	if err != nil {
		var appErr *appErrors.AppError
		if errors.As(err, &appErr) {
			response.Error(c, appErr)
		} else {
			response.Error(c, appErrors.Wrap(err, "could not store the image"))
		}
		return
	}

	post, err := h.posts.CreatePost(requestContext(c), services.CreatePostInput{
		UserID:      currentUserID(c),
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		ImageURL:    url,
	})
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusCreated, post)
}

// GET /api/posts/feed?page=
func (h *PostHandler) Feed(c *gin.Context) {
	page := services.NormalisePage(parseIntQuery(c, "page", 1), parseIntQuery(c, "per_page", 0), 15)

	feed, total, err := h.posts.Feed(requestContext(c), currentUserID(c), "", page)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, feed, page.Meta(total))
}

// GET /api/users/:id/posts?page=
func (h *PostHandler) UserPosts(c *gin.Context) {
	page := services.NormalisePage(parseIntQuery(c, "page", 1), parseIntQuery(c, "per_page", 0), 15)

	feed, total, err := h.posts.Feed(requestContext(c), currentUserID(c), c.Param("id"), page)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, feed, page.Meta(total))
}

type commentRequest struct {
	CommentText string `json:"comment_text" validate:"required,max=500"`
}

// POST /api/posts/:id/comments
func (h *PostHandler) Comment(c *gin.Context) {
	var req commentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	comment, err := h.posts.CommentOnPost(requestContext(c), c.Param("id"), currentUserID(c), req.CommentText)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusCreated, comment)
}

// GET /api/posts/:id/comments?page=
func (h *PostHandler) Comments(c *gin.Context) {
	page := services.NormalisePage(parseIntQuery(c, "page", 1), parseIntQuery(c, "per_page", 0), 12)

	comments, total, err := h.posts.CommentsOfPost(requestContext(c), c.Param("id"), page)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, comments, page.Meta(total))
}

// GET /api/posts/:id/likes?page=
func (h *PostHandler) Likes(c *gin.Context) {
	page := services.NormalisePage(parseIntQuery(c, "page", 1), parseIntQuery(c, "per_page", 0), 15)

	likes, total, err := h.posts.LikesOfPost(requestContext(c), c.Param("id"), page)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, likes, page.Meta(total))
}

// POST /api/posts/:id/like
func (h *PostHandler) ToggleLike(c *gin.Context) {
	liked, err := h.posts.ToggleLike(requestContext(c), c.Param("id"), currentUserID(c))
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"liked": liked})
}
