package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/connecthq/connect/internal/services"
	appErrors "github.com/connecthq/connect/pkg/errors"
	"github.com/connecthq/connect/pkg/response"
)

// UserHandler serves profile reads and account-settings writes.
type UserHandler struct {
	users   *services.UserService
	uploads UploadConfig
}

func NewUserHandler(users *services.UserService, uploads UploadConfig) *UserHandler {
	return &UserHandler{users: users, uploads: uploads}
}

// GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.users.GetByID(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, user)
}

// GET /api/users/:id
func (h *UserHandler) Profile(c *gin.Context) {
	profile, err := h.users.GetProfile(requestContext(c), c.Param("id"), currentUserID(c))
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// GET /api/users/search?q=&page=
func (h *UserHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		response.Error(c, appErrors.NewBadRequest("q is required"))
		return
	}

	page := services.NormalisePage(parseIntQuery(c, "page", 1), parseIntQuery(c, "per_page", 0), 15)

	users, total, err := h.users.Search(requestContext(c), query, page)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, users, page.Meta(total))
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// POST /api/users/change-password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	err := h.users.ChangePassword(requestContext(c), currentUserID(c), req.OldPassword, req.NewPassword)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Password changed."})
}

// PUT /api/users/me
//
// Accepts multipart form data so the profile photo can ride along with the
// text fields. Absent fields are left unchanged.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("expected multipart form data"))
		return
	}

	update := services.ProfileUpdate{
		Username:           formValue(form.Value, "username"),
		Fullname:           formValue(form.Value, "fullname"),
		RelationshipStatus: formValue(form.Value, "relationship_status"),
	}

	if files := form.File["photo"]; len(files) > 0 {
		url, err := saveImage(files[0], h.uploads)
		if err != nil {
			var appErr *appErrors.AppError
			if errors.As(err, &appErr) {
				response.Error(c, appErr)
			} else {
				response.Error(c, appErrors.Wrap(err, "could not store the photo"))
			}
			return
		}
		update.ProfilePhotoURL = &url
	}

	user, err := h.users.UpdateProfile(requestContext(c), currentUserID(c), update)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, user)
}
