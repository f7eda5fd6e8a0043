package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/connecthq/connect/internal/auth"
	"github.com/connecthq/connect/internal/models"
	"github.com/connecthq/connect/internal/services"
	"github.com/connecthq/connect/pkg/response"
)

// AuthHandler manages the verification and session flows
// (request-code/verify-code/signup/signin/refresh/logout).
type AuthHandler struct {
	verification *services.VerificationService
	accounts     *services.AccountService
}

func NewAuthHandler(verification *services.VerificationService, accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{verification: verification, accounts: accounts}
}

type requestCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// POST /api/auth/request-code
func (h *AuthHandler) RequestCode(c *gin.Context) {
	var req requestCodeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.verification.RequestCode(requestContext(c), req.Email); err != nil {
		response.Error(c, serviceError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "A confirmation code is on its way to " + strings.ToLower(strings.TrimSpace(req.Email)) + ".",
	})
}

type verifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  int    `json:"code" validate:"required"`
}

// POST /api/auth/verify-code
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req verifyCodeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.verification.VerifyCode(requestContext(c), req.Email, req.Code)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}

	response.Success(c, http.StatusOK, result)
}

type signupRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=30"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8,max=72"`
	VerificationID string `json:"verification_id" validate:"required"`
	Code           int    `json:"code" validate:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, pair, err := h.accounts.Signup(requestContext(c), services.SignupInput{
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		VerificationID: req.VerificationID,
		Code:           req.Code,
	})
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}

	response.Success(c, http.StatusCreated, authPayload(user, pair))
}

type signinRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// POST /api/auth/signin
func (h *AuthHandler) Signin(c *gin.Context) {
	var req signinRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, pair, err := h.accounts.Signin(requestContext(c), req.Identifier, req.Password)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}

	response.Success(c, http.StatusOK, authPayload(user, pair))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	_, pair, err := h.accounts.Refresh(requestContext(c), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}

	response.Success(c, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.accounts.Logout(requestContext(c), strings.TrimSpace(req.RefreshToken)); err != nil {
		response.Error(c, serviceError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Signed out."})
}

func authPayload(user *models.User, pair iauth.TokenPair) gin.H {
	return gin.H{
		"user": user,
		"tokens": tokenResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		},
	}
}
