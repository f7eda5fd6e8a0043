package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/connecthq/connect/internal/auth"
	"github.com/connecthq/connect/internal/models"
	"github.com/connecthq/connect/pkg/crypto"
	"github.com/connecthq/connect/pkg/metrics"
)

// AccountService orchestrates the signup/signin/refresh/logout use cases on
// top of the identity store, the verification ledger, and the token service.
type AccountService struct {
	db     *gorm.DB
	tokens *auth.TokenService
}

// NewAccountService wires the orchestrator.
func NewAccountService(db *gorm.DB, tokens *auth.TokenService) (*AccountService, error) {
	if db == nil {
		return nil, errors.New("account service: db is required")
	}
	if tokens == nil {
		return nil, errors.New("account service: token service is required")
	}
	return &AccountService{db: db, tokens: tokens}, nil
}

// SignupInput carries the fields required to create an account. The
// verification id and code bind the call to the exact verified record.
type SignupInput struct {
	Username       string
	Email          string
	Password       string
	VerificationID string
	Code           int
}

// Signup creates a verified account and issues its first token pair. The
// user row and the consumption of the verification record are written as a
// unit.
func (s *AccountService) Signup(ctx context.Context, input SignupInput) (*models.User, auth.TokenPair, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if username == "" || email == "" || input.Password == "" {
		return nil, auth.TokenPair{}, errors.New("account service: username, email and password are required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("account service: check username: %w", err)
	}
	if count > 0 {
		return nil, auth.TokenPair{}, ErrUsernameTaken
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("account service: check email: %w", err)
	}
	if count > 0 {
		return nil, auth.TokenPair{}, ErrEmailTaken
	}

	// The code is re-checked even post-verification so the signup is bound
	// to the record the caller actually verified.
	var verification models.EmailVerification
	err := s.db.WithContext(ctx).
		Where("id = ? AND email = ? AND code = ? AND is_verified = ?",
			strings.TrimSpace(input.VerificationID), email, input.Code, true).
		Take(&verification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.TokenPair{}, ErrEmailNotVerified
	}
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("account service: check verification: %w", err)
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("account service: hash password: %w", err)
	}

	user := &models.User{
		Username:        username,
		Email:           email,
		Password:        hashed,
		ProfilePhotoURL: models.DefaultProfilePhoto,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Where("email = ?", email).Delete(&models.EmailVerification{}).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, auth.TokenPair{}, ErrUsernameTaken
		}
		return nil, auth.TokenPair{}, fmt.Errorf("account service: create account: %w", err)
	}

	pair, err := s.tokens.MintPair(ctx, user.ID)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return user, pair, nil
}

// Signin authenticates by username or email plus password and mints a fresh
// token pair. Minting overwrites the session entry, so signing in from a new
// context invalidates the previous refresh token.
func (s *AccountService) Signin(ctx context.Context, identifier, password string) (*models.User, auth.TokenPair, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, auth.TokenPair{}, errors.New("account service: identifier and password are required")
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, strings.ToLower(identifier)).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, auth.TokenPair{}, ErrUserNotFound
	}
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("account service: find user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, auth.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.tokens.MintPair(ctx, user.ID)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &user, pair, nil
}

// Refresh rotates the supplied refresh token into a fresh pair. The old
// token stops validating the instant the new one is cached.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (string, auth.TokenPair, error) {
	userID, err := s.tokens.ValidateRefresh(ctx, refreshToken)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return "", auth.TokenPair{}, err
	}

	pair, err := s.tokens.MintPair(ctx, userID)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return "", auth.TokenPair{}, err
	}

	metrics.TokenRefreshes.WithLabelValues("success").Inc()
	return userID, pair, nil
}

// Logout revokes the live session for the token's user. After it returns,
// the user holds zero live refresh tokens until the next signin or refresh.
func (s *AccountService) Logout(ctx context.Context, refreshToken string) error {
	userID, err := s.tokens.ValidateRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	return s.tokens.Revoke(ctx, userID)
}
