package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/connecthq/connect/internal/auth"
	"github.com/connecthq/connect/internal/models"
	"github.com/connecthq/connect/pkg/crypto"
)

func seedVerifiedRecord(t *testing.T, db *gorm.DB, email string, code int) models.EmailVerification {
	t.Helper()

	record := models.EmailVerification{
		Email:      email,
		Code:       code,
		IsVerified: true,
		Attempts:   models.MaxVerificationAttempts,
	}
	require.NoError(t, db.Create(&record).Error)
	return record
}

func newAccountService(t *testing.T, db *gorm.DB) (*AccountService, *auth.TokenService, *time.Time) {
	t.Helper()

	tokens, clock := newTestTokenService(t)
	svc, err := NewAccountService(db, tokens)
	require.NoError(t, err)
	return svc, tokens, clock
}

func TestSignupConsumesVerification(t *testing.T) {
	db := openTestDB(t)
	svc, tokens, _ := newAccountService(t, db)

	record := seedVerifiedRecord(t, db, "alice@example.com", 123456)

	user, pair, err := svc.Signup(context.Background(), SignupInput{
		Username:       "alice",
		Email:          "Alice@Example.com",
		Password:       "correct horse battery",
		VerificationID: record.ID,
		Code:           record.Code,
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, "alice", user.Username)
	require.Equal(t, "alice@example.com", user.Email)
	require.Equal(t, models.DefaultProfilePhoto, user.ProfilePhotoURL)
	require.True(t, crypto.VerifyPassword(user.Password, "correct horse battery"))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	// The freshly minted refresh token is live.
	userID, err := tokens.ValidateRefresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)

	// The verification record is consumed by the signup.
	var count int64
	require.NoError(t, db.Model(&models.EmailVerification{}).
		Where("email = ?", "alice@example.com").Count(&count).Error)
	require.Zero(t, count)
}

func TestSignupRequiresVerifiedRecord(t *testing.T) {
	db := openTestDB(t)
	svc, _, _ := newAccountService(t, db)

	record := models.EmailVerification{
		Email:    "bob@example.com",
		Code:     222333,
		Attempts: models.MaxVerificationAttempts,
	}
	require.NoError(t, db.Create(&record).Error)

	_, _, err := svc.Signup(context.Background(), SignupInput{
		Username:       "bob",
		Email:          "bob@example.com",
		Password:       "password-123",
		VerificationID: record.ID,
		Code:           record.Code,
	})
	require.ErrorIs(t, err, ErrEmailNotVerified)

	// A verified record with the wrong code is rejected the same way.
	verified := seedVerifiedRecord(t, db, "carol@example.com", 444555)
	_, _, err = svc.Signup(context.Background(), SignupInput{
		Username:       "carol",
		Email:          "carol@example.com",
		Password:       "password-123",
		VerificationID: verified.ID,
		Code:           verified.Code + 1,
	})
	require.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestSignupRejectsDuplicates(t *testing.T) {
	db := openTestDB(t)
	svc, _, _ := newAccountService(t, db)

	seedUser(t, db, "dupuser", "dup@example.com", "password-123")
	record := seedVerifiedRecord(t, db, "fresh@example.com", 987654)

	_, _, err := svc.Signup(context.Background(), SignupInput{
		Username:       "dupuser",
		Email:          "fresh@example.com",
		Password:       "password-123",
		VerificationID: record.ID,
		Code:           record.Code,
	})
	require.ErrorIs(t, err, ErrUsernameTaken)

	_, _, err = svc.Signup(context.Background(), SignupInput{
		Username:       "freshuser",
		Email:          "dup@example.com",
		Password:       "password-123",
		VerificationID: record.ID,
		Code:           record.Code,
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestSigninByUsernameOrEmail(t *testing.T) {
	db := openTestDB(t)
	svc, _, clock := newAccountService(t, db)

	seeded := seedUser(t, db, "dave", "dave@example.com", "password-123")

	user, pair, err := svc.Signin(context.Background(), "dave", "password-123")
	require.NoError(t, err)
	require.Equal(t, seeded.ID, user.ID)
	require.NotEmpty(t, pair.RefreshToken)

	*clock = clock.Add(time.Second)
	user, _, err = svc.Signin(context.Background(), "Dave@Example.com", "password-123")
	require.NoError(t, err)
	require.Equal(t, seeded.ID, user.ID)

	_, _, err = svc.Signin(context.Background(), "dave", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Signin(context.Background(), "nobody", "password-123")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestSigninSupersedesPreviousSession(t *testing.T) {
	db := openTestDB(t)
	svc, _, clock := newAccountService(t, db)

	seedUser(t, db, "erin", "erin@example.com", "password-123")

	_, first, err := svc.Signin(context.Background(), "erin", "password-123")
	require.NoError(t, err)

	*clock = clock.Add(time.Second)
	_, second, err := svc.Signin(context.Background(), "erin", "password-123")
	require.NoError(t, err)

	_, _, err = svc.Refresh(context.Background(), first.RefreshToken)
	require.ErrorIs(t, err, auth.ErrTokenRevoked)

	_, _, err = svc.Refresh(context.Background(), second.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRotatesExactlyOnce(t *testing.T) {
	db := openTestDB(t)
	svc, _, clock := newAccountService(t, db)

	seeded := seedUser(t, db, "frank", "frank@example.com", "password-123")

	_, first, err := svc.Signin(context.Background(), "frank", "password-123")
	require.NoError(t, err)

	*clock = clock.Add(time.Second)
	userID, second, err := svc.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, seeded.ID, userID)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// Replaying the consumed token fails; the new one keeps working.
	_, _, err = svc.Refresh(context.Background(), first.RefreshToken)
	require.ErrorIs(t, err, auth.ErrTokenRevoked)

	*clock = clock.Add(time.Second)
	_, _, err = svc.Refresh(context.Background(), second.RefreshToken)
	require.NoError(t, err)
}

func TestLogoutRevokesSession(t *testing.T) {
	db := openTestDB(t)
	svc, _, _ := newAccountService(t, db)

	seedUser(t, db, "grace", "grace@example.com", "password-123")

	_, pair, err := svc.Signin(context.Background(), "grace", "password-123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), pair.RefreshToken))

	_, _, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, auth.ErrTokenRevoked)

	// Logging out with the already revoked token reports the same.
	err = svc.Logout(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, auth.ErrTokenRevoked)
}
