package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/connecthq/connect/internal/models"
	"github.com/connecthq/connect/pkg/mail"
)

// recordingMailer captures outbound messages instead of delivering them.
type recordingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
	fail     error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *recordingMailer) sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.messages...)
}

func fetchVerification(t *testing.T, db *gorm.DB, email string) models.EmailVerification {
	t.Helper()
	var record models.EmailVerification
	require.NoError(t, db.Where("email = ?", email).Take(&record).Error)
	return record
}

func TestRequestCodeCreatesRecord(t *testing.T) {
	db := openTestDB(t)
	mailer := &recordingMailer{}

	svc, err := NewVerificationService(db, mailer)
	require.NoError(t, err)

	require.NoError(t, svc.RequestCode(context.Background(), "New.User@Example.com"))

	record := fetchVerification(t, db, "new.user@example.com")
	require.GreaterOrEqual(t, record.Code, 100000)
	require.LessOrEqual(t, record.Code, 999999)
	require.Equal(t, models.MaxVerificationAttempts, record.Attempts)
	require.False(t, record.IsVerified)

	messages := mailer.sent()
	require.Len(t, messages, 1)
	require.Equal(t, []string{"new.user@example.com"}, messages[0].To)
	require.Contains(t, messages[0].Subject, "Connect")
}

func TestRequestCodeResendKeepsCode(t *testing.T) {
	db := openTestDB(t)

	svc, err := NewVerificationService(db, nil)
	require.NoError(t, err)

	email := "resend@example.com"
	require.NoError(t, svc.RequestCode(context.Background(), email))
	first := fetchVerification(t, db, email)

	// Burn an attempt, then resend.
	_, err = svc.VerifyCode(context.Background(), email, wrongCode(first.Code))
	require.ErrorIs(t, err, ErrCodeMismatch)
	require.Equal(t, first.Attempts-1, fetchVerification(t, db, email).Attempts)

	require.NoError(t, svc.RequestCode(context.Background(), email))

	second := fetchVerification(t, db, email)
	require.Equal(t, first.Code, second.Code)
	require.Equal(t, models.MaxVerificationAttempts, second.Attempts)
}

func TestRequestCodeRejectsExistingAccount(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "taken", "taken@example.com", "password-123")

	svc, err := NewVerificationService(db, nil)
	require.NoError(t, err)

	err = svc.RequestCode(context.Background(), "taken@example.com")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestVerifyCodeSuccess(t *testing.T) {
	db := openTestDB(t)

	svc, err := NewVerificationService(db, nil)
	require.NoError(t, err)

	email := "verify@example.com"
	require.NoError(t, svc.RequestCode(context.Background(), email))
	record := fetchVerification(t, db, email)

	result, err := svc.VerifyCode(context.Background(), email, record.Code)
	require.NoError(t, err)
	require.Equal(t, record.ID, result.ID)
	require.Equal(t, email, result.Email)
	require.True(t, result.IsVerified)

	require.True(t, fetchVerification(t, db, email).IsVerified)
}

func TestVerifyCodeUnknownEmail(t *testing.T) {
	db := openTestDB(t)

	svc, err := NewVerificationService(db, nil)
	require.NoError(t, err)

	_, err = svc.VerifyCode(context.Background(), "nobody@example.com", 123456)
	require.ErrorIs(t, err, ErrVerificationNotFound)
}

// TestVerifyCodeAttemptBoundary pins the exact exhaustion boundary: the third
// wrong guess still reports a mismatch while draining the budget to zero, and
// only the fourth reports exhaustion.
func TestVerifyCodeAttemptBoundary(t *testing.T) {
	db := openTestDB(t)

	svc, err := NewVerificationService(db, nil)
	require.NoError(t, err)

	email := "boundary@example.com"
	require.NoError(t, svc.RequestCode(context.Background(), email))
	record := fetchVerification(t, db, email)
	bad := wrongCode(record.Code)

	for i := 0; i < models.MaxVerificationAttempts; i++ {
		_, err = svc.VerifyCode(context.Background(), email, bad)
		require.ErrorIs(t, err, ErrCodeMismatch, "guess %d", i+1)
	}
	require.Equal(t, 0, fetchVerification(t, db, email).Attempts)

	_, err = svc.VerifyCode(context.Background(), email, bad)
	require.ErrorIs(t, err, ErrAttemptsExhausted)

	// Even the correct code is refused once the budget is gone.
	_, err = svc.VerifyCode(context.Background(), email, record.Code)
	require.ErrorIs(t, err, ErrAttemptsExhausted)

	// A fresh request resets the budget and the same code then verifies.
	require.NoError(t, svc.RequestCode(context.Background(), email))
	result, err := svc.VerifyCode(context.Background(), email, record.Code)
	require.NoError(t, err)
	require.True(t, result.IsVerified)
}

func TestRequestCodeSwallowsMailerFailure(t *testing.T) {
	db := openTestDB(t)
	mailer := &recordingMailer{fail: errors.New("smtp timeout")}

	svc, err := NewVerificationService(db, mailer)
	require.NoError(t, err)

	require.NoError(t, svc.RequestCode(context.Background(), "flaky@example.com"))
	fetchVerification(t, db, "flaky@example.com")
}

func wrongCode(code int) int {
	if code == 999999 {
		return 100000
	}
	return code + 1
}
