package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/connecthq/connect/internal/models"
	"github.com/connecthq/connect/pkg/crypto"
	"github.com/connecthq/connect/pkg/logger"
	"github.com/connecthq/connect/pkg/mail"
	"github.com/connecthq/connect/pkg/metrics"
)

// VerificationService manages the confirmation-code life cycle that gates
// account creation: request, resend, bounded retry, and the verified-state
// transition.
type VerificationService struct {
	db     *gorm.DB
	mailer mail.Mailer
	log    *zap.Logger
}

// NewVerificationService constructs the service. The mailer may be nil, in
// which case codes are persisted but no email leaves the process.
func NewVerificationService(db *gorm.DB, mailer mail.Mailer) (*VerificationService, error) {
	if db == nil {
		return nil, errors.New("verification service: db is required")
	}

	return &VerificationService{
		db:     db,
		mailer: mailer,
		log:    logger.WithModule("verification"),
	}, nil
}

// VerificationResult is the snapshot returned once a code matches, echoed
// back so the client can bind the signup call to this exact record.
type VerificationResult struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Code       int    `json:"code"`
	IsVerified bool   `json:"is_verified"`
}

// RequestCode creates a confirmation code for email, or resends the existing
// one with the attempt counter reset. The code is never regenerated once
// assigned, so a code already sitting in the user's inbox stays valid.
func (s *VerificationService) RequestCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return errors.New("verification service: email is required")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).Count(&existing).Error; err != nil {
		return fmt.Errorf("verification service: check account: %w", err)
	}
	if existing > 0 {
		return ErrEmailTaken
	}

	var record models.EmailVerification
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&record).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		code, genErr := crypto.GenerateVerificationCode()
		if genErr != nil {
			return fmt.Errorf("verification service: %w", genErr)
		}
		record = models.EmailVerification{
			Email:    email,
			Code:     code,
			Attempts: models.MaxVerificationAttempts,
		}
		if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
			return fmt.Errorf("verification service: create record: %w", err)
		}
	case err != nil:
		return fmt.Errorf("verification service: find record: %w", err)
	default:
		// Resend path: reset the attempt budget, keep the assigned code.
		if err := s.db.WithContext(ctx).Model(&record).
			Update("attempts", models.MaxVerificationAttempts).Error; err != nil {
			return fmt.Errorf("verification service: reset attempts: %w", err)
		}
	}

	s.deliver(ctx, record.Code, email)
	metrics.VerificationCodes.WithLabelValues("sent").Inc()
	return nil
}

// VerifyCode checks the supplied code against the record for email.
// A mismatch consumes one attempt; a record with no attempts left refuses
// further matching until RequestCode resets it.
func (s *VerificationService) VerifyCode(ctx context.Context, email string, code int) (*VerificationResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, errors.New("verification service: email is required")
	}

	var record models.EmailVerification
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, fmt.Errorf("verification service: find record: %w", err)
	}

	if record.Attempts <= 0 {
		metrics.VerificationCodes.WithLabelValues("exhausted").Inc()
		return nil, ErrAttemptsExhausted
	}

	if record.Code != code {
		// Single-row guarded decrement keeps attempts inside [0, 3] even
		// under concurrent guesses for the same email.
		if err := s.db.WithContext(ctx).Model(&models.EmailVerification{}).
			Where("id = ? AND attempts > 0", record.ID).
			UpdateColumn("attempts", gorm.Expr("attempts - 1")).Error; err != nil {
			return nil, fmt.Errorf("verification service: decrement attempts: %w", err)
		}
		metrics.VerificationCodes.WithLabelValues("mismatch").Inc()
		return nil, ErrCodeMismatch
	}

	if err := s.db.WithContext(ctx).Model(&record).
		Update("is_verified", true).Error; err != nil {
		return nil, fmt.Errorf("verification service: mark verified: %w", err)
	}

	metrics.VerificationCodes.WithLabelValues("verified").Inc()
	return &VerificationResult{
		ID:         record.ID,
		Email:      record.Email,
		Code:       record.Code,
		IsVerified: true,
	}, nil
}

// deliver pushes the code to the notification sink. Delivery failures are
// logged and never surfaced to the caller.
func (s *VerificationService) deliver(ctx context.Context, code int, email string) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.Send(ctx, mail.VerificationCodeMessage(code, email)); err != nil {
		if errors.Is(err, mail.ErrSMTPDisabled) {
			s.log.Debug("verification email skipped, smtp disabled", zap.String("email", email))
			return
		}
		s.log.Warn("verification email failed", zap.String("email", email), zap.Error(err))
	}
}
