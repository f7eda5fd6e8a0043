package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxVerificationAttempts bounds how often a code may be guessed before a
// fresh request is required.
const MaxVerificationAttempts = 3

// EmailVerification tracks an in-flight signup confirmation. At most one row
// exists per email; the row is consumed when the account is created.
type EmailVerification struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	Email      string `gorm:"uniqueIndex;not null" json:"email"`
	Code       int    `gorm:"not null" json:"code"`
	IsVerified bool   `gorm:"not null;default:false" json:"is_verified"`
	Attempts   int    `gorm:"not null;default:3" json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (v *EmailVerification) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
