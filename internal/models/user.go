package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultProfilePhoto is assigned to accounts that never uploaded a photo.
const DefaultProfilePhoto = "defaultProfilePic.png"

// User is a verified durable account. A row exists only after the owner
// confirmed their email address through the verification flow.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	Fullname           *string `json:"fullname"`
	RelationshipStatus *string `json:"relationship_status"`
	ProfilePhotoURL    string  `gorm:"not null;default:defaultProfilePic.png" json:"profile_photo_url"`

	Posts    []Post    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Comments []Comment `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Likes    []Like    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Summary is the public projection of a user embedded in lists and posts.
type Summary struct {
	ID              string  `json:"id"`
	Username        string  `json:"username"`
	Fullname        *string `json:"fullname"`
	ProfilePhotoURL string  `json:"profile_photo_url"`
}

// Summary returns the public projection of the user.
func (u *User) Summary() Summary {
	return Summary{
		ID:              u.ID,
		Username:        u.Username,
		Fullname:        u.Fullname,
		ProfilePhotoURL: u.ProfilePhotoURL,
	}
}
