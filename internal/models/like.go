package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Like marks that a user liked a post. One row per (post, user) pair.
type Like struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"type:uuid;not null;index:idx_likes_post_user,unique" json:"-"`
	UserID string `gorm:"type:uuid;not null;index:idx_likes_post_user,unique" json:"-"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
