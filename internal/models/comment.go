package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is a user comment on a post.
type Comment struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID      string `gorm:"type:uuid;not null;index" json:"-"`
	UserID      string `gorm:"type:uuid;not null;index" json:"-"`
	User        *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CommentText string `gorm:"not null" json:"comment_text"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
