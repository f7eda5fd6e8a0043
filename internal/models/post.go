package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is an image post with optional title and description.
type Post struct {
	ID          string  `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string  `gorm:"type:uuid;not null;index" json:"-"`
	User        *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Title       *string `gorm:"size:30" json:"title"`
	Description *string `gorm:"type:text" json:"description"`
	ImageURL    string  `gorm:"not null" json:"image_url"`

	Comments []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Likes    []Like    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
