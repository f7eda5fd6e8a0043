package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Follow records that the follower subscribed to the followee's posts.
type Follow struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	FollowerID string `gorm:"type:uuid;not null;index:idx_follows_pair,unique" json:"follower_id"`
	FolloweeID string `gorm:"type:uuid;not null;index:idx_follows_pair,unique" json:"followee_id"`
	Follower   *User  `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"follower,omitempty"`
	Followee   *User  `gorm:"foreignKey:FolloweeID;constraint:OnDelete:CASCADE" json:"followee,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
