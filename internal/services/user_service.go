package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/connecthq/connect/internal/models"
	"github.com/connecthq/connect/pkg/crypto"
)

const defaultSearchPageSize = 15

// profilePostLimit bounds the post grid embedded in a profile response.
const profilePostLimit = 12

// UserService serves profile reads and account-settings writes.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs the user service.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db}, nil
}

// Profile is a user page: the account, its latest posts, and the follow
// relationship relative to the viewer.
type Profile struct {
	User         *models.User  `json:"user"`
	IsFollower   bool          `json:"is_follower"`
	IsFollowee   bool          `json:"is_followee"`
	NumFollowers int64         `json:"num_followers"`
	NumFollowees int64         `json:"num_followees"`
	NumPosts     int64         `json:"num_posts"`
	Posts        []models.Post `json:"posts"`
}

// GetByID loads a bare user row.
func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Take(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: find user: %w", err)
	}
	return &user, nil
}

// GetProfile assembles the profile of userID as seen by viewerID.
func (s *UserService) GetProfile(ctx context.Context, userID, viewerID string) (*Profile, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{User: user}

	if err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("user_id = ?", user.ID).Count(&profile.NumPosts).Error; err != nil {
		return nil, fmt.Errorf("user service: count posts: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(profilePostLimit).
		Find(&profile.Posts).Error; err != nil {
		return nil, fmt.Errorf("user service: load posts: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("followee_id = ?", user.ID).Count(&profile.NumFollowers).Error; err != nil {
		return nil, fmt.Errorf("user service: count followers: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", user.ID).Count(&profile.NumFollowees).Error; err != nil {
		return nil, fmt.Errorf("user service: count followees: %w", err)
	}

	if viewerID != "" && viewerID != user.ID {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Follow{}).
			Where("follower_id = ? AND followee_id = ?", viewerID, user.ID).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("user service: check following: %w", err)
		}
		profile.IsFollowee = count > 0

		if err := s.db.WithContext(ctx).Model(&models.Follow{}).
			Where("follower_id = ? AND followee_id = ?", user.ID, viewerID).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("user service: check follower: %w", err)
		}
		profile.IsFollower = count > 0
	}

	return profile, nil
}

// Search finds users whose username or fullname contains the query.
func (s *UserService) Search(ctx context.Context, query string, page Page) ([]models.Summary, int64, error) {
	query = strings.TrimSpace(query)
	pattern := "%" + query + "%"

	base := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username LIKE ? OR fullname LIKE ?", pattern, pattern)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("user service: count matches: %w", err)
	}
	if total == 0 {
		return nil, 0, ErrNoResults
	}

	var users []models.User
	if err := base.
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("user service: search: %w", err)
	}

	summaries := make([]models.Summary, len(users))
	for i := range users {
		summaries[i] = users[i].Summary()
	}
	return summaries, total, nil
}

// ChangePassword replaces the stored credential after validating the old one.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !crypto.VerifyPassword(user.Password, oldPassword) {
		return ErrPasswordMismatch
	}
	if oldPassword == newPassword {
		return ErrSamePassword
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("user service: hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(user).
		Update("password", hashed).Error; err != nil {
		return fmt.Errorf("user service: update password: %w", err)
	}
	return nil
}

// ProfileUpdate carries the optional profile fields; nil means unchanged.
type ProfileUpdate struct {
	Username           *string
	Fullname           *string
	RelationshipStatus *string
	ProfilePhotoURL    *string
}

// UpdateProfile applies the supplied changes. A username change is checked
// for uniqueness first.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}

	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if username != "" && username != user.Username {
			var count int64
			if err := s.db.WithContext(ctx).Model(&models.User{}).
				Where("username = ?", username).Count(&count).Error; err != nil {
				return nil, fmt.Errorf("user service: check username: %w", err)
			}
			if count > 0 {
				return nil, ErrUsernameTaken
			}
			changes["username"] = username
		}
	}
	if update.Fullname != nil {
		changes["fullname"] = nullableString(*update.Fullname)
	}
	if update.RelationshipStatus != nil {
		changes["relationship_status"] = nullableString(*update.RelationshipStatus)
	}
	if update.ProfilePhotoURL != nil && strings.TrimSpace(*update.ProfilePhotoURL) != "" {
		changes["profile_photo_url"] = strings.TrimSpace(*update.ProfilePhotoURL)
	}

	if len(changes) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(changes).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("user service: update profile: %w", err)
	}

	return s.GetByID(ctx, userID)
}

func nullableString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
