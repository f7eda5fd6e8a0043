package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/connecthq/connect/internal/models"
)

const defaultFollowPageSize = 10

// FollowService owns the follower graph.
type FollowService struct {
	db *gorm.DB
}

// NewFollowService constructs the follow service.
func NewFollowService(db *gorm.DB) (*FollowService, error) {
	if db == nil {
		return nil, errors.New("follow service: db is required")
	}
	return &FollowService{db: db}, nil
}

// ToggleFollow follows targetID on behalf of followerID, or unfollows when
// the edge already exists. Returns the resulting following state.
func (s *FollowService) ToggleFollow(ctx context.Context, followerID, targetID string) (bool, error) {
	if followerID == targetID {
		return false, ErrSelfFollow
	}
	if err := s.ensureUser(ctx, targetID); err != nil {
		return false, err
	}

	var follow models.Follow
	err := s.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, targetID).
		Take(&follow).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		follow = models.Follow{FollowerID: followerID, FolloweeID: targetID}
		if err := s.db.WithContext(ctx).Create(&follow).Error; err != nil {
			return false, fmt.Errorf("follow service: follow: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("follow service: find edge: %w", err)
	default:
		if err := s.db.WithContext(ctx).Delete(&follow).Error; err != nil {
			return false, fmt.Errorf("follow service: unfollow: %w", err)
		}
		return false, nil
	}
}

// Followers lists the users following userID.
func (s *FollowService) Followers(ctx context.Context, userID string, page Page) ([]models.Summary, int64, error) {
	return s.listEdge(ctx, userID, "followee_id", "Follower", page)
}

// Following lists the users that userID follows.
func (s *FollowService) Following(ctx context.Context, userID string, page Page) ([]models.Summary, int64, error) {
	return s.listEdge(ctx, userID, "follower_id", "Followee", page)
}

func (s *FollowService) listEdge(ctx context.Context, userID, column, preload string, page Page) ([]models.Summary, int64, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, 0, err
	}

	base := s.db.WithContext(ctx).Model(&models.Follow{}).Where(column+" = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("follow service: count edges: %w", err)
	}
	if total == 0 {
		return nil, 0, ErrNoResults
	}

	var follows []models.Follow
	if err := base.
		Preload(preload).
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&follows).Error; err != nil {
		return nil, 0, fmt.Errorf("follow service: load edges: %w", err)
	}

	summaries := make([]models.Summary, 0, len(follows))
	for i := range follows {
		var user *models.User
		if preload == "Follower" {
			user = follows[i].Follower
		} else {
			user = follows[i].Followee
		}
		if user != nil {
			summaries = append(summaries, user.Summary())
		}
	}
	return summaries, total, nil
}

func (s *FollowService) ensureUser(ctx context.Context, userID string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).Count(&count).Error; err != nil {
		return fmt.Errorf("follow service: check user: %w", err)
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}
