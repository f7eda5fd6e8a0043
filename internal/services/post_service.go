package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/connecthq/connect/internal/models"
)

const (
	defaultFeedPageSize    = 15
	defaultCommentPageSize = 12
	defaultLikesPageSize   = 15

	maxPostTitleLength = 30
)

// PostService owns posts and their comments and likes.
type PostService struct {
	db *gorm.DB
}

// NewPostService constructs the post service.
func NewPostService(db *gorm.DB) (*PostService, error) {
	if db == nil {
		return nil, errors.New("post service: db is required")
	}
	return &PostService{db: db}, nil
}

// CreatePostInput carries the fields of a new post. The image is mandatory;
// title and description may be empty.
type CreatePostInput struct {
	UserID      string
	Title       string
	Description string
	ImageURL    string
}

// CreatePost persists a new post for the author.
func (s *PostService) CreatePost(ctx context.Context, input CreatePostInput) (*models.Post, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, errors.New("post service: user id is required")
	}
	if strings.TrimSpace(input.ImageURL) == "" {
		return nil, errors.New("post service: image url is required")
	}
	if len(strings.TrimSpace(input.Title)) > maxPostTitleLength {
		return nil, ErrTitleTooLong
	}

	post := &models.Post{
		UserID:      input.UserID,
		Title:       nullableString(input.Title),
		Description: nullableString(input.Description),
		ImageURL:    input.ImageURL,
	}

	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, fmt.Errorf("post service: create post: %w", err)
	}
	return post, nil
}

// FeedPost is a post decorated for the newsfeed: author summary, aggregate
// counts, and whether the viewer already liked it.
type FeedPost struct {
	ID          string         `json:"id"`
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	ImageURL    string         `json:"image_url"`
	CreatedAt   string         `json:"created_at"`
	User        models.Summary `json:"user"`
	Likes       int            `json:"likes"`
	Comments    int            `json:"comments"`
	HasLiked    bool           `json:"has_liked"`
}

// Feed returns posts newest-first. With authorID set it lists that single
// user's posts; otherwise it is the viewer's newsfeed: their own posts plus
// those of everyone they follow.
func (s *PostService) Feed(ctx context.Context, viewerID, authorID string, page Page) ([]FeedPost, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Post{})
	if authorID != "" {
		query = query.Where("user_id = ?", authorID)
	} else {
		query = query.Where(
			"user_id = ? OR user_id IN (?)",
			viewerID,
			s.db.Model(&models.Follow{}).Select("followee_id").Where("follower_id = ?", viewerID),
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("post service: count posts: %w", err)
	}
	if total == 0 {
		return nil, 0, ErrNoResults
	}

	var posts []models.Post
	if err := query.
		Preload("User").
		Preload("Likes", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "post_id", "user_id")
		}).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "post_id")
		}).
		Order("created_at DESC").
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&posts).Error; err != nil {
		return nil, 0, fmt.Errorf("post service: load posts: %w", err)
	}

	feed := make([]FeedPost, len(posts))
	for i := range posts {
		feed[i] = decorate(&posts[i], viewerID)
	}
	return feed, total, nil
}

func decorate(post *models.Post, viewerID string) FeedPost {
	item := FeedPost{
		ID:          post.ID,
		Title:       post.Title,
		Description: post.Description,
		ImageURL:    post.ImageURL,
		CreatedAt:   post.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Likes:       len(post.Likes),
		Comments:    len(post.Comments),
	}
	if post.User != nil {
		item.User = post.User.Summary()
	}
	for _, like := range post.Likes {
		if like.UserID == viewerID {
			item.HasLiked = true
			break
		}
	}
	return item
}

// CommentOnPost attaches a comment to an existing post.
func (s *PostService) CommentOnPost(ctx context.Context, postID, userID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("post service: comment text is required")
	}

	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:      postID,
		UserID:      userID,
		CommentText: text,
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("post service: create comment: %w", err)
	}
	return comment, nil
}

// CommentsOfPost lists a post's comments newest-first with author summaries.
func (s *PostService) CommentsOfPost(ctx context.Context, postID string, page Page) ([]models.Comment, int64, error) {
	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, 0, err
	}

	base := s.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("post service: count comments: %w", err)
	}
	if total == 0 {
		return nil, 0, ErrNoResults
	}

	var comments []models.Comment
	if err := base.
		Preload("User").
		Order("created_at DESC").
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&comments).Error; err != nil {
		return nil, 0, fmt.Errorf("post service: load comments: %w", err)
	}
	return comments, total, nil
}

// LikesOfPost lists who liked a post, newest first.
func (s *PostService) LikesOfPost(ctx context.Context, postID string, page Page) ([]models.Like, int64, error) {
	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, 0, err
	}

	base := s.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("post service: count likes: %w", err)
	}
	if total == 0 {
		return nil, 0, ErrNoResults
	}

	var likes []models.Like
	if err := base.
		Preload("User").
		Order("created_at DESC").
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&likes).Error; err != nil {
		return nil, 0, fmt.Errorf("post service: load likes: %w", err)
	}
	return likes, total, nil
}

// ToggleLike likes the post if the user hasn't, and unlikes it otherwise.
// Returns the resulting liked state.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	if err := s.ensurePost(ctx, postID); err != nil {
		return false, err
	}

	var like models.Like
	err := s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Take(&like).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		like = models.Like{PostID: postID, UserID: userID}
		if err := s.db.WithContext(ctx).Create(&like).Error; err != nil {
			return false, fmt.Errorf("post service: like post: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("post service: find like: %w", err)
	default:
		if err := s.db.WithContext(ctx).Delete(&like).Error; err != nil {
			return false, fmt.Errorf("post service: unlike post: %w", err)
		}
		return false, nil
	}
}

func (s *PostService) ensurePost(ctx context.Context, postID string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).Count(&count).Error; err != nil {
		return fmt.Errorf("post service: check post: %w", err)
	}
	if count == 0 {
		return ErrPostNotFound
	}
	return nil
}
