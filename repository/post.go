package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/forumhub/forumhub/models"
)

// ErrNotFound is returned when no row matches the lookup. Controllers map it
// to a 404; every other error becomes a 500.
var ErrNotFound = errors.New("record not found")

// ListPostsOptions carries the query parameters of the post listing. Size -1
// (or any non-positive page/size pair) means "return all".
type ListPostsOptions struct {
	Page   int
	Size   int
	Sort   string
	Order  string
	Search string
}

// PostRepository is the persistence boundary for posts.
type PostRepository interface {
	// List returns matching posts with their users attached, plus the total
	// number of rows matching the search filter (pagination never affects
	// the total).
	List(ctx context.Context, opts ListPostsOptions) ([]models.Post, int64, error)
	// FindBySlug returns the post with its user attached, or ErrNotFound.
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	// SlugExists reports whether a post already claims the slug.
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, post *models.Post) error
	// Update persists the full record and refreshes updated_at.
	Update(ctx context.Context, post *models.Post) error
	// Delete removes the post and all of its comments in one transaction,
	// comments first.
	Delete(ctx context.Context, post *models.Post) error
}

type postRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPostRepository creates the gorm-backed PostRepository.
func NewPostRepository(db *gorm.DB, logger *zap.Logger) PostRepository {
	return &postRepository{db: db, logger: logger}
}

// sortColumns whitelists sortable columns. Keys cover both the wire names and
// the underlying column names; anything else is ignored rather than
// interpolated into SQL.
var sortColumns = map[string]string{
	"id":         "id",
	"title":      "title",
	"topicId":    "topic_id",
	"topic_id":   "topic_id",
	"published":  "published",
	"createdAt":  "created_at",
	"created_at": "created_at",
	"updatedAt":  "updated_at",
	"updated_at": "updated_at",
}

func (r *postRepository) List(ctx context.Context, opts ListPostsOptions) ([]models.Post, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Post{})

	if opts.Search != "" {
		like := "%" + opts.Search + "%"
		query = query.Where("title LIKE ? OR body LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		r.logger.Error("count posts failed", zap.Error(err))
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	if col, ok := sortColumns[opts.Sort]; ok {
		if dir := strings.ToLower(opts.Order); dir == "asc" || dir == "desc" {
			query = query.Order(col + " " + dir)
		}
	}

	if opts.Page > 0 && opts.Size > 0 {
		query = query.Offset((opts.Page - 1) * opts.Size).Limit(opts.Size)
	}

	var posts []models.Post
	if err := query.Preload("User").Find(&posts).Error; err != nil {
		r.logger.Error("list posts failed", zap.Error(err))
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	return posts, total, nil
}

func (r *postRepository) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Preload("User").Where("slug = ?", slug).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		r.logger.Error("find post by slug failed", zap.String("slug", slug), zap.Error(err))
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return &post, nil
}

func (r *postRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug).Count(&count).Error
	if err != nil {
		r.logger.Error("slug existence check failed", zap.String("slug", slug), zap.Error(err))
		return false, fmt.Errorf("slug exists: %w", err)
	}
	return count > 0, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		r.logger.Error("create post failed", zap.String("slug", post.Slug), zap.Error(err))
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		r.logger.Error("update post failed", zap.Uint("id", post.ID), zap.Error(err))
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, post *models.Post) error {
	// Comments first, then the post; both or neither. A crash between the two
	// deletes must not leave orphaned comments.
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, post.ID).Error
	})
	if err != nil {
		r.logger.Error("delete post failed", zap.Uint("id", post.ID), zap.Error(err))
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}
