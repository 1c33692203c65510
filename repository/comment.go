package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/forumhub/forumhub/models"
)

// CommentRepository is the persistence boundary for comments.
type CommentRepository interface {
	// ListByPost returns one page of a post's comments with their users
	// attached, plus the total comment count for the post.
	ListByPost(ctx context.Context, postID uint, page, size int) ([]models.Comment, int64, error)
	// Create inserts the comment and reloads it with its user attached.
	Create(ctx context.Context, comment *models.Comment) error
}

type commentRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCommentRepository creates the gorm-backed CommentRepository.
func NewCommentRepository(db *gorm.DB, logger *zap.Logger) CommentRepository {
	return &commentRepository{db: db, logger: logger}
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint, page, size int) ([]models.Comment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		r.logger.Error("count comments failed", zap.Uint("postId", postID), zap.Error(err))
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	var comments []models.Comment
	err := query.Preload("User").
		Order("id").
		Offset((page - 1) * size).
		Limit(size).
		Find(&comments).Error
	if err != nil {
		r.logger.Error("list comments failed", zap.Uint("postId", postID), zap.Error(err))
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	return comments, total, nil
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		r.logger.Error("create comment failed", zap.Uint("postId", comment.PostID), zap.Error(err))
		return fmt.Errorf("create comment: %w", err)
	}
	if err := r.db.WithContext(ctx).Preload("User").First(comment).Error; err != nil {
		r.logger.Error("reload comment failed", zap.Uint("id", comment.ID), zap.Error(err))
		return fmt.Errorf("reload comment: %w", err)
	}
	return nil
}
