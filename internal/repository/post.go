package repository

import (
	"context"

	"noticeboard/internal/models"
	"noticeboard/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	List(ctx context.Context) ([]*models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	ctx, span := observability.StartRepositorySpan(ctx, "Create", "posts")
	defer span.End()

	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		span.RecordError(err)
		return models.NewInternalError(err)
	}
	return nil
}

// List returns every post in the system, newest first, with its author loaded.
func (r *postRepository) List(ctx context.Context) ([]*models.Post, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "List", "posts")
	defer span.End()

	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("timestamp DESC, id DESC").
		Find(&posts).Error
	if err != nil {
		span.RecordError(err)
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}
