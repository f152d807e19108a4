package repository

import (
	"context"

	"noticeboard/internal/models"
	"noticeboard/internal/observability"

	"gorm.io/gorm"
)

// NotificationRepository stores post-created notifications.
//
// Visibility is computed by exclusion: a viewer sees every notification whose
// user_id (the actor) is someone else.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListVisible(ctx context.Context, viewerID uint) ([]*models.Notification, error)
	ListUnseen(ctx context.Context, viewerID uint) ([]*models.Notification, error)
	MarkAllSeen(ctx context.Context, viewerID uint) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a gorm-backed NotificationRepository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	ctx, span := observability.StartRepositorySpan(ctx, "Create", "notifications")
	defer span.End()

	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		span.RecordError(err)
		return models.NewInternalError(err)
	}
	return nil
}

func (r *notificationRepository) ListVisible(ctx context.Context, viewerID uint) ([]*models.Notification, error) {
	return r.list(ctx, "ListVisible", "user_id <> ?", viewerID)
}

func (r *notificationRepository) ListUnseen(ctx context.Context, viewerID uint) ([]*models.Notification, error) {
	return r.list(ctx, "ListUnseen", "user_id <> ? AND seen = ?", viewerID, false)
}

func (r *notificationRepository) list(ctx context.Context, op, where string, args ...any) ([]*models.Notification, error) {
	ctx, span := observability.StartRepositorySpan(ctx, op, "notifications")
	defer span.End()

	var out []*models.Notification
	if err := r.db.WithContext(ctx).Where(where, args...).Order("timestamp DESC, id DESC").Find(&out).Error; err != nil {
		span.RecordError(err)
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// MarkAllSeen flips the shared seen flag on every unseen notification not
// created by viewerID and returns how many rows changed.
func (r *notificationRepository) MarkAllSeen(ctx context.Context, viewerID uint) (int64, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "MarkAllSeen", "notifications")
	defer span.End()

	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id <> ? AND seen = ?", viewerID, false).
		Update("seen", true)
	if res.Error != nil {
		span.RecordError(res.Error)
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
