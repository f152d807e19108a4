package service

import (
	"context"
	"log/slog"

	"noticeboard/internal/models"
	"noticeboard/internal/observability"
	"noticeboard/internal/repository"
)

// NotificationService emits a notification for every new post and answers
// who can see which notifications.
//
// Visibility is broadcast: every user except the post's author sees the
// notification. Seen is one flag per notification shared by all viewers, so
// one viewer marking all seen marks them seen for everybody.
type NotificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// WithRepository returns a service bound to repo, typically a transaction-scoped one.
func (s *NotificationService) WithRepository(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// OnPostCreated records that actor created post.
func (s *NotificationService) OnPostCreated(ctx context.Context, post *models.Post, actor *models.User) (*models.Notification, error) {
	n := &models.Notification{
		PostID:  post.ID,
		UserID:  actor.ID,
		Message: models.PostCreatedMessage(actor),
		Seen:    false,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	observability.NotificationsCreated.Inc()
	return n, nil
}

// ListVisible returns every notification not created by viewerID, newest first.
func (s *NotificationService) ListVisible(ctx context.Context, viewerID uint) ([]*models.Notification, error) {
	return s.repo.ListVisible(ctx, viewerID)
}

// ListUnseen is ListVisible restricted to notifications nobody has marked seen.
func (s *NotificationService) ListUnseen(ctx context.Context, viewerID uint) ([]*models.Notification, error) {
	return s.repo.ListUnseen(ctx, viewerID)
}

// MarkAllSeen marks every unseen notification not created by viewerID as seen.
func (s *NotificationService) MarkAllSeen(ctx context.Context, viewerID uint) (int64, error) {
	n, err := s.repo.MarkAllSeen(ctx, viewerID)
	if err != nil {
		return 0, err
	}
	observability.NotificationsMarkedSeen.Add(float64(n))
	slog.InfoContext(ctx, "notifications marked seen", slog.Int64("count", n))
	return n, nil
}
