package service

import (
	"context"
	"log/slog"

	"noticeboard/internal/models"
	"noticeboard/internal/repository"
	"noticeboard/internal/storage"
)

// Upload is a file attached to a new post.
type Upload struct {
	Filename    string
	ContentType string
	Body        []byte
}

type CreatePostInput struct {
	Author  *models.User
	Content string
	File    *Upload
}

type PostService struct {
	posts         repository.PostRepository
	tx            repository.Transactor
	notifications *NotificationService
	blobs         storage.BlobStore
	bucket        string
}

func NewPostService(
	posts repository.PostRepository,
	tx repository.Transactor,
	notifications *NotificationService,
	blobs storage.BlobStore,
	bucket string,
) *PostService {
	return &PostService{
		posts:         posts,
		tx:            tx,
		notifications: notifications,
		blobs:         blobs,
		bucket:        bucket,
	}
}

// CreatePost uploads the attachment, if any, then stores the post and its
// notification in one transaction. A failed upload writes nothing.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.Author == nil || in.Author.ID == 0 {
		return nil, models.NewUnauthenticatedError("Not authenticated", nil)
	}

	post := &models.Post{
		UserID:  in.Author.ID,
		Content: in.Content,
	}

	if in.File != nil && in.File.Filename != "" {
		object := storage.ObjectName(in.File.Filename)
		url, err := s.blobs.PutObject(ctx, s.bucket, object, in.File.Body, in.File.ContentType)
		if err != nil {
			slog.ErrorContext(ctx, "file upload failed", slog.String("object", object), slog.String("error", err.Error()))
			return nil, models.NewUpstreamStorageError("File upload", err)
		}
		post.FileURL = &url
	}

	err := s.tx.InTx(ctx, func(posts repository.PostRepository, notifications repository.NotificationRepository) error {
		if err := posts.Create(ctx, post); err != nil {
			return err
		}
		_, err := s.notifications.WithRepository(notifications).OnPostCreated(ctx, post, in.Author)
		return err
	})
	if err != nil {
		return nil, err
	}

	post.User = *in.Author
	return post, nil
}

// ListPosts returns every post in the system, newest first. viewerID does
// not filter the feed.
func (s *PostService) ListPosts(ctx context.Context, viewerID uint) ([]*models.Post, error) {
	return s.posts.List(ctx)
}
