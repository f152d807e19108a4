package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"noticeboard/internal/auth"
	"noticeboard/internal/config"
	"noticeboard/internal/database"
	"noticeboard/internal/models"
	"noticeboard/internal/repository"
	"noticeboard/internal/storage"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// services wires every service over one in-memory sqlite database.
type services struct {
	db            *gorm.DB
	users         *UserService
	posts         *PostService
	notifications *NotificationService
	blobs         *storage.MemoryStore
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(&config.Config{Env: "test", DBDriver: "sqlite", DBPath: ":memory:"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newServices(t *testing.T) *services {
	t.Helper()
	db := newTestDB(t)
	hasher, err := auth.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	blobs := storage.NewMemoryStore("")
	notifications := NewNotificationService(repository.NewNotificationRepository(db))
	return &services{
		db:            db,
		users:         NewUserService(repository.NewUserRepository(db), hasher),
		posts:         NewPostService(repository.NewPostRepository(db), repository.NewTransactor(db), notifications, blobs, "posts"),
		notifications: notifications,
		blobs:         blobs,
	}
}

func signup(t *testing.T, s *services, email string) *models.User {
	t.Helper()
	user, err := s.users.CreateUser(context.Background(), SignupInput{
		Email:       email,
		Password:    "password-" + email,
		FirstName:   gofakeit.FirstName(),
		LastName:    gofakeit.LastName(),
		PhoneNumber: gofakeit.Numerify("+1##########"),
	})
	require.NoError(t, err)
	return user
}

// assertCode asserts that err is an AppError with the given code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
