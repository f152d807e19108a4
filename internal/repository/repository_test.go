package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"testing"

	"noticeboard/internal/config"
	"noticeboard/internal/database"
	"noticeboard/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(&config.Config{Env: "test", DBDriver: "sqlite", DBPath: ":memory:"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func createUser(t *testing.T, repo UserRepository, email, phone string) *models.User {
	t.Helper()
	u := &models.User{Email: email, PhoneNumber: phone, PasswordHash: "hash", FirstName: "F" + phone, LastName: "L"}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestNotificationRepository_MarkAllSeen_SQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewNotificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "notifications" SET "seen"=$1 WHERE user_id <> $2 AND seen = $3`)).
		WithArgs(true, 5, false).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := repo.MarkAllSeen(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkAllSeen_Error(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewNotificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "notifications"`)).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.MarkAllSeen(context.Background(), 5)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeInternal, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1 ORDER BY "users"."id" LIMIT $2`)).
		WithArgs("ghost@x.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	user, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	assert.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateKey(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: `duplicate key value violates unique constraint "idx_users_email"`})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{Email: "a@x.com", PhoneNumber: "1", PasswordHash: "h", FirstName: "A", LastName: "B"})
	assert.ErrorIs(t, err, models.ErrDuplicateIdentity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SQLite(t *testing.T) {
	db := setupSQLite(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice := createUser(t, repo, "alice@x.com", "100")

	got, err := repo.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, alice.ID, got.ID)

	got, err = repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", got.Email)

	_, err = repo.GetByID(ctx, 999)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)

	err = repo.Create(ctx, &models.User{Email: "alice@x.com", PhoneNumber: "200", PasswordHash: "h", FirstName: "A", LastName: "B"})
	assert.ErrorIs(t, err, models.ErrDuplicateIdentity)
	err = repo.Create(ctx, &models.User{Email: "bob@x.com", PhoneNumber: "100", PasswordHash: "h", FirstName: "B", LastName: "B"})
	assert.ErrorIs(t, err, models.ErrDuplicateIdentity)

	users, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestPostAndNotificationRepositories_SQLite(t *testing.T) {
	db := setupSQLite(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	notes := NewNotificationRepository(db)
	ctx := context.Background()

	a := createUser(t, users, "a@x.com", "1")
	b := createUser(t, users, "b@x.com", "2")

	for _, author := range []*models.User{a, b, a} {
		p := &models.Post{UserID: author.ID, Content: "post by " + author.Email}
		require.NoError(t, posts.Create(ctx, p))
		require.NoError(t, notes.Create(ctx, &models.Notification{PostID: p.ID, UserID: author.ID, Message: models.PostCreatedMessage(author)}))
	}

	list, err := posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Greater(t, list[0].ID, list[1].ID)
	assert.Greater(t, list[1].ID, list[2].ID)
	assert.Equal(t, "a@x.com", list[0].User.Email)

	visibleToA, err := notes.ListVisible(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, visibleToA, 1)
	assert.Equal(t, b.ID, visibleToA[0].UserID)

	visibleToB, err := notes.ListVisible(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, visibleToB, 2)

	changed, err := notes.MarkAllSeen(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	unseenForB, err := notes.ListUnseen(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, unseenForB)

	unseenForA, err := notes.ListUnseen(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, unseenForA, 1)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db := setupSQLite(t)
	author := createUser(t, NewUserRepository(db), "a@x.com", "1")
	boom := errors.New("boom")

	err := NewTransactor(db).InTx(context.Background(), func(p PostRepository, n NotificationRepository) error {
		post := &models.Post{UserID: author.ID, Content: "x"}
		require.NoError(t, p.Create(context.Background(), post))
		require.NoError(t, n.Create(context.Background(), &models.Notification{PostID: post.ID, UserID: author.ID, Message: "m"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var postCount, noteCount int64
	require.NoError(t, db.Model(&models.Post{}).Count(&postCount).Error)
	require.NoError(t, db.Model(&models.Notification{}).Count(&noteCount).Error)
	assert.Zero(t, postCount)
	assert.Zero(t, noteCount)
}

func TestIsUniqueConstraintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pg unique violation", &pgconn.PgError{Code: "23505", Message: "duplicate key value"}, true},
		{"pg other error", &pgconn.PgError{Code: "23503", Message: "foreign key violation"}, false},
		{"wrapped pg error", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"sqlite text", errors.New("UNIQUE constraint failed: users.email"), true},
		{"plain text", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueConstraintError(tt.err))
		})
	}
}
