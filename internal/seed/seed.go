// Package seed creates demo users, posts and notifications for local
// development. Everything goes through the services, so seeded data obeys the
// same rules as real traffic.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"noticeboard/internal/models"
	"noticeboard/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DemoPassword is the password every seeded user signs in with.
const DemoPassword = "password123"

// Seeder creates demo data through the account and post services.
type Seeder struct {
	db    *gorm.DB
	users *service.UserService
	posts *service.PostService
	faker *gofakeit.Faker
}

// NewSeeder returns a Seeder. A non-zero seed makes the generated data repeatable.
func NewSeeder(db *gorm.DB, users *service.UserService, posts *service.PostService, seed int64) *Seeder {
	return &Seeder{db: db, users: users, posts: posts, faker: gofakeit.New(seed)}
}

// ClearAll deletes notifications, posts and users, in that order.
func (s *Seeder) ClearAll(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Notification{}, &models.Post{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		return nil
	})
}

// SeedUsers signs up n users with DemoPassword.
func (s *Seeder) SeedUsers(ctx context.Context, n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user, err := s.users.CreateUser(ctx, service.SignupInput{
			Email:       fmt.Sprintf("demo%d@%s", i+1, s.faker.DomainName()),
			Password:    DemoPassword,
			FirstName:   s.faker.FirstName(),
			LastName:    s.faker.LastName(),
			PhoneNumber: s.faker.Numerify(fmt.Sprintf("+1###%07d", i+1)),
		})
		if err != nil {
			return users, fmt.Errorf("seed user %d: %w", i+1, err)
		}
		users = append(users, user)
	}
	slog.InfoContext(ctx, "seeded users", slog.Int("count", len(users)))
	return users, nil
}

// ExistingAuthors returns up to limit users already in the database, oldest
// first, for seeding posts without creating new accounts.
func (s *Seeder) ExistingAuthors(ctx context.Context, limit int) ([]*models.User, error) {
	users, err := s.users.ListUsers(ctx, limit, 0)
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}
	authors := make([]*models.User, len(users))
	for i := range users {
		authors[i] = &users[i]
	}
	return authors, nil
}

// SeedPosts creates n text posts spread across authors. Each post also emits
// its notification.
func (s *Seeder) SeedPosts(ctx context.Context, authors []*models.User, n int) ([]*models.Post, error) {
	if len(authors) == 0 {
		return nil, fmt.Errorf("seed posts: no authors")
	}
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		author := authors[s.faker.Number(0, len(authors)-1)]
		post, err := s.posts.CreatePost(ctx, service.CreatePostInput{
			Author:  author,
			Content: s.faker.Sentence(s.faker.Number(4, 16)),
		})
		if err != nil {
			return posts, fmt.Errorf("seed post %d: %w", i+1, err)
		}
		posts = append(posts, post)
	}
	slog.InfoContext(ctx, "seeded posts", slog.Int("count", len(posts)))
	return posts, nil
}
