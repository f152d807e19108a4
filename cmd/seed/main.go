// Command seed fills the database with demo users, posts and notifications.
package main

import (
	"context"
	"flag"
	"log"

	"noticeboard/internal/auth"
	"noticeboard/internal/bootstrap"
	"noticeboard/internal/models"
	"noticeboard/internal/repository"
	"noticeboard/internal/seed"
	"noticeboard/internal/service"
)

const maxExistingAuthors = 100

func main() {
	numUsers := flag.Int("users", 10, "Number of users to create (0 = post as existing users)")
	numPosts := flag.Int("posts", 40, "Number of posts to create")
	shouldClean := flag.Bool("clean", false, "Delete existing users, posts and notifications first")
	randSeed := flag.Int64("seed", 0, "Seed for generated data (0 = random)")
	flag.Parse()

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, "noticeboard-seed")
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close(ctx)

	if rt.Config.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	hasher, err := auth.NewHasher(rt.Config.BcryptCost)
	if err != nil {
		log.Fatalf("Failed to create password hasher: %v", err)
	}
	notifications := service.NewNotificationService(repository.NewNotificationRepository(rt.DB))
	users := service.NewUserService(repository.NewUserRepository(rt.DB), hasher)
	posts := service.NewPostService(
		repository.NewPostRepository(rt.DB),
		repository.NewTransactor(rt.DB),
		notifications,
		rt.Blobs,
		rt.Config.BlobBucket,
	)

	s := seed.NewSeeder(rt.DB, users, posts, *randSeed)
	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	var authors []*models.User
	if *numUsers > 0 {
		authors, err = s.SeedUsers(ctx, *numUsers)
		if err != nil {
			log.Fatalf("User seeding failed: %v", err)
		}
	} else {
		authors, err = s.ExistingAuthors(ctx, maxExistingAuthors)
		if err != nil {
			log.Fatalf("Loading existing users failed: %v", err)
		}
	}
	if _, err := s.SeedPosts(ctx, authors, *numPosts); err != nil {
		log.Fatalf("Post seeding failed: %v", err)
	}

	log.Printf("Seeded %d users and %d posts; every new user has the password %q", *numUsers, *numPosts, seed.DemoPassword)
}
