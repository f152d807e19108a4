package middleware

import (
	"context"

	"noticeboard/internal/models"
	"noticeboard/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// SessionResolver resolves a raw presented credential to a user.
type SessionResolver interface {
	Resolve(ctx context.Context, raw string) (*models.User, error)
}

// CredentialExtractor pulls the raw credential (header or cookie) from a request.
type CredentialExtractor func(c *fiber.Ctx) string

// FailureHandler renders an authentication failure.
type FailureHandler func(c *fiber.Ctx, err error) error

// RequireUser resolves the request's credential and stores the user in
// c.Locals("user") and its id in c.Locals("userID"). Failures go to onFail.
func RequireUser(resolver SessionResolver, extract CredentialExtractor, onFail FailureHandler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := resolver.Resolve(c.UserContext(), extract(c))
		if err != nil {
			return onFail(c, err)
		}
		c.Locals("user", user)
		c.Locals("userID", user.ID)
		c.SetUserContext(observability.WithUserID(c.UserContext(), user.ID))
		return c.Next()
	}
}

// CurrentUser returns the user stored by RequireUser, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}
