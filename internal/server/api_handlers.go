package server

import (
	"errors"
	"time"

	"noticeboard/internal/auth"
	"noticeboard/internal/middleware"
	"noticeboard/internal/models"
	"noticeboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// TokenResponse is returned by a successful API sign-in.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// SetupAPIRoutes configures the bearer-authenticated JSON routes.
func (s *Server) SetupAPIRoutes(app *fiber.App) {
	app.Post("/signup", s.rateLimiter.Handler("signup", 5, 10*time.Minute), s.APISignup)
	app.Post("/signin", s.rateLimiter.Handler("signin", 10, 5*time.Minute), s.APISignin)

	protected := middleware.RequireUser(s.resolver, bearerCredential, bearerAuthFailure)
	app.Get("/post", protected, s.APIListPosts)
	app.Post("/post", protected, s.APICreatePost)
	app.Get("/user/:id", protected, s.APIGetUser)
	app.Get("/notification", protected, s.APIListNotifications)
	app.Put("/notification/mark-seen", protected, s.APIMarkSeen)
}

func bearerCredential(c *fiber.Ctx) string {
	return auth.BearerFromHeader(c.Get(fiber.HeaderAuthorization))
}

func bearerAuthFailure(c *fiber.Ctx, err error) error {
	if errors.Is(err, models.ErrUnauthenticated) {
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	}
	return models.Respond(c, err)
}

// APISignup handles POST /signup
func (s *Server) APISignup(c *fiber.Ctx) error {
	var in service.SignupInput
	if err := c.BodyParser(&in); err != nil {
		return models.Respond(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.CreateUser(c.UserContext(), in)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// APISignin handles POST /signin
func (s *Server) APISignin(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.Respond(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return models.Respond(c, err)
	}

	token, err := s.tokens.IssueDefault(user.Email)
	if err != nil {
		return models.Respond(c, models.NewInternalError(err))
	}
	return c.JSON(TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// APIGetUser handles GET /user/:id
func (s *Server) APIGetUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return models.Respond(c, models.NewValidationError("Invalid ID"))
	}

	user, err := s.userService.GetUserByID(c.UserContext(), uint(id))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(user)
}

// APIListPosts handles GET /post
func (s *Server) APIListPosts(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	posts, err := s.postService.ListPosts(c.UserContext(), user.ID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(posts)
}

// APICreatePost handles POST /post
func (s *Server) APICreatePost(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.Respond(c, models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		Author:  middleware.CurrentUser(c),
		Content: req.Content,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// APIListNotifications handles GET /notification
func (s *Server) APIListNotifications(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	notifications, err := s.notificationService.ListVisible(c.UserContext(), user.ID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(notifications)
}

// APIMarkSeen handles PUT /notification/mark-seen
func (s *Server) APIMarkSeen(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	updated, err := s.notificationService.MarkAllSeen(c.UserContext(), user.ID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "updated": updated})
}
