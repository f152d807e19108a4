package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"noticeboard/internal/middleware"
	"noticeboard/internal/models"
	"noticeboard/internal/service"
	"noticeboard/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
)

const sessionCookie = "access_token"

// pageData is what every template renders from.
type pageData struct {
	Title         string
	Error         string
	User          *models.User
	Form          service.SignupInput
	Email         string
	Posts         []*models.Post
	Notifications []*models.Notification
}

// SetupWebRoutes configures the cookie-authenticated HTML routes.
func (s *Server) SetupWebRoutes(app *fiber.App) {
	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   http.FS(web.Static()),
		MaxAge: 3600,
	}))

	app.Get("/signup", s.SignupPage)
	app.Post("/signup", s.rateLimiter.Handler("signup", 5, 10*time.Minute), s.WebSignup)
	app.Get("/signin", s.SigninPage)
	app.Post("/signin", s.rateLimiter.Handler("signin", 10, 5*time.Minute), s.WebSignin)
	app.Get("/logout", s.WebLogout)
	app.Post("/logout", s.WebLogout)

	pages := middleware.RequireUser(s.resolver, cookieCredential, redirectToSignin)
	app.Get("/", pages, s.HomePage)
	app.Get("/post", pages, s.PostsPage)

	protected := middleware.RequireUser(s.resolver, cookieCredential, respondAuthFailure)
	app.Post("/post", protected, s.WebCreatePost)
	app.Get("/notifications/json", protected, s.WebUnseenNotifications)
	app.Put("/notifications/mark-seen", protected, s.WebMarkSeen)
}

func cookieCredential(c *fiber.Ctx) string {
	return c.Cookies(sessionCookie)
}

// redirectToSignin sends browsers without a valid session to the sign-in page.
func redirectToSignin(c *fiber.Ctx, err error) error {
	if errors.Is(err, models.ErrUnauthenticated) {
		return c.Redirect("/signin", fiber.StatusSeeOther)
	}
	return err
}

func respondAuthFailure(c *fiber.Ctx, err error) error {
	return models.Respond(c, err)
}

// userMessage is the text shown on a page for a failed form submission.
func userMessage(err error) string {
	if models.StatusFor(err) >= fiber.StatusInternalServerError {
		return models.GenericInternalMessage
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// SignupPage handles GET /signup
func (s *Server) SignupPage(c *fiber.Ctx) error {
	return c.Render("signup", pageData{Title: "Sign up"})
}

// WebSignup handles POST /signup
func (s *Server) WebSignup(c *fiber.Ctx) error {
	var in service.SignupInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).Render("signup", pageData{
			Title: "Sign up",
			Error: "Invalid form submission",
		})
	}

	if _, err := s.userService.CreateUser(c.UserContext(), in); err != nil {
		in.Password = ""
		return c.Status(models.StatusFor(err)).Render("signup", pageData{
			Title: "Sign up",
			Error: userMessage(err),
			Form:  in,
		})
	}
	return c.Redirect("/signin", fiber.StatusSeeOther)
}

// SigninPage handles GET /signin
func (s *Server) SigninPage(c *fiber.Ctx) error {
	return c.Render("signin", pageData{Title: "Sign in"})
}

// WebSignin handles POST /signin and stores the token in the session cookie.
func (s *Server) WebSignin(c *fiber.Ctx) error {
	email := c.FormValue("email")
	user, err := s.userService.Authenticate(c.UserContext(), email, c.FormValue("password"))
	if err != nil {
		return c.Status(models.StatusFor(err)).Render("signin", pageData{
			Title: "Sign in",
			Error: userMessage(err),
			Email: email,
		})
	}

	token, err := s.tokens.IssueDefault(user.Email)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.tokens.DefaultTTL()),
		Secure:   s.config.CookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect("/", fiber.StatusSeeOther)
}

// WebLogout handles GET|POST /logout
func (s *Server) WebLogout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		Secure:   s.config.CookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect("/signin", fiber.StatusSeeOther)
}

// HomePage handles GET /
func (s *Server) HomePage(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	ctx := c.UserContext()

	posts, err := s.postService.ListPosts(ctx, user.ID)
	if err != nil {
		return err
	}
	notifications, err := s.notificationService.ListVisible(ctx, user.ID)
	if err != nil {
		return err
	}
	return c.Render("home", pageData{
		Title:         "Home",
		User:          user,
		Posts:         posts,
		Notifications: notifications,
	})
}

// PostsPage handles GET /post
func (s *Server) PostsPage(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	posts, err := s.postService.ListPosts(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.Render("posts", pageData{Title: "Posts", User: user, Posts: posts})
}

// WebCreatePost handles POST /post (multipart post_content and optional file).
func (s *Server) WebCreatePost(c *fiber.Ctx) error {
	in := service.CreatePostInput{
		Author:  middleware.CurrentUser(c),
		Content: c.FormValue("post_content"),
	}

	// A form without a file part, or with an empty one, is a text-only post.
	if fh, err := c.FormFile("file"); err == nil && fh.Filename != "" {
		f, err := fh.Open()
		if err != nil {
			return models.NewValidationError("Could not read uploaded file")
		}
		defer func() { _ = f.Close() }()
		body, err := io.ReadAll(f)
		if err != nil {
			return models.NewValidationError("Could not read uploaded file")
		}
		in.File = &service.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Body:        body,
		}
	}

	if _, err := s.postService.CreatePost(c.UserContext(), in); err != nil {
		slog.WarnContext(c.UserContext(), "create post failed", slog.String("error", err.Error()))
		return models.Respond(c, err)
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// WebUnseenNotifications handles GET /notifications/json
func (s *Server) WebUnseenNotifications(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	notifications, err := s.notificationService.ListUnseen(c.UserContext(), user.ID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(notifications)
}

// WebMarkSeen handles PUT /notifications/mark-seen
func (s *Server) WebMarkSeen(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if _, err := s.notificationService.MarkAllSeen(c.UserContext(), user.ID); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"status": "success"})
}
