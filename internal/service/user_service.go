// Package service holds the account, post and notification operations shared
// by the web and API surfaces.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"noticeboard/internal/models"
	"noticeboard/internal/observability"
	"noticeboard/internal/repository"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type UserService struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
}

// SignupInput carries the fields a new account needs. All are required.
type SignupInput struct {
	Email       string `json:"email" form:"email"`
	Password    string `json:"password" form:"password"`
	FirstName   string `json:"first_name" form:"first_name"`
	LastName    string `json:"last_name" form:"last_name"`
	PhoneNumber string `json:"phone_number" form:"phone_number"`
}

func NewUserService(userRepo repository.UserRepository, hasher PasswordHasher) *UserService {
	return &UserService{userRepo: userRepo, hasher: hasher}
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) CreateUser(ctx context.Context, in SignupInput) (*models.User, error) {
	email := NormalizeEmail(in.Email)
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	phone := strings.TrimSpace(in.PhoneNumber)

	switch {
	case email == "":
		return nil, models.NewValidationError("Email is required")
	case in.Password == "":
		return nil, models.NewValidationError("Password is required")
	case firstName == "":
		return nil, models.NewValidationError("First name is required")
	case lastName == "":
		return nil, models.NewValidationError("Last name is required")
	case phone == "":
		return nil, models.NewValidationError("Phone number is required")
	}
	// ParseAddress also accepts "Name <addr>"; only a bare address is stored.
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, models.NewValidationError("Email is not valid")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PhoneNumber:  phone,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicateIdentity) {
			observability.AuthAttempts.WithLabelValues(observability.AuthSignupDuplicate).Inc()
		}
		return nil, err
	}

	observability.AuthAttempts.WithLabelValues(observability.AuthSignupOK).Inc()
	slog.InfoContext(ctx, "user signed up", slog.Uint64("new_user_id", uint64(user.ID)))
	return user, nil
}

// Authenticate returns the user when email and password match. An unknown
// email and a wrong password fail the same way.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil || !s.hasher.Verify(password, user.PasswordHash) {
		observability.AuthAttempts.WithLabelValues(observability.AuthSigninFailed).Inc()
		return nil, models.ErrInvalidCredentials
	}
	observability.AuthAttempts.WithLabelValues(observability.AuthSigninOK).Inc()
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}
