package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes surfaced to clients.
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeDuplicateIdentity  = "DUPLICATE_IDENTITY"
	CodeUpstreamStorage    = "UPSTREAM_STORAGE_FAILURE"
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeInternal           = "INTERNAL_ERROR"
)

// GenericInternalMessage is the only detail a client sees for unexpected failures.
const GenericInternalMessage = "An internal server error occurred."

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another *AppError by code, so errors.Is(err, ErrUnauthenticated) works
// for any unauthenticated failure.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidCredentials = &AppError{Code: CodeInvalidCredentials, Message: "Invalid credentials"}
	ErrUnauthenticated    = &AppError{Code: CodeUnauthenticated, Message: "Not authenticated"}
	ErrDuplicateIdentity  = &AppError{Code: CodeDuplicateIdentity, Message: "User already exists"}
	ErrUpstreamStorage    = &AppError{Code: CodeUpstreamStorage, Message: "Storage unavailable"}
)

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthenticatedError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUnauthenticated,
		Message: message,
		Err:     err,
	}
}

func NewDuplicateIdentityError(err error) *AppError {
	return &AppError{
		Code:    CodeDuplicateIdentity,
		Message: "A user with this email or phone number already exists",
		Err:     err,
	}
}

func NewUpstreamStorageError(what string, err error) *AppError {
	return &AppError{
		Code:    CodeUpstreamStorage,
		Message: what + " failed",
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// StatusFor maps an error to the HTTP status it should surface as.
func StatusFor(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeInvalidCredentials, CodeValidation:
		return fiber.StatusBadRequest
	case CodeUnauthenticated:
		return fiber.StatusUnauthorized
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeDuplicateIdentity:
		return fiber.StatusConflict
	case CodeUpstreamStorage:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response.
// 5xx responses never carry internal detail.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	if status >= fiber.StatusInternalServerError {
		code := CodeInternal
		var appErr *AppError
		if errors.As(err, &appErr) && appErr.Code == CodeUpstreamStorage {
			code = appErr.Code
		}
		return c.Status(status).JSON(ErrorResponse{Error: GenericInternalMessage, Code: code})
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.Status(status).JSON(ErrorResponse{Error: appErr.Message, Code: appErr.Code})
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(status).JSON(ErrorResponse{Error: fiberErr.Message})
	}
	return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
}

// Respond writes err with the status StatusFor picks.
func Respond(c *fiber.Ctx, err error) error {
	return RespondWithError(c, StatusFor(err), err)
}
