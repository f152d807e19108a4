package auth

import (
	"context"
	"net/url"
	"strings"

	"noticeboard/internal/models"
)

// UserLookup finds a user by email. It returns (nil, nil) when no user matches.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// SessionResolver turns a presented credential into the user it belongs to.
// It keeps no state besides the token's own signature and the user table.
type SessionResolver struct {
	tokens *TokenIssuer
	users  UserLookup
}

// NewSessionResolver returns a resolver backed by tokens and users.
func NewSessionResolver(tokens *TokenIssuer, users UserLookup) *SessionResolver {
	return &SessionResolver{tokens: tokens, users: users}
}

// Resolve accepts a bare token or one carrying a "Bearer " prefix.
// Missing, invalid or expired tokens and tokens for deleted users all yield
// an unauthenticated error; only store failures surface as something else.
func (r *SessionResolver) Resolve(ctx context.Context, raw string) (*models.User, error) {
	token := StripBearer(raw)
	if token == "" {
		return nil, models.NewUnauthenticatedError("Not authenticated", nil)
	}

	email, err := r.tokens.Verify(token)
	if err != nil {
		return nil, models.NewUnauthenticatedError("Invalid authentication credentials", err)
	}

	user, err := r.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthenticatedError("Invalid authentication credentials", nil)
	}
	return user, nil
}

// BearerFromHeader extracts the token from an "Authorization: Bearer <token>"
// header value. Other schemes yield "".
func BearerFromHeader(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// StripBearer removes quoting and an optional "Bearer " prefix from a cookie
// or header value.
func StripBearer(value string) string {
	v := strings.TrimSpace(value)
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
	}
	if strings.Contains(v, "%20") {
		if decoded, err := url.QueryUnescape(v); err == nil {
			v = decoded
		}
	}
	const prefix = "bearer "
	if len(v) >= len(prefix) && strings.EqualFold(v[:len(prefix)], prefix) {
		v = v[len(prefix):]
	}
	return strings.TrimSpace(v)
}
