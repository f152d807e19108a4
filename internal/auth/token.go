package auth

import (
	"errors"
	"fmt"
	"time"

	"noticeboard/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that must not be trusted:
// bad signature, unexpected algorithm, malformed payload, missing subject or expired.
var ErrInvalidToken = errors.New("invalid token")

// TokenIssuer issues and verifies HMAC-signed JWTs whose subject is a user email.
type TokenIssuer struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	skew   time.Duration
	now    func() time.Time
}

// Option customizes a TokenIssuer.
type Option func(*TokenIssuer)

// WithClock replaces the wall clock used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(i *TokenIssuer) {
		i.now = now
	}
}

// NewTokenIssuer builds an issuer from the process configuration.
func NewTokenIssuer(cfg *config.Config, opts ...Option) (*TokenIssuer, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT secret not configured")
	}
	method, ok := jwt.GetSigningMethod(cfg.JWTAlgorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.JWTAlgorithm)
	}
	i := &TokenIssuer{
		secret: []byte(cfg.JWTSecret),
		method: method,
		ttl:    cfg.JWTTTL,
		skew:   cfg.JWTClockSkew,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// DefaultTTL is the lifetime used by IssueDefault.
func (i *TokenIssuer) DefaultTTL() time.Duration {
	return i.ttl
}

// IssueDefault issues a token for subject with the configured lifetime.
func (i *TokenIssuer) IssueDefault(subject string) (string, error) {
	return i.Issue(subject, i.ttl)
}

// Issue signs {sub, iat, exp = now + ttl}. A non-positive ttl yields a token
// that is already expired.
func (i *TokenIssuer) Issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	now := i.now()
	// NumericDate keeps whole seconds, so exp may land up to 1s before now+ttl.
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(i.method, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry, and returns the subject.
// Every failure wraps ErrInvalidToken.
func (i *TokenIssuer) Verify(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(i.skew),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
