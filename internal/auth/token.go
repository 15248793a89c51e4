// Package auth issues and verifies the bearer tokens that carry a caller's
// anonymous identity.
package auth

import (
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"undercover/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "undercover"

// Session is an issued identity and its signed token.
type Session struct {
	Identity  string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Issuer signs HS256 tokens whose subject is the caller identity.
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewIssuer builds an issuer. An empty secret generates a random key, so
// tokens do not survive a restart.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	key := []byte(strings.TrimSpace(secret))
	if len(key) == 0 {
		key = []byte(rand.Text())
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{key: key, ttl: ttl, now: time.Now}
}

// NewSession mints a fresh identity.
func (i *Issuer) NewSession() (Session, error) {
	return i.Issue(uuid.NewString())
}

// Issue signs a token for identity.
func (i *Issuer) Issue(identity string) (Session, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return Session{}, errors.New("identity is required")
	}
	now := i.now().UTC()
	expires := now.Add(i.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   identity,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return Session{}, err
	}
	return Session{Identity: identity, Token: signed, ExpiresAt: expires.Truncate(time.Second)}, nil
}

// Parse verifies token and returns the identity it carries.
func (i *Issuer) Parse(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperr.New(apperr.CodeUnauthenticated, "token is required")
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", mapJWTError(err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", apperr.New(apperr.CodeUnauthenticated, "token subject is required")
	}
	return claims.Subject, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperr.Wrap(apperr.CodeUnauthenticated, "token is expired", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return apperr.Wrap(apperr.CodeUnauthenticated, "token signature is invalid", err)
	default:
		return apperr.Wrap(apperr.CodeUnauthenticated, "token is invalid", err)
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
