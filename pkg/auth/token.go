// Package auth verifies the HS256 bearer tokens accepted by the API. Tokens
// are issued upstream; MintAccessToken exists for local tooling and tests.
package auth

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/tally-backend/pkg/config"
)

const (
	RoleClerk = "clerk"
	RoleAdmin = "admin"
)

var (
	roles         = []string{RoleClerk, RoleAdmin}
	signingMethod = jwt.SigningMethodHS256

	errNoSecret  = errors.New("jwt secret is required")
	errNoSubject = errors.New("jwt subject is required")
)

type AccessTokenPayload struct {
	Subject string
	Role    string
	// JTI defaults to a random UUID.
	JTI string
}

type AccessTokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claims pass; jwt/v5 calls it from ParseWithClaims.
func (c AccessTokenClaims) Validate() error {
	if strings.TrimSpace(c.Subject) == "" {
		return errNoSubject
	}
	if !slices.Contains(roles, c.Role) {
		return fmt.Errorf("unknown role %q", c.Role)
	}
	return nil
}

func MintAccessToken(cfg config.JWTConfig, now time.Time, ttl time.Duration, payload AccessTokenPayload) (string, error) {
	switch {
	case cfg.Secret == "":
		return "", errNoSecret
	case cfg.Issuer == "":
		return "", errors.New("jwt issuer is required")
	case ttl <= 0:
		return "", fmt.Errorf("jwt ttl must be positive, got %s", ttl)
	}

	claims := AccessTokenClaims{
		Role: payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        cmp.Or(strings.TrimSpace(payload.JTI), uuid.NewString()),
			Subject:   payload.Subject,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if err := claims.Validate(); err != nil {
		return "", err
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken accepts only HS256 tokens from cfg.Issuer that carry an
// expiry, a subject and a known role.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, errNoSecret
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	claims := &AccessTokenClaims{}
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}); err != nil {
		return nil, err
	}
	return claims, nil
}
