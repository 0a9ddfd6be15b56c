// Package identity resolves bearer tokens to users and looks up their
// external points balance.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmuslimabdulj/gelly-pet/internal/domain"
)

// Resolver maps an opaque authorization token to a stable identity
type Resolver interface {
	Resolve(ctx context.Context, token string) (domain.Identity, error)
}

// Claims carried by identity tokens. Subject is the stable user id.
type Claims struct {
	Login       string `json:"preferred_username,omitempty"`
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTResolver verifies HS256 tokens issued by the identity provider
type JWTResolver struct {
	secret []byte
	issuer string
}

// NewJWTResolver creates a resolver. An empty issuer skips the issuer check.
func NewJWTResolver(secret, issuer string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret), issuer: issuer}
}

// Resolve fails with domain.ErrUnauthorized for any invalid token
func (r *JWTResolver) Resolve(ctx context.Context, token string) (domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Identity{}, fmt.Errorf("%w: empty token", domain.ErrUnauthorized)
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if r.issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return r.secret, nil
	}, opts...)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return domain.Identity{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}

	return domain.Identity{
		UserID:      claims.Subject,
		Login:       claims.Login,
		DisplayName: claims.DisplayName,
	}, nil
}

// Sign issues a token for id. Used by tooling and tests.
func (r *JWTResolver) Sign(id domain.Identity, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = id.UserID
	if claims.Issuer == "" {
		claims.Issuer = r.issuer
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Login:            id.Login,
		DisplayName:      id.DisplayName,
		RegisteredClaims: claims,
	})
	return token.SignedString(r.secret)
}

var _ Resolver = (*JWTResolver)(nil)
