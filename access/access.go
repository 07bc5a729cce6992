/*
Package access carries the calling client's identity through a request.

PURPOSE:
  Every service operation is scoped by who is asking. Agents see the
  producers their agency writes; administrators see everything holding an
  eligible commodity. The identity travels as a signed token on the HTTP
  request and as a Client value on the context below it.

KEY TYPES:
  Client:         E-mail and admin flag of the caller
  TokenValidator: Issues and validates HS256 client tokens

USAGE:
  v := access.NewTokenValidator(key, "cims", "cims-api")
  client, err := v.Validate(bearer)
  ctx = access.WithClient(ctx, client)
*/
package access

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/wsr/cims/cims"
)

// Client identifies the caller of a service operation.
type Client struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

type clientKey struct{}

// WithClient returns a context carrying the client.
func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

// FromContext returns the client on the context. The zero Client (no
// e-mail, not admin) is returned when none was set; it is authorized for
// nothing.
func FromContext(ctx context.Context) Client {
	c, _ := ctx.Value(clientKey{}).(Client)
	return c
}

// =============================================================================
// TOKENS
// =============================================================================

// Claims are the JWT claims of a client token.
type Claims struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// TokenValidator issues and validates client tokens.
type TokenValidator struct {
	signingKey []byte
	issuer     string
	audience   string
}

// NewTokenValidator creates a validator for HS256 tokens of issuer and audience.
func NewTokenValidator(signingKey, issuer, audience string) *TokenValidator {
	return &TokenValidator{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// Issue signs a token for the client valid for ttl.
func (v *TokenValidator) Issue(c Client, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email:   c.Email,
		IsAdmin: c.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.Email,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    v.issuer,
			Audience:  []string{v.audience},
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(v.signingKey)
}

// Validate parses a token and returns its client. Any failure wraps
// cims.ErrUnauthenticated.
func (v *TokenValidator) Validate(tokenString string) (Client, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.signingKey, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithAudience(v.audience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Client{}, errors.Join(cims.ErrUnauthenticated, errors.New("token has expired"))
		}
		return Client{}, errors.Join(cims.ErrUnauthenticated, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Client{}, errors.Join(cims.ErrUnauthenticated, errors.New("invalid token claims"))
	}
	return Client{Email: strings.TrimSpace(claims.Email), IsAdmin: claims.IsAdmin}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
