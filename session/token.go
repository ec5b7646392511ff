package session

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "admin"

var ErrInvalidToken = errors.New("invalid token")

// Principal is who a token or session speaks for.
type Principal struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwtlib.RegisteredClaims
}

// Tokens verifies HS256 bearer tokens minted by the identity provider and can
// mint its own for bootstrap and tests.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

func (t *Tokens) Issue(p Principal) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: p.Email,
		Role:  p.Role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   p.UID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *Tokens) Verify(raw string) (*Principal, error) {
	token, err := jwtlib.ParseWithClaims(raw, &Claims{}, func(*jwtlib.Token) (any, error) {
		return t.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}), jwtlib.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &Principal{UID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}
