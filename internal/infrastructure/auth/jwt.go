// Package auth issues and validates the bearer tokens of the HTTP adapter.
//
// A token only names a user account. Role and tenant scope are resolved from
// the account record on every request, so a token never grants more than the
// account currently holds.
package auth

import (
	"errors"
	"time"

	"github.com/fixflow/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingAccountID = errors.New("token names no account")
)

// Claims are the registered claims of an access token. Subject is the account ID.
type Claims struct {
	jwt.RegisteredClaims
}

// Account parses the account the token was issued to
func (c *Claims) Account() (uuid.UUID, error) {
	if c.Subject == "" {
		return uuid.Nil, ErrMissingAccountID
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

// AccessToken is a signed token and its expiry
type AccessToken struct {
	Token     string    `json:"access_token"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenType string    `json:"token_type"`
}

// JWTService signs and verifies HS256 access tokens. The issuer doubles as
// the audience so tokens of another deployment sharing the secret are refused.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret: []byte(cfg.Secret),
		ttl:    cfg.AccessTokenExpiration,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
}

// GenerateAccessToken signs a token for accountID valid from now for the configured TTL
func (s *JWTService) GenerateAccessToken(accountID uuid.UUID) (*AccessToken, error) {
	issued := s.now()
	expires := issued.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Subject:   accountID.String(),
		Audience:  jwt.ClaimStrings{s.issuer},
		IssuedAt:  jwt.NewNumericDate(issued),
		NotBefore: jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{claims}).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &AccessToken{Token: signed, ExpiresAt: expires, TokenType: "Bearer"}, nil
}

// ValidateAccessToken verifies signature, issuer, audience and validity
// window, and that the subject is an account ID
func (s *JWTService) ValidateAccessToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, ErrTokenNotYetValid
	case err != nil:
		return nil, ErrInvalidToken
	}
	if _, err := claims.Account(); err != nil {
		return nil, err
	}
	return claims, nil
}
