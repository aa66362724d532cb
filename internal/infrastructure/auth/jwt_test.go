package auth

import (
	"testing"
	"time"

	"github.com/fixflow/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars"

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                testSecret,
		Issuer:                "fixflow-test",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func sign(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.RegisteredClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, Claims{claims}).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestJWTService()
	accountID := uuid.New()

	token, err := svc.GenerateAccessToken(accountID)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), token.ExpiresAt, 5*time.Second)

	claims, err := svc.ValidateAccessToken(token.Token)
	require.NoError(t, err)
	got, err := claims.Account()
	require.NoError(t, err)
	assert.Equal(t, accountID, got)
	assert.Equal(t, "fixflow-test", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"fixflow-test"}, claims.Audience)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_ValidityWindow(t *testing.T) {
	svc := newTestJWTService()

	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, err := svc.GenerateAccessToken(uuid.New())
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	early, err := svc.GenerateAccessToken(uuid.New())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAccessToken(stale.Token)
	assert.ErrorIs(t, err, ErrExpiredToken)
	_, err = svc.ValidateAccessToken(early.Token)
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := newTestJWTService()
	now := time.Now()
	valid := jwt.RegisteredClaims{
		Issuer:    "fixflow-test",
		Subject:   uuid.NewString(),
		Audience:  jwt.ClaimStrings{"fixflow-test"},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}
	with := func(edit func(*jwt.RegisteredClaims)) jwt.RegisteredClaims {
		c := valid
		edit(&c)
		return c
	}

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not-a-token", ErrInvalidToken},
		{"other secret", sign(t, "another-secret-key-at-least-32-ch", jwt.SigningMethodHS256, valid), ErrInvalidToken},
		{"other algorithm", sign(t, testSecret, jwt.SigningMethodHS512, valid), ErrInvalidToken},
		{"other issuer", sign(t, testSecret, jwt.SigningMethodHS256, with(func(c *jwt.RegisteredClaims) { c.Issuer = "someone-else" })), ErrInvalidToken},
		{"other audience", sign(t, testSecret, jwt.SigningMethodHS256, with(func(c *jwt.RegisteredClaims) { c.Audience = jwt.ClaimStrings{"billing"} })), ErrInvalidToken},
		{"no expiry", sign(t, testSecret, jwt.SigningMethodHS256, with(func(c *jwt.RegisteredClaims) { c.ExpiresAt = nil })), ErrInvalidToken},
		{"no subject", sign(t, testSecret, jwt.SigningMethodHS256, with(func(c *jwt.RegisteredClaims) { c.Subject = "" })), ErrMissingAccountID},
		{"subject not an ID", sign(t, testSecret, jwt.SigningMethodHS256, with(func(c *jwt.RegisteredClaims) { c.Subject = "admin" })), ErrInvalidToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tc.token)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	assert.NoError(t, func() error {
		_, err := svc.ValidateAccessToken(sign(t, testSecret, jwt.SigningMethodHS256, valid))
		return err
	}())
}
