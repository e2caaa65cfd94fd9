package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/stacklyhub/internal/policy"
)

var issuedAt = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

func fixedIssuer(secret string, now *time.Time) *TokenIssuer {
	return NewTokenIssuer(secret, time.Hour,
		WithClock(func() time.Time { return *now }),
		WithIDGenerator(func() string { return "token-1" }),
	)
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	t.Parallel()

	now := issuedAt
	issuer := fixedIssuer("test-secret", &now)

	signed, claims, err := issuer.Issue(3, policy.RoleTrainee)
	require.NoError(t, err)
	assert.Equal(t, "token-1", claims.ID)
	assert.Equal(t, issuedAt.Add(time.Hour), claims.ExpiresAt.Time)

	parsed, err := issuer.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, 3, parsed.UserID)
	assert.Equal(t, policy.RoleTrainee, parsed.Role)
	assert.Equal(t, "token-1", parsed.ID)
	assert.True(t, parsed.IssuedAt.Time.Equal(issuedAt))
}

func TestTokenIssuer_Rejections(t *testing.T) {
	t.Parallel()

	now := issuedAt
	issuer := fixedIssuer("test-secret", &now)
	signed, _, err := issuer.Issue(1, policy.RoleAdmin)
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := issuer.Parse("")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("tampered", func(t *testing.T) {
		parts := strings.Split(signed, ".")
		require.Len(t, parts, 3)
		_, err := issuer.Parse(parts[0] + "." + parts[1] + ".AAAA")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other secret", func(t *testing.T) {
		_, err := fixedIssuer("other-secret", &now).Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour))},
			UserID:           1,
			Role:             policy.RoleAdmin,
		}
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = issuer.Parse(forged)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := issuedAt.Add(2 * time.Hour)
		_, err := fixedIssuer("test-secret", &later).Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewTokenIssuer_Defaults(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("secret", 0)
	assert.Equal(t, DefaultTTL, issuer.TTL())

	_, first, err := issuer.Issue(2, policy.RoleTrainer)
	require.NoError(t, err)
	_, second, err := issuer.Issue(2, policy.RoleTrainer)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}
