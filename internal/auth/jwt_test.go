package auth_test

import (
	"testing"
	"time"

	"placement-service/internal/auth"
	"placement-service/internal/identity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", 15*time.Minute)
	userID := uuid.New()

	token, expiresAt, err := issuer.GenerateAccessToken(userID, identity.RoleCompany)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := issuer.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, identity.RoleCompany, claims.Role)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", 15*time.Minute)

	t.Run("WrongSecret", func(t *testing.T) {
		other := auth.NewTokenIssuer("other-secret", 15*time.Minute)
		token, _, err := other.GenerateAccessToken(uuid.New(), identity.RoleStudent)
		require.NoError(t, err)

		_, err = issuer.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		expired := auth.NewTokenIssuer("test-secret", -time.Minute)
		token, _, err := expired.GenerateAccessToken(uuid.New(), identity.RoleStudent)
		require.NoError(t, err)

		_, err = issuer.ValidateAccessToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("NoneAlgorithm", func(t *testing.T) {
		claims := auth.Claims{
			UserID: uuid.NewString(),
			Role:   identity.RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "placement-service",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = issuer.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := issuer.ValidateAccessToken("not-a-token")
		assert.Error(t, err)
	})
}

func TestGenerateRefreshToken(t *testing.T) {
	a, err := auth.GenerateRefreshToken()
	require.NoError(t, err)
	b, err := auth.GenerateRefreshToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
