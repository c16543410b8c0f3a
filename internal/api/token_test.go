package api_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davebowl/Canna-spot-mobile/internal/api"
)

var secret = []byte("test-secret")

func TestIssueAndParseToken(t *testing.T) {
	t.Parallel()

	tok, err := api.IssueToken(secret, 42, "ann", time.Hour)
	require.NoError(t, err)

	claims, err := api.ParseToken(secret, tok)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "ann", claims.Username)
	assert.NotEmpty(t, claims.ID)
}

func TestParseToken_rejects(t *testing.T) {
	t.Parallel()

	expired, err := api.IssueToken(secret, 1, "", -time.Minute)
	require.NoError(t, err)

	otherKey, err := api.IssueToken([]byte("other"), 1, "", time.Hour)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "cannaspot",
		Subject:   "ann",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(secret)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer: "cannaspot", Subject: "1",
	}).SignedString(secret)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":     expired,
		"wrong key":   otherKey,
		"bad subject": badSubject,
		"no expiry":   noExpiry,
		"garbage":     "not.a.token",
	}

	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := api.ParseToken(secret, tok)
			require.ErrorIs(t, err, api.ErrInvalidToken)
		})
	}
}
