package session_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/bizpilot/go-auth-client/internal/utils"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return token
}

func TestTokenExpiresWithin(t *testing.T) {
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	// No token held: always due for refresh.
	require.True(t, f.store.TokenExpiresWithin(time.Minute))

	longLived := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	f.store.SetToken(utils.Ptr(longLived))
	require.False(t, f.store.TokenExpiresWithin(time.Minute))
	require.True(t, f.store.TokenExpiresWithin(2*time.Hour))

	expired := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Minute).Unix()})
	f.store.SetToken(utils.Ptr(expired))
	require.True(t, f.store.TokenExpiresWithin(time.Minute))

	// Opaque tokens can't be inspected: refresh conservatively.
	f.store.SetToken(utils.Ptr("not-a-jwt"))
	require.True(t, f.store.TokenExpiresWithin(time.Minute))

	// A token without an exp claim never expires.
	noExpiry := signedToken(t, jwt.MapClaims{"sub": testUserID})
	f.store.SetToken(utils.Ptr(noExpiry))
	require.False(t, f.store.TokenExpiresWithin(time.Minute))
}
