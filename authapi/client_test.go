package authapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bizpilot/go-auth-client/authapi"
)

func serve(t *testing.T, handler http.HandlerFunc) *authapi.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return authapi.NewClient(srv.URL)
}

func TestLoginDecodesWrappedEnvelope(t *testing.T) {
	client := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {
			"access_token": "at",
			"refresh_token": "rt",
			"user": {"id": "u1", "email": "a@b.c", "business_id": "b1"}
		}}`))
	})

	grant, err := client.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	require.Equal(t, "at", grant.AccessToken)
	require.Equal(t, "rt", grant.RefreshToken)
	require.Equal(t, "u1", grant.User.ID)
	require.Equal(t, "b1", grant.User.BusinessID)
}

func TestLoginDecodesTopLevelFields(t *testing.T) {
	client := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "at",
			"refresh_token": "rt",
			"user": {"id": "u1"}
		}`))
	})

	grant, err := client.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	require.Equal(t, "at", grant.AccessToken)
	require.Equal(t, "u1", grant.User.ID)
}

func TestErrorMessageSurfacedVerbatim(t *testing.T) {
	client := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "account suspended"}`))
	})

	_, err := client.Login(context.Background(), "a@b.c", "pw")

	var apiErr *authapi.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	require.Equal(t, "account suspended", apiErr.Message)
	require.EqualError(t, err, "account suspended")
}

func TestUnstructuredErrorHasEmptyMessage(t *testing.T) {
	client := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := client.Refresh(context.Background(), "rt")

	var apiErr *authapi.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Empty(t, apiErr.Message)
}

func TestRequestTimeoutOption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	client := authapi.NewClient(srv.URL, authapi.WithRequestTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := client.Login(context.Background(), "a@b.c", "pw")

	require.Error(t, err)
	require.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestLogoutSendsBearerToken(t *testing.T) {
	var gotAuth string
	client := serve(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/logout", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.Logout(context.Background(), "tok-1"))
	require.Equal(t, "Bearer tok-1", gotAuth)
}
