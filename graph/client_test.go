package graph_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bizpilot/go-auth-client/graph"
)

func serve(t *testing.T, handler http.HandlerFunc) *graph.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return graph.NewClient(srv.URL)
}

func TestListPages(t *testing.T) {
	client := serve(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me/accounts", r.URL.Path)
		require.Equal(t, "user-token", r.URL.Query().Get("access_token"))

		_, _ = w.Write([]byte(`{"data": [
			{"id": "p1", "name": "Main Page", "access_token": "page-token-1"},
			{"id": "p2", "name": "Second Page", "access_token": "page-token-2"}
		]}`))
	})

	pages, err := client.ListPages(context.Background(), "user-token")
	require.NoError(t, err)
	require.Len(t, pages, 2)
	require.Equal(t, "p1", pages[0].ID)
	require.Equal(t, "page-token-1", pages[0].AccessToken)
}

func TestListPagesGraphError(t *testing.T) {
	client := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "Invalid OAuth access token", "type": "OAuthException", "code": 190}}`))
	})

	_, err := client.ListPages(context.Background(), "bad-token")

	var apiErr *graph.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 190, apiErr.Code)
	require.Equal(t, "OAuthException", apiErr.Type)
}

func TestLinkedInstagramAccount(t *testing.T) {
	client := serve(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/p1", r.URL.Path)
		require.Equal(t, "instagram_business_account{id,username}", r.URL.Query().Get("fields"))

		_, _ = w.Write([]byte(`{"instagram_business_account": {"id": "ig1", "username": "joflowers"}}`))
	})

	account, err := client.LinkedInstagramAccount(context.Background(), "p1", "page-token")
	require.NoError(t, err)
	require.NotNil(t, account)
	require.Equal(t, "ig1", account.ID)
	require.Equal(t, "joflowers", account.Username)
}

func TestLinkedInstagramAccountAbsent(t *testing.T) {
	client := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "p1", "name": "Main Page"}`))
	})

	account, err := client.LinkedInstagramAccount(context.Background(), "p1", "page-token")
	require.NoError(t, err)
	require.Nil(t, account)
}

func TestLinkedInstagramAccountRejection(t *testing.T) {
	client := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"message": "Permission denied", "type": "OAuthException", "code": 200}}`))
	})

	_, err := client.LinkedInstagramAccount(context.Background(), "p1", "page-token")

	var apiErr *graph.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Permission denied", apiErr.Message)
}

func TestTransportFailureIsNotAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := graph.NewClient(srv.URL)
	srv.Close()

	_, err := client.ListPages(context.Background(), "user-token")
	require.Error(t, err)

	var apiErr *graph.APIError
	require.False(t, errors.As(err, &apiErr))
}
