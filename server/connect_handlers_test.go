package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bizpilot/go-auth-client/authapi"
	"github.com/bizpilot/go-auth-client/connect/relay"
	"github.com/bizpilot/go-auth-client/graph"
	"github.com/bizpilot/go-auth-client/internal/config"
	"github.com/bizpilot/go-auth-client/server"
	"github.com/bizpilot/go-auth-client/session"
	"github.com/bizpilot/go-auth-client/session/storage/repofake"
)

type stubGraph struct {
	pages  []graph.Page
	linked map[string]*graph.InstagramAccount
}

func (sg *stubGraph) ListPages(_ context.Context, _ string) ([]graph.Page, error) {
	return sg.pages, nil
}

func (sg *stubGraph) LinkedInstagramAccount(_ context.Context, pageID, _ string) (*graph.InstagramAccount, error) {
	return sg.linked[pageID], nil
}

func setupServer(t *testing.T, sg *stubGraph) (*server.Server, *relay.Channel) {
	t.Helper()

	cfg := config.New()
	store, err := session.NewStore(authapi.NewClient("http://auth.invalid"), repofake.NewFakeStorageRepo())
	require.NoError(t, err)

	channel := relay.NewChannel(cfg.GetAllowedOrigin(), 4)
	srv, err := server.New(cfg, store, sg, channel, channel, nil)
	require.NoError(t, err)
	return srv, channel
}

func TestConnectCallbackSuccessPage(t *testing.T) {
	sg := &stubGraph{
		pages:  []graph.Page{{ID: "p1", AccessToken: "pt1"}},
		linked: map[string]*graph.InstagramAccount{"p1": {ID: "ig1", Username: "jo"}},
	}
	srv, channel := setupServer(t, sg)

	query := url.Values{
		"success":      {"true"},
		"access_token": {"user-token"},
		"business_id":  {"biz-42"},
	}
	req := httptest.NewRequest(http.MethodGet, server.RouteConnectCallback+"?"+query.Encode(), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "connect-status success")
	require.Contains(t, rec.Body.String(), "window.close")
	require.Contains(t, rec.Body.String(), "2000")

	select {
	case msg := <-channel.Receive():
		require.Equal(t, relay.TypeConnectSuccess, msg.Type)
		require.Equal(t, "p1", msg.Data.PageID)
		require.Equal(t, "biz-42", msg.Data.BusinessID)
	default:
		t.Fatal("expected a completion message on the relay channel")
	}
}

func TestConnectCallbackErrorPage(t *testing.T) {
	srv, channel := setupServer(t, &stubGraph{})

	query := url.Values{
		"error":             {"access_denied"},
		"error_description": {"User denied your request"},
	}
	req := httptest.NewRequest(http.MethodGet, server.RouteConnectCallback+"?"+query.Encode(), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "connect-status error")
	require.Contains(t, rec.Body.String(), "3000")

	select {
	case msg := <-channel.Receive():
		require.Equal(t, relay.TypeConnectError, msg.Type)
		require.Equal(t, "access_denied", msg.Error)
	default:
		t.Fatal("expected a completion message on the relay channel")
	}
}

// Callbacks must keep completing even when nobody drains the relay: an
// overflowing channel drops messages rather than stalling the popup.
func TestConnectCallbackSurvivesUndrainedRelay(t *testing.T) {
	sg := &stubGraph{
		pages:  []graph.Page{{ID: "p1", AccessToken: "pt1"}},
		linked: map[string]*graph.InstagramAccount{"p1": {ID: "ig1", Username: "jo"}},
	}

	cfg := config.New()
	store, err := session.NewStore(authapi.NewClient("http://auth.invalid"), repofake.NewFakeStorageRepo())
	require.NoError(t, err)

	channel := relay.NewChannel(cfg.GetAllowedOrigin(), 1)
	srv, err := server.New(cfg, store, sg, channel, channel, nil)
	require.NoError(t, err)

	query := url.Values{
		"success":      {"true"},
		"access_token": {"user-token"},
		"business_id":  {"biz-42"},
	}
	target := server.RouteConnectCallback + "?" + query.Encode()

	// First callback fills the buffer.
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	done := make(chan int, 1)
	go func() {
		overflow := httptest.NewRecorder()
		srv.ServeHTTP(overflow, httptest.NewRequest(http.MethodGet, target, nil))
		done <- overflow.Code
	}()

	select {
	case code := <-done:
		require.Equal(t, http.StatusOK, code)
	case <-time.After(2 * time.Second):
		t.Fatal("callback hung on a full relay channel")
	}
}

func TestConnectEventsDeliversMessage(t *testing.T) {
	sg := &stubGraph{
		pages:  []graph.Page{{ID: "p1", AccessToken: "pt1"}},
		linked: map[string]*graph.InstagramAccount{"p1": {ID: "ig1", Username: "jo"}},
	}
	srv, _ := setupServer(t, sg)

	query := url.Values{
		"success":      {"true"},
		"access_token": {"user-token"},
		"business_id":  {"biz-42"},
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, server.RouteConnectCallback+"?"+query.Encode(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	events := httptest.NewRecorder()
	srv.ServeHTTP(events, httptest.NewRequest(http.MethodGet, server.RouteConnectEvents, nil))

	require.Equal(t, http.StatusOK, events.Code)
	require.Equal(t, config.New().GetAllowedOrigin(), events.Header().Get("Access-Control-Allow-Origin"))

	var msg relay.Message
	require.NoError(t, json.Unmarshal(events.Body.Bytes(), &msg))
	require.Equal(t, relay.TypeConnectSuccess, msg.Type)
	require.Equal(t, "biz-42", msg.Data.BusinessID)
}

func TestConnectEventsEmptyPollEndsWithNoContent(t *testing.T) {
	srv, _ := setupServer(t, &stubGraph{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, server.RouteConnectEvents, nil).WithContext(ctx)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestConnectStartRedirects(t *testing.T) {
	srv, _ := setupServer(t, &stubGraph{})

	req := httptest.NewRequest(http.MethodGet, server.RouteConnectStart, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), "facebook.com")
}

func TestHealthRoute(t *testing.T) {
	srv, _ := setupServer(t, &stubGraph{})

	req := httptest.NewRequest(http.MethodGet, server.RouteHealth, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}
