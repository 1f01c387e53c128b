package server

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bizpilot/go-auth-client/connect"
)

// relayPollTimeout bounds a single long-poll on the events route. The
// dashboard re-issues the request after an empty response.
const relayPollTimeout = 25 * time.Second

const statusPageTemplate = `<!DOCTYPE html>
<html>
<head><title>{{.AppName}}</title></head>
<body>
  <main class="connect-status {{.Status}}">
    <p>{{.StatusText}}</p>
  </main>
  <script>setTimeout(function () { window.close(); }, {{.CloseAfterMS}});</script>
</body>
</html>`

type statusPageData struct {
	AppName      string
	Status       connect.Status
	StatusText   string
	CloseAfterMS int64
}

// ConnectStartHandler redirects the popup to the third-party authorization
// page.
func (s *Server) ConnectStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorizeURL := connect.AuthorizeURL(connect.AuthorizeConfig{
			ClientID:    s.config.GetGraphClientID(),
			RedirectURL: s.config.GetGraphRedirectURL(),
			Scopes:      s.config.GetGraphScopes(),
		}, uuid.New().String())

		http.Redirect(w, r, authorizeURL, http.StatusFound)
	}
}

// ConnectCallbackHandler lands the popup after the third-party authorization
// redirect. It runs the completion flow to its terminal state and renders the
// status page, which closes itself after the flow's delay.
func (s *Server) ConnectCallbackHandler() http.HandlerFunc {
	tmpl := template.Must(template.New("status").Parse(statusPageTemplate))

	return func(w http.ResponseWriter, r *http.Request) {
		params := connect.ParseCallbackParams(r.URL.Query())

		options := []connect.FlowOption{}
		if s.metrics != nil {
			options = append(options, connect.WithOutcomeRecorder(s.metrics))
		}

		flow, err := connect.NewFlow(s.graph, s.sender, s.config.GetAllowedOrigin(), options...)
		if err != nil {
			log.Error().Err(err).Msg("failed to build connect flow")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		status := flow.Run(r.Context(), params)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, statusPageData{
			AppName:      s.config.GetAppName(),
			Status:       status,
			StatusText:   flow.StatusText(),
			CloseAfterMS: flow.CloseDelay().Milliseconds(),
		})
	}
}

// ConnectEventsHandler is the delivery side of the relay: the dashboard
// long-polls it to collect completion messages. Responds with one message as
// JSON, or 204 when none arrives before the poll times out.
func (s *Server) ConnectEventsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.config.GetAllowedOrigin())

		timer := time.NewTimer(relayPollTimeout)
		defer timer.Stop()

		select {
		case msg := <-s.receiver.Receive():
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(msg)
		case <-r.Context().Done():
			w.WriteHeader(http.StatusNoContent)
		case <-timer.C:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}
