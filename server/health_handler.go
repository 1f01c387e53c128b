package server

import (
	"encoding/json"
	"net/http"
)

// HealthHandler reports liveness plus whether a persisted session has
// finished hydrating.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":        "ok",
			"hydrated":      s.store.HasHydrated(),
			"authenticated": s.store.IsAuthenticated(),
		})
	}
}
