// Package server hosts the connect relay daemon's HTTP surface: the OAuth
// callback route the popup lands on, plus health and metrics.
package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/bizpilot/go-auth-client/connect"
	"github.com/bizpilot/go-auth-client/connect/relay"
	"github.com/bizpilot/go-auth-client/internal/config"
	"github.com/bizpilot/go-auth-client/internal/metrics"
	"github.com/bizpilot/go-auth-client/session"
)

type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string

	config   config.Config
	store    *session.Store
	graph    connect.GraphService
	sender   relay.Sender
	receiver relay.Receiver
	metrics  *metrics.Collector
}

func New(cfg config.Config, store *session.Store, graphService connect.GraphService, sender relay.Sender, receiver relay.Receiver, collector *metrics.Collector) (*Server, error) {
	if store == nil {
		return nil, errors.New("[server.New] session store is required")
	}
	if graphService == nil {
		return nil, errors.New("[server.New] graph service is required")
	}

	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		store:    store,
		graph:    graphService,
		sender:   sender,
		receiver: receiver,
		metrics:  collector,
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Debug().Msgf("[%-19s] %s", displayMethod, path)
}
