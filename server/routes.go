package server

// All routes are defined here to ensure consistency and prevent typos
const (
	RouteConnectCallback = "/connect/instagram/callback"
	RouteConnectStart    = "/connect/instagram/start"
	RouteConnectEvents   = "/connect/instagram/events"
	RouteHealth          = "/health"
	RouteMetrics         = "/metrics"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteConnectCallback, s.ConnectCallbackHandler())
	s.RegisterRouteFunc("GET "+RouteConnectStart, s.ConnectStartHandler())
	if s.receiver != nil {
		s.RegisterRouteFunc("GET "+RouteConnectEvents, s.ConnectEventsHandler())
	}
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	if s.metrics != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())
	}
}
