package config

type GraphConfig interface {
	GetGraphBaseURL() string
	GetGraphClientID() string
	GetGraphRedirectURL() string
	GetGraphScopes() []string
	GetGraphRequestsPerSecond() float64
}

type Graph struct{}

var _ GraphConfig = Graph{}

func (Graph) GetGraphBaseURL() string {
	return GetEnv("GRAPH_BASE_URL", "https://graph.facebook.com/v19.0")
}

func (Graph) GetGraphClientID() string {
	return GetEnv("GRAPH_CLIENT_ID", "")
}

func (Graph) GetGraphRedirectURL() string {
	return GetEnv("GRAPH_REDIRECT_URL", "http://localhost:8080/connect/instagram/callback")
}

func (Graph) GetGraphScopes() []string {
	return []string{
		"pages_show_list",
		"instagram_basic",
		"instagram_manage_messages",
		"pages_manage_metadata",
	}
}

// GetGraphRequestsPerSecond caps outbound graph calls. The page fan-out runs
// concurrently, so without a cap a user with many pages can burst well past
// the graph API's per-app limit.
func (Graph) GetGraphRequestsPerSecond() float64 {
	return 10
}
