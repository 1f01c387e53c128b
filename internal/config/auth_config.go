package config

import "time"

type AuthConfig interface {
	GetAuthBaseURL() string
	GetAuthRequestTimeout() time.Duration
	GetLogoutNotifyTimeout() time.Duration
}

type Auth struct{}

var _ AuthConfig = Auth{}

// GetAuthBaseURL returns the base URL of the remote authentication service.
func (Auth) GetAuthBaseURL() string {
	return GetEnv("AUTH_BASE_URL", "https://api.bizpilot.app/v1")
}

func (Auth) GetAuthRequestTimeout() time.Duration {
	return 15 * time.Second
}

// GetLogoutNotifyTimeout bounds the best-effort remote logout call. Local
// state is cleared regardless of the outcome, so this stays short.
func (Auth) GetLogoutNotifyTimeout() time.Duration {
	return 5 * time.Second
}
