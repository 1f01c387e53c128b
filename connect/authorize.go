package connect

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

// AuthorizeConfig describes the third-party app the popup authorizes against.
type AuthorizeConfig struct {
	ClientID    string
	RedirectURL string
	Scopes      []string
}

// AuthorizeURL builds the authorization URL the dashboard opens the popup
// with. state is round-tripped through the provider and must be validated by
// the callback host.
func AuthorizeURL(cfg AuthorizeConfig, state string) string {
	oauthCfg := oauth2.Config{
		ClientID:    cfg.ClientID,
		RedirectURL: cfg.RedirectURL,
		Scopes:      cfg.Scopes,
		Endpoint:    facebook.Endpoint,
	}
	return oauthCfg.AuthCodeURL(state)
}
