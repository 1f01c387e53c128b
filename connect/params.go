package connect

import (
	"net/url"
	"strconv"
)

// CallbackParams is the parsed result of the third-party authorization
// redirect: either an error pair, or a success flag with the short-lived user
// access credential and the dashboard business the link belongs to.
type CallbackParams struct {
	Error       string
	ErrorDesc   string
	Success     bool
	AccessToken string
	ExpiresIn   int64
	BusinessID  string
}

func ParseCallbackParams(values url.Values) CallbackParams {
	expiresIn, _ := strconv.ParseInt(values.Get("expires_in"), 10, 64)
	return CallbackParams{
		Error:       values.Get("error"),
		ErrorDesc:   values.Get("error_description"),
		Success:     values.Get("success") == "true",
		AccessToken: values.Get("access_token"),
		ExpiresIn:   expiresIn,
		BusinessID:  values.Get("business_id"),
	}
}

// wellFormed reports whether the success parameters are complete enough to
// start the graph resolution.
func (p CallbackParams) wellFormed() bool {
	return p.Success && p.AccessToken != "" && p.BusinessID != ""
}
