package session

import "errors"

var (
	ErrNoRefreshToken = errors.New("no refresh token stored")
	ErrSessionExpired = errors.New("session expired, please log in again")
)

// Generic fallbacks used when the auth service gives no structured message.
var (
	loginFallbackErr    = errors.New("login failed, please try again")
	registerFallbackErr = errors.New("registration failed, please try again")
)
