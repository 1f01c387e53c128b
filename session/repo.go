package session

import (
	"context"

	"github.com/bizpilot/go-auth-client/authapi"
)

// AuthService is the slice of the remote authentication API the store needs.
// *authapi.Client satisfies it.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*authapi.Grant, error)
	Signup(ctx context.Context, req authapi.SignupRequest) (*authapi.Grant, error)
	Refresh(ctx context.Context, refreshToken string) (*authapi.Grant, error)
	Logout(ctx context.Context, accessToken string) error
}
