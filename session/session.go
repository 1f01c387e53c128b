// Package session is the single source of truth for "who is logged in" and
// the credential pair used to authenticate outbound API calls. The store
// writes every mutation through to durable storage so a process restart can
// restore the session without re-authenticating.
package session

// User is the locally held identity record, mapped from the auth service's
// representation.
type User struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	Role             string `json:"role"`
	BusinessID       string `json:"business_id"`
	ProfileCompleted bool   `json:"profile_completed"`
}

// Credentials are the inputs to Login.
type Credentials struct {
	Email    string
	Password string
}

// RegisterData are the inputs to Register. Name is optional.
type RegisterData struct {
	BusinessName string
	Email        string
	Password     string
	Name         string
	Phone        string
}

// snapshot is the persisted form of the non-token session state.
type snapshot struct {
	User            *User `json:"user"`
	IsAuthenticated bool  `json:"is_authenticated"`
}
