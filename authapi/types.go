package authapi

// UserRecord is the auth service's representation of an account.
type UserRecord struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	FullName         string `json:"full_name"`
	Role             string `json:"role"`
	BusinessID       string `json:"business_id"`
	ProfileCompleted bool   `json:"profile_completed"`
}

// Grant is the credential pair plus identity the service returns from login,
// signup and refresh.
type Grant struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	User         UserRecord `json:"user"`
}

// SignupRequest creates a new business tenant and its owner account.
type SignupRequest struct {
	BusinessName string `json:"business_name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone"`
}

// envelope models the service's response wrapper. Newer endpoints nest the
// grant under "data"; older ones return the same fields at the top level.
type envelope struct {
	Data *Grant `json:"data"`
	Grant
}

func (e *envelope) grant() *Grant {
	if e.Data != nil {
		return e.Data
	}
	return &e.Grant
}

// APIError carries the structured error message from a non-2xx response.
// Message is empty when the body had no usable "message" field.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "auth service request failed"
}
