package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiresWithin reports whether the held access token expires within d.
// The token is parsed without signature verification: the remote service owns
// the signing key, this only reads the exp claim to decide whether a refresh
// is due before the next outbound request. A missing or unparseable token is
// treated as expiring, which errs on the side of refreshing.
func (s *Store) TokenExpiresWithin(d time.Duration) bool {
	token := s.Token()
	if token == nil {
		return true
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(*token, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return true
	}
	if exp == nil {
		// No expiry claim: the service issued a non-expiring token.
		return false
	}
	return time.Until(exp.Time) <= d
}
