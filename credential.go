package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// credentialExpired reports whether a stored credential is provably past its
// expiry. The credential is an opaque bearer string as far as the session is
// concerned; this is a best-effort, signature-free peek at the JWT exp claim
// so bootstrap can skip a doomed restore. Tokens that do not parse, or parse
// without an exp claim, are never treated as expired.
func credentialExpired(credential string, now time.Time) bool {
	if credential == "" {
		return true
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(credential, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return exp.Before(now)
}
