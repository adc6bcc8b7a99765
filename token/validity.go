package token

import "time"

// Valid reports whether the claims describe a token that is still usable
// at the given instant. A nil claim set is invalid, and a missing expiry
// claim fails closed: treating it as expired is safer than treating it as
// eternal. Pure function, no I/O.
func Valid(claims *Claims, now time.Time) bool {
	if claims == nil {
		return false
	}
	if claims.ExpiresAt.IsZero() {
		return false
	}
	return now.Before(claims.ExpiresAt)
}

// TTL returns the remaining lifetime of the claims at the given instant,
// zero when the token is already invalid.
func TTL(claims *Claims, now time.Time) time.Duration {
	if !Valid(claims, now) {
		return 0
	}
	return claims.ExpiresAt.Sub(now)
}
