package session

import "github.com/carthage-creances/gardien/identity"

// Status classifies the outcome of an identity resolution. Callers branch
// on this value instead of on error types: the network-bound paths inside
// the resolver are converted to statuses at the package boundary and never
// escape as raw errors.
type Status int

const (
	// StatusAnonymous means no usable session exists: no token, a
	// malformed token, or a cleanly logged-out state.
	StatusAnonymous Status = iota

	// StatusAuthenticated means Identity is set and the token is valid.
	StatusAuthenticated

	// StatusExpired means a token was present but its expiry has passed.
	// The manager reacts by clearing storage, without any backend call.
	StatusExpired

	// StatusUnauthorized means the backend rejected the token during the
	// identity lookup. Teardown has already run by the time a caller
	// observes this status.
	StatusUnauthorized

	// StatusNetworkError means the lookup could not complete (timeout or
	// transport failure). The session is treated as absent but storage is
	// left alone, since the token may still be good.
	StatusNetworkError
)

func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	case StatusExpired:
		return "expired"
	case StatusUnauthorized:
		return "unauthorized"
	case StatusNetworkError:
		return "network-error"
	default:
		return "unknown"
	}
}

// Resolution is the result of asking "who is logged in". Identity is nil
// unless Status is StatusAuthenticated.
type Resolution struct {
	Identity *identity.Identity
	Status   Status
}

// Usable reports whether the resolution describes a live session.
func (r Resolution) Usable() bool {
	return r.Status == StatusAuthenticated && r.Identity != nil
}
