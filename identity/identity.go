// Package identity holds the resolved, normalized record describing the
// current user. An Identity is only ever built by the session resolver,
// in one piece: feature code never patches fields from mixed sources.
package identity

import (
	"strings"

	"github.com/carthage-creances/gardien/role"
)

// Identity describes an authenticated user.
type Identity struct {
	// ID is the backend's opaque user identifier.
	ID string `json:"id"`

	// FirstName is the user's prénom, LastName the nom.
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	Email string `json:"email"`

	// Role is always canonical by the time an Identity is visible outside
	// the resolver.
	Role role.Role `json:"role"`

	Active bool `json:"active"`
}

// DisplayName returns "Prénom Nom", tolerating either part being empty.
func (i *Identity) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(i.FirstName) + " " + strings.TrimSpace(i.LastName))
}
