// Package guard is the gate evaluated before entering any protected
// route. It decides, from the current session resolution and the route's
// annotations, whether navigation proceeds or where the user is redirected
// instead. Navigation is gated, not advisory: the embedding shell must not
// construct the route's components until Evaluate has returned.
package guard

import (
	"context"
	"net/url"

	"github.com/carthage-creances/gardien/logger"
	"github.com/carthage-creances/gardien/role"
	"github.com/carthage-creances/gardien/session"
)

// RedirectParam is the query parameter carrying the originally-attempted
// route on a login redirect.
const RedirectParam = "redirect"

// Route is the slice of a route declaration the guard reads. The routing
// table itself belongs to the UI layer.
type Route struct {
	Path string

	// Protected routes require an authenticated session.
	Protected bool

	// Roles optionally restricts the route to a role set. Empty means any
	// authenticated user.
	Roles role.Set
}

// Action is what the guard tells the shell to do.
type Action int

const (
	// Allow lets the navigation proceed.
	Allow Action = iota

	// RedirectLogin sends an unauthenticated user to the login page, with
	// the attempted route preserved.
	RedirectLogin

	// RedirectHome bounces an already-authenticated user off the login
	// page to their role's landing route.
	RedirectHome

	// Deny sends an authenticated but under-privileged user to the
	// unauthorized page. Distinct from RedirectLogin: the session is fine,
	// the role is not.
	Deny
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// Decision is the guard's verdict. Target is the redirect destination and
// is empty when Action is Allow.
type Decision struct {
	Action Action
	Target string
}

// Guard evaluates route entries against the session manager.
type Guard struct {
	sessions *session.Manager
	log      logger.Logger
}

// New creates a Guard over the session manager.
func New(sessions *session.Manager, log logger.Logger) *Guard {
	return &Guard{
		sessions: sessions,
		log:      log.WithSubsystem("guard"),
	}
}

// Evaluate runs the gate for one navigation. The session resolution,
// including any backend lookup it needs, completes before this returns.
func (g *Guard) Evaluate(ctx context.Context, route Route) Decision {
	res := g.sessions.Current(ctx)

	// An authenticated user has no business on the login form.
	if route.Path == role.LoginRoute {
		if res.Usable() {
			return Decision{Action: RedirectHome, Target: role.DestinationFor(res.Identity.Role)}
		}
		return Decision{Action: Allow}
	}

	if !route.Protected {
		return Decision{Action: Allow}
	}

	if !res.Usable() {
		g.sessions.Pending.Set(route.Path)
		g.log.Debug("unauthenticated navigation denied",
			logger.String("path", route.Path),
			logger.String("status", res.Status.String()),
		)
		return Decision{Action: RedirectLogin, Target: LoginRedirect(route.Path)}
	}

	if !route.Roles.Empty() && !route.Roles.Contains(res.Identity.Role) {
		g.log.Warn("navigation denied by role",
			logger.String("path", route.Path),
			logger.String("role", res.Identity.Role.String()),
		)
		return Decision{Action: Deny, Target: role.UnauthorizedRoute}
	}

	return Decision{Action: Allow}
}

// LoginRedirect builds the login route with the attempted destination
// preserved as a query parameter.
func LoginRedirect(attempted string) string {
	if attempted == "" {
		return role.LoginRoute
	}
	return role.LoginRoute + "?" + RedirectParam + "=" + url.QueryEscape(attempted)
}
