// Package role defines the closed set of user roles the backend may emit,
// and the pure lookup tables (landing route, display label) derived from it.
// All prefix-stripping and role matching in the application goes through
// this package; call sites never inspect raw backend strings.
package role

import "strings"

// Role is a canonical user role. The set is closed: values are only ever
// produced by Parse or Normalize, never constructed from raw strings.
type Role string

const (
	SuperAdmin     Role = "SUPER_ADMIN"
	ChefDossier    Role = "CHEF_DEPARTEMENT_DOSSIER"
	AgentDossier   Role = "AGENT_DOSSIER"
	ChefJuridique  Role = "CHEF_DEPARTEMENT_RECOUVREMENT_JURIDIQUE"
	AgentJuridique Role = "AGENT_RECOUVREMENT_JURIDIQUE"
	ChefAmiable    Role = "CHEF_DEPARTEMENT_RECOUVREMENT_AMIABLE"
	AgentAmiable   Role = "AGENT_RECOUVREMENT_AMIABLE"
	ChefFinance    Role = "CHEF_DEPARTEMENT_FINANCE"
	AgentFinance   Role = "AGENT_FINANCE"
)

// Fallback is the role assumed when the backend emits a string outside the
// known vocabulary. Mapping drift to the least-privileged agent role instead
// of failing keeps the user from being locked out; callers must log the
// original string when they take this path.
const Fallback = AgentDossier

// Backend role strings arrive with zero or one of these prefixes.
var prefixes = []string{"RoleUtilisateur_", "ROLE_"}

// All lists every canonical role.
var All = []Role{
	SuperAdmin,
	ChefDossier,
	AgentDossier,
	ChefJuridique,
	AgentJuridique,
	ChefAmiable,
	AgentAmiable,
	ChefFinance,
	AgentFinance,
}

var known = func() map[string]Role {
	m := make(map[string]Role, len(All))
	for _, r := range All {
		m[string(r)] = r
	}
	return m
}()

// Parse strips any known prefix from raw and matches the remainder
// case-sensitively against the role vocabulary. The boolean reports whether
// the string was recognized.
func Parse(raw string) (Role, bool) {
	stripped := raw
	for _, p := range prefixes {
		if strings.HasPrefix(stripped, p) {
			stripped = strings.TrimPrefix(stripped, p)
			break
		}
	}
	r, ok := known[stripped]
	return r, ok
}

// Normalize is the total form of Parse: unrecognized input yields Fallback.
// The second return reports whether the fallback was taken, so the caller
// can log the drift.
func Normalize(raw string) (Role, bool) {
	if r, ok := Parse(raw); ok {
		return r, false
	}
	return Fallback, true
}

func (r Role) String() string {
	return string(r)
}
