package role

import "github.com/hashicorp/go-secure-stdlib/strutil"

// Set is a required-role annotation attached to a protected route.
// An empty set means any authenticated user may enter.
type Set []Role

// NewSet builds a Set from canonical roles.
func NewSet(roles ...Role) Set {
	return Set(roles)
}

// Contains reports whether r is a member of the set.
func (s Set) Contains(r Role) bool {
	members := make([]string, 0, len(s))
	for _, m := range s {
		members = append(members, string(m))
	}
	return strutil.StrListContains(members, string(r))
}

// Empty reports whether the set carries no role restriction.
func (s Set) Empty() bool {
	return len(s) == 0
}
