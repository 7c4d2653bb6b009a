package model

import (
	"sort"
	"strings"
)

// Well-known role names.
const (
	RoleAdmin    = "admin"
	RoleSupport  = "support"
	RoleCustomer = "customer"
	RoleTest     = "test"
)

// KnownRoles is every role an account may be given.
var KnownRoles = NewRoles(RoleAdmin, RoleSupport, RoleCustomer, RoleTest)

// Roles is a set of role names kept as a sorted, de-duplicated slice of
// lower-cased names. Use NewRoles to build one; the zero value is the
// empty set.
type Roles []string

// NewRoles normalizes names into a set. Blank names are dropped.
func NewRoles(names ...string) Roles {
	seen := make(map[string]struct{}, len(names))
	out := make(Roles, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ParseRoles splits a comma separated list such as "admin, support".
func ParseRoles(s string) Roles {
	return NewRoles(strings.Split(s, ",")...)
}

// Has reports whether role is a member of the set.
func (r Roles) Has(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	i := sort.SearchStrings(r, role)
	return i < len(r) && r[i] == role
}

// Intersects reports whether the two sets share at least one role.
func (r Roles) Intersects(other Roles) bool {
	for _, name := range other {
		if r.Has(name) {
			return true
		}
	}
	return false
}

// Strings returns a copy of the role names.
func (r Roles) Strings() []string {
	out := make([]string, len(r))
	copy(out, r)
	return out
}

// Without returns the members of r that are not in other.
func (r Roles) Without(other Roles) Roles {
	out := make(Roles, 0, len(r))
	for _, name := range r {
		if !other.Has(name) {
			out = append(out, name)
		}
	}
	return out
}
