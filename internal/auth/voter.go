package auth

import (
	"strconv"

	"github.com/iliyamo/auth-service/internal/model"
)

// Decision is the outcome of a vote.
type Decision int

const (
	Abstain Decision = iota
	Allow
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "abstain"
	}
}

// Policy is attached to a protected operation when routes are built.
type Policy struct {
	AllowedRoles model.Roles
}

// NewPolicy is shorthand for a Policy over the given role names.
func NewPolicy(roles ...string) Policy {
	return Policy{AllowedRoles: model.NewRoles(roles...)}
}

// Target describes the resource being accessed. OwnerID is empty when the
// resource has no owner.
type Target struct {
	OwnerID string
}

// Voter is one independent authorization rule.
type Voter interface {
	Vote(p Principal, policy Policy, target Target) Decision
}

// RoleVoter allows when the principal holds at least one allowed role.
// It never abstains: an empty policy denies everyone.
type RoleVoter struct{}

func (RoleVoter) Vote(p Principal, policy Policy, _ Target) Decision {
	return Decide(p, policy)
}

// OwnershipVoter allows a principal to reach its own resources and denies
// it everyone else's. Principals holding an exempt role, and targets with
// no owner, are left to the other voters.
type OwnershipVoter struct {
	Exempt model.Roles
}

func (v OwnershipVoter) Vote(p Principal, _ Policy, target Target) Decision {
	if target.OwnerID == "" || p.Roles.Intersects(v.Exempt) {
		return Abstain
	}
	if sameID(p.ID, target.OwnerID) {
		return Allow
	}
	return Deny
}

// sameID compares numeric ids by value, so "007" and "7" name the same user
// the way the handlers resolve them. Anything else compares as text.
func sameID(a, b string) bool {
	x, errA := strconv.ParseUint(a, 10, 64)
	y, errB := strconv.ParseUint(b, 10, 64)
	if errA == nil && errB == nil {
		return x == y
	}
	return a == b
}

// Decide is the role-membership rule on its own.
func Decide(p Principal, policy Policy) Decision {
	if p.Roles.Intersects(policy.AllowedRoles) {
		return Allow
	}
	return Deny
}

// Aggregate runs voters in order. Any Deny wins; otherwise at least one
// Allow is needed. All abstentions deny.
func Aggregate(p Principal, policy Policy, target Target, voters ...Voter) Decision {
	allowed := false
	for _, v := range voters {
		switch v.Vote(p, policy, target) {
		case Deny:
			return Deny
		case Allow:
			allowed = true
		}
	}
	if allowed {
		return Allow
	}
	return Deny
}
