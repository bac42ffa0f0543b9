// Package authz answers role and organizational-unit membership questions
// about a verified token's claims. Everything here is a pure function over
// the claim set: no I/O, no error returns. An anonymous principal (or one
// built from a non-access token) yields false/empty answers, never a panic.
package authz

import (
	"github.com/taskgrove/taskadmin/pkg/jwtx"
)

// AuthorityFullAdmin is the authority granted to full administrators in the
// generic authority list. Organizational-unit scoping is never encoded into
// authority strings; it is re-derived per request from the claims.
const AuthorityFullAdmin = "FULL_ADMIN"

// Principal wraps a verified claim set. The zero value is anonymous.
type Principal struct {
	claims *jwtx.Claims
}

// FromClaims builds a Principal from verified access-token claims.
func FromClaims(c jwtx.Claims) Principal {
	if c.TokenType == jwtx.TokenTypeRefresh {
		// Refresh tokens prove nothing about roles.
		return Principal{}
	}
	return Principal{claims: &c}
}

// Anonymous returns the principal for unauthenticated callers.
func Anonymous() Principal {
	return Principal{}
}

// Name returns the principal's username, or "" when anonymous.
func (p Principal) Name() string {
	if p.claims == nil {
		return ""
	}
	return p.claims.Subject
}

// IsFullAdmin reports whether the caller holds the global full-admin flag.
func (p Principal) IsFullAdmin() bool {
	return p.claims != nil && p.claims.FullAdmin
}

// IsAdmin reports whether the caller administers the given organizational
// unit. Full admins pass every unit-scoped check.
func (p Principal) IsAdmin(orgUnit int64) bool {
	return p.hasRole(orgUnit, jwtx.RoleAdmin)
}

// IsInstructor reports whether the caller is an instructor in the unit.
func (p Principal) IsInstructor(orgUnit int64) bool {
	return p.hasRole(orgUnit, jwtx.RoleInstructor)
}

// IsTutor reports whether the caller is a tutor in the unit.
func (p Principal) IsTutor(orgUnit int64) bool {
	return p.hasRole(orgUnit, jwtx.RoleTutor)
}

// IsUser reports whether the caller holds any role in the unit.
func (p Principal) IsUser(orgUnit int64) bool {
	if p.IsFullAdmin() {
		return true
	}
	if p.claims == nil {
		return false
	}
	for _, ra := range p.claims.Roles {
		if ra.OrganizationalUnit == orgUnit {
			return true
		}
	}
	return false
}

// OrgUnitsAsAdmin returns the units the caller administers. The CRUD layer
// uses these sets to build row-level filters; callers must check
// IsFullAdmin first, full admins bypass such filters entirely.
func (p Principal) OrgUnitsAsAdmin() []int64 {
	return p.orgUnitsWith(jwtx.RoleAdmin)
}

// OrgUnitsAsAdminOrInstructor returns the units where the caller is an
// admin or an instructor.
func (p Principal) OrgUnitsAsAdminOrInstructor() []int64 {
	return p.orgUnitsWith(jwtx.RoleAdmin, jwtx.RoleInstructor)
}

// OrgUnits returns every unit the caller holds any role in.
func (p Principal) OrgUnits() []int64 {
	return p.orgUnitsWith(jwtx.RoleAdmin, jwtx.RoleInstructor, jwtx.RoleTutor)
}

// Authorities maps the claim set into the generic authority list consumed
// by the framework-level access gate: full_admin (if set) plus one entry
// per distinct role value. This is the only integration seam with the gate.
func (p Principal) Authorities() []string {
	if p.claims == nil {
		return nil
	}

	var out []string
	if p.claims.FullAdmin {
		out = append(out, AuthorityFullAdmin)
	}

	seen := map[string]struct{}{}
	for _, ra := range p.claims.Roles {
		if _, ok := seen[ra.Role]; ok {
			continue
		}
		seen[ra.Role] = struct{}{}
		out = append(out, ra.Role)
	}
	return out
}

func (p Principal) hasRole(orgUnit int64, role string) bool {
	if p.IsFullAdmin() {
		return true
	}
	if p.claims == nil {
		return false
	}
	for _, ra := range p.claims.Roles {
		if ra.OrganizationalUnit == orgUnit && ra.Role == role {
			return true
		}
	}
	return false
}

func (p Principal) orgUnitsWith(roles ...string) []int64 {
	if p.claims == nil {
		return nil
	}

	want := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		want[r] = struct{}{}
	}

	seen := map[int64]struct{}{}
	var out []int64
	for _, ra := range p.claims.Roles {
		if _, ok := want[ra.Role]; !ok {
			continue
		}
		if _, dup := seen[ra.OrganizationalUnit]; dup {
			continue
		}
		seen[ra.OrganizationalUnit] = struct{}{}
		out = append(out, ra.OrganizationalUnit)
	}
	return out
}
