// Package timeoff implements annual leave accounting and the leave request
// approval workflow on top of the generic ledger core.
package timeoff

import (
	"fmt"
	"time"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// ROLES - Closed set, evaluated once per call
// =============================================================================

type Role string

const (
	RoleEmployee          Role = "employee"
	RoleDepartmentManager Role = "department_manager"
	RoleCompanyAdmin      Role = "company_admin"
	RoleDealerAdmin       Role = "dealer_admin"
	RoleSuperAdmin        Role = "super_admin"
)

// ParseRole accepts the canonical names only.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleEmployee, RoleDepartmentManager, RoleCompanyAdmin, RoleDealerAdmin, RoleSuperAdmin:
		return r, nil
	}
	return "", &generic.ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", s)}
}

// Actor is the identity performing a mutating call.
type Actor struct {
	ID        generic.ActorID
	Role      Role
	CompanyID generic.CompanyID
	DealerID  generic.DealerID
}

// SystemActor performs scheduled and engine-internal writes.
var SystemActor = Actor{ID: generic.SystemActor, Role: RoleSuperAdmin}

// CanActAsCompanyAdmin is the admin-override capability for a company.
func CanActAsCompanyAdmin(a Actor, company *generic.Company) bool {
	if company == nil {
		return a.Role == RoleSuperAdmin
	}
	switch a.Role {
	case RoleSuperAdmin:
		return true
	case RoleDealerAdmin:
		return a.DealerID != "" && a.DealerID == company.DealerID
	case RoleCompanyAdmin:
		return a.CompanyID == company.ID
	}
	return false
}

// =============================================================================
// CLOCK
// =============================================================================

// Clock returns the current instant. Services default to time.Now.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

func (c Clock) today() generic.TimePoint { return generic.DateOf(c.now()) }
