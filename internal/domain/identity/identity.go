// Package identity carries the authenticated caller through every command.
// There is no ambient current-user state: the web layer resolves the session
// and hands an Identity to the core explicitly.
package identity

import "github.com/go-faster/errors"

// ErrForbidden is returned when the caller's role does not satisfy the
// required trust tier.
var ErrForbidden = errors.New("forbidden")

// Role is a trust tier. Tiers are strictly ordered: a higher tier satisfies
// any requirement of a lower one.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

var roleLevels = map[Role]int{
	RoleCustomer:   1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// ParseRole maps a stored role name to a Role. Unknown names are rejected.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleLevels[r]; !ok {
		return "", errors.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Identity is the authenticated caller of a command.
type Identity struct {
	UserID int64
	Role   Role
}

// Authorize checks that id's role meets the required tier. It is called
// explicitly at the top of each gated command rather than through handler
// wrapping, so the access rule is visible at the call site.
func Authorize(id Identity, required Role) error {
	if roleLevels[id.Role] < roleLevels[required] {
		return ErrForbidden
	}
	return nil
}
