package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, s := range []string{"customer", "admin", "super_admin"} {
		r, err := ParseRole(s)
		require.NoError(t, err)
		assert.Equal(t, Role(s), r)
	}

	for _, s := range []string{"", "root", "Admin", "superadmin"} {
		_, err := ParseRole(s)
		require.Error(t, err)
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		caller   Role
		required Role
		wantErr  bool
	}{
		{name: "customer meets customer", caller: RoleCustomer, required: RoleCustomer},
		{name: "customer denied admin", caller: RoleCustomer, required: RoleAdmin, wantErr: true},
		{name: "customer denied super admin", caller: RoleCustomer, required: RoleSuperAdmin, wantErr: true},
		{name: "admin meets customer", caller: RoleAdmin, required: RoleCustomer},
		{name: "admin meets admin", caller: RoleAdmin, required: RoleAdmin},
		{name: "admin denied super admin", caller: RoleAdmin, required: RoleSuperAdmin, wantErr: true},
		{name: "super admin meets everything", caller: RoleSuperAdmin, required: RoleSuperAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(Identity{UserID: 1, Role: tt.caller}, tt.required)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrForbidden)
				return
			}
			require.NoError(t, err)
		})
	}
}
