package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeRole(t *testing.T) {
	require.Equal(t, RoleSuperadmin, NormalizeRole("SUPERADMIN"))
	require.Equal(t, RoleSuperadmin, NormalizeRole("superadmin"))
	require.Equal(t, RoleSuperadmin, NormalizeRole(" Super Admin "))
	require.Equal(t, RoleAdmin, NormalizeRole("ADMIN"))
	require.Equal(t, RoleAdmin, NormalizeRole(""))
	require.Equal(t, RoleAdmin, NormalizeRole("viewer"))
}
