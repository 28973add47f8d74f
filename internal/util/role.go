package util

import (
	"slices"

	"github.com/udid-foundation/udid-chain/internal/constant"
)

// HasRole checks if the role is one of the required roles.
func HasRole(role constant.UserRole, requiredRoles []constant.UserRole) bool {
	return slices.Contains(requiredRoles, role)
}
