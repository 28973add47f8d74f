package constant

type UserRole string

const (
	UserRolePwd    UserRole = "PWD_USER"
	UserRoleDoctor UserRole = "DOCTOR"
	UserRoleAdmin  UserRole = "ADMIN"
)

func IsValidUserRole(r UserRole) bool {
	switch r {
	case UserRolePwd, UserRoleDoctor, UserRoleAdmin:
		return true
	}
	return false
}
