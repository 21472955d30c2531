package domain

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole reports whether r is a known role name.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleAdmin
}
