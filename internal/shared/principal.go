package shared

// Role is the marketplace role of an account.
type Role string

// Marketplace roles.
const (
	RoleCustomer Role = "customer"
	RoleCreator  Role = "creator"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleCreator, RoleAdmin:
		return true
	}
	return false
}

// SelfAssignable reports whether r may be chosen at registration.
func (r Role) SelfAssignable() bool {
	return r == RoleCustomer || r == RoleCreator
}

// Principal is the authenticated caller for a single request.
type Principal struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
