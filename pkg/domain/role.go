package domain

import dErrors "barangaylink/pkg/domain-errors"

// Role identifies what a caller is allowed to do. There are exactly two:
// citizens submit and manage their own applications, admins process everyone's.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
)

var validRoles = map[Role]bool{
	RoleCitizen: true,
	RoleAdmin:   true,
}

func (r Role) IsValid() bool { return validRoles[r] }

// ParseRole constructs a Role from external input (token claims, seed data).
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported role")
	}
	return r, nil
}

// Caller is the authenticated actor performing an operation. It is resolved
// once by the auth middleware and passed explicitly into every core operation;
// business logic never re-derives identity from the transport layer.
type Caller struct {
	ID   UserID
	Role Role
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }
