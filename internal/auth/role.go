package auth

import "fmt"

type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleCustomer Role = "Customer"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleCustomer:
		return RoleCustomer, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// CanBook reports whether the role may create bookings for itself.
func (r Role) CanBook() bool {
	switch r {
	case RoleCustomer:
		return true
	case RoleAdmin:
		return false
	}
	return false
}

// ManagesFleet reports whether the role may edit cars and other users' bookings.
func (r Role) ManagesFleet() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleCustomer:
		return false
	}
	return false
}
