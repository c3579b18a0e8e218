package models

import "github.com/google/uuid"

// Role is the account type carried by an authenticated caller
type Role string

const (
	RoleCustomer        Role = "customer"
	RoleRestaurantOwner Role = "restaurant_owner"
	RoleAdmin           Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleRestaurantOwner, RoleAdmin:
		return true
	}
	return false
}

// Principal is the authenticated caller of an operation
type Principal struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

func (p Principal) Is(role Role) bool { return p.Role == role }

// Actor is the value written to changed_by columns
func (p Principal) Actor() string {
	return string(p.Role) + ":" + p.ID.String()
}
