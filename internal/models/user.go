package models

import "time"

type Role string

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// User is a member of the beach staff directory.
type User struct {
	ID        int64     `yaml:"id" json:"id"`
	Username  string    `yaml:"username" json:"username"`
	Role      Role      `yaml:"role" json:"role"`
	CreatedAt time.Time `yaml:"-" json:"created_at"`
}

// Actor is the authenticated caller of a core operation.
type Actor struct {
	ID       int64
	Username string
	Role     Role
}

// SystemActor performs unattended work such as the midnight reset.
var SystemActor = Actor{ID: 0, Username: "system", Role: RoleAdmin}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) IsStaffOrAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleStaff
}

// CanRent reports whether the actor may rent a bed of the given kind.
func (a Actor) CanRent(kind RentalKind) bool {
	switch kind {
	case KindHotel:
		return a.IsAdmin()
	case KindBeach:
		return a.IsStaffOrAdmin()
	default:
		return false
	}
}
