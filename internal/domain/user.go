package domain

import "time"

// UserStatus represents lifecycle states for a directory entry.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the read-only directory view this subsystem needs: contact data
// for address resolution and role membership for role fan-out. Identity and
// credentials live with the external auth collaborator.
type User struct {
	ID        string
	Name      string
	Email     string
	Role      *StaffRole // nil for end-users
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
