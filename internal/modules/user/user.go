package user

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of staff roles. Authorization is a single rank
// check at the HTTP boundary, not per-handler string matching.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleManager        Role = "manager"
	RoleCashier        Role = "cashier"
	RoleInventoryStaff Role = "inventory_staff"
)

var roleRanks = map[Role]int{
	RoleAdmin:          3,
	RoleManager:        2,
	RoleInventoryStaff: 1,
	RoleCashier:        1,
}

// Rank orders roles for "role at least X" checks. Unknown roles rank below
// every valid role.
func (r Role) Rank() int { return roleRanks[r] }

// AtLeast reports whether r has at least the privileges of min.
func (r Role) AtLeast(min Role) bool { return r.Rank() > 0 && r.Rank() >= min.Rank() }

// ParseRole validates a role string against the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleRanks[r]; !ok {
		return "", fmt.Errorf("invalid role: %s (allowed: admin, manager, cashier, inventory_staff)", s)
	}
	return r, nil
}

// User represents a staff member.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
