package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserRole represents a user's role in the system
type UserRole string

const (
	RoleAdmin       UserRole = "admin"
	RoleManager     UserRole = "manager"
	RoleSalesperson UserRole = "salesperson"
	RoleStorekeeper UserRole = "storekeeper"
	RoleCashier     UserRole = "cashier"
	RoleLogistics   UserRole = "logistics"
	RoleAuditor     UserRole = "auditor"
	RoleExpress     UserRole = "express"
)

// ValidUserRoles lists all accepted user roles
var ValidUserRoles = []UserRole{
	RoleAdmin,
	RoleManager,
	RoleSalesperson,
	RoleStorekeeper,
	RoleCashier,
	RoleLogistics,
	RoleAuditor,
	RoleExpress,
}

// IsValid returns true if the role is one of the accepted values
func (r UserRole) IsValid() bool {
	for _, v := range ValidUserRoles {
		if r == v {
			return true
		}
	}
	return false
}

// DisplayLabel returns the human-readable label for the role
func (r UserRole) DisplayLabel() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleManager:
		return "Manager"
	case RoleSalesperson:
		return "Salesperson"
	case RoleStorekeeper:
		return "Storekeeper"
	case RoleCashier:
		return "Cashier"
	case RoleLogistics:
		return "Logistics"
	case RoleAuditor:
		return "Auditor"
	case RoleExpress:
		return "Express"
	default:
		return string(r)
	}
}

// User represents a person operating the system
type User struct {
	ID           string    `json:"id" db:"id" validate:"required,uuid"`
	Username     string    `json:"username" db:"username" validate:"required,min=2,max=50"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role" validate:"required"`
	// Permissions holds extra capability grants. Only meaningful for
	// managers; admins implicitly hold every capability and the remaining
	// roles carry fixed built-in capability sets.
	Permissions []string  `json:"permissions" db:"permissions"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// NewUser creates a new user with generated ID and timestamps
func NewUser(username string, role UserRole) *User {
	now := time.Now()
	return &User{
		ID:        uuid.New().String(),
		Username:  username,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate validates the user data
func (u *User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("user ID is required")
	}

	if strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("username is required")
	}

	if len(u.Username) > 50 {
		return fmt.Errorf("username cannot exceed 50 characters")
	}

	if !u.Role.IsValid() {
		return fmt.Errorf("invalid user role: %s", u.Role)
	}

	return nil
}

// HasExplicitPermission returns true if the user has been granted the named
// capability directly. Role-derived capabilities are resolved by the auth
// package, not here.
func (u *User) HasExplicitPermission(capability string) bool {
	for _, p := range u.Permissions {
		if p == capability {
			return true
		}
	}
	return false
}

// UpdateTimestamp updates the UpdatedAt timestamp
func (u *User) UpdateTimestamp() {
	u.UpdatedAt = time.Now()
}
