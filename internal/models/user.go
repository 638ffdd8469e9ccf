package models

import (
	"strings"
	"time"
)

// UserRole represents the available admin roles for the RBAC system.
type UserRole string

const (
	RoleSuperadmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
)

// NormalizeRole maps raw role strings onto canonical roles. Legacy accounts
// carry "Super Admin" (any casing, with or without the space) which must
// resolve to the superadmin role.
func NormalizeRole(raw string) UserRole {
	cleaned := strings.ToUpper(strings.TrimSpace(raw))
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	switch cleaned {
	case "SUPERADMIN":
		return RoleSuperadmin
	default:
		return RoleAdmin
	}
}

// User represents an admin account stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
