package entities

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"  // Full access, including admin_only items and deletes
	UserRoleEditor UserRole = "editor" // Can create and modify items
	UserRoleViewer UserRole = "viewer" // Read-only access
)

// ValidUserRole reports whether r is one of the known roles.
func ValidUserRole(r UserRole) bool {
	switch r {
	case UserRoleAdmin, UserRoleEditor, UserRoleViewer:
		return true
	}
	return false
}

type User struct {
	ID             uint     `gorm:"primaryKey" json:"id"`
	OrganizationID uint     `gorm:"index" json:"organization_id"`
	Username       string   `gorm:"uniqueIndex;size:100" json:"username"`
	// Email is optional, so it carries no unique constraint.
	Email          string   `gorm:"index;size:255" json:"email"`
	PasswordHash   string   `gorm:"size:256" json:"-"`
	Role           UserRole `gorm:"size:20;default:'viewer'" json:"role"`

	// API token (only the SHA-256 hash is stored)
	TokenHash      string     `gorm:"index;size:64" json:"-"`
	TokenCreatedAt *time.Time `json:"-"`

	Org Organization `gorm:"foreignKey:OrganizationID" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// CanWrite reports whether the role may create or modify items.
func (r UserRole) CanWrite() bool {
	return r == UserRoleAdmin || r == UserRoleEditor
}

// CanSee reports whether the role may view items at the given visibility.
func (r UserRole) CanSee(v Visibility) bool {
	switch v {
	case VisibilityPublic:
		return true
	case VisibilityRestricted:
		return r == UserRoleAdmin || r == UserRoleEditor
	case VisibilityAdminOnly:
		return r == UserRoleAdmin
	}
	return false
}
