package models

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Application permissions
const (
	// Admin permissions
	PermissionReadAdmin  = "admin:read"
	PermissionWriteAdmin = "admin:write"
	PermissionSettings   = "admin:settings"

	// User permissions
	PermissionWalletRead  = "wallet:read"
	PermissionWalletWrite = "wallet:write"
	PermissionOrderRead   = "order:read"
	PermissionOrderWrite  = "order:write"
	PermissionListing     = "product:write"
)

type UserClaims struct {
	jwt.RegisteredClaims
	UserID       uint     `json:"user_id"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	Permissions  []string `json:"permissions"`
	TokenVersion int      `json:"token_version"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	return slices.Contains(c.Permissions, permission)
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	user := []string{
		PermissionWalletRead,
		PermissionWalletWrite,
		PermissionOrderRead,
		PermissionOrderWrite,
		PermissionListing,
	}
	switch role {
	case RoleAdmin:
		return append(user, PermissionReadAdmin, PermissionWriteAdmin, PermissionSettings)
	case RoleUser:
		return user
	default:
		return []string{}
	}
}
