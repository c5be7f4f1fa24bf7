package models

import "github.com/golang-jwt/jwt/v5"

// UserRole is the gym role carried in an access token.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleStaff      UserRole = "STAFF"
	RoleInstructor UserRole = "INSTRUCTOR"
	RoleClient     UserRole = "CLIENT"
)

// Known reports whether r is one of the gym roles.
func (r UserRole) Known() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleInstructor, RoleClient:
		return true
	}
	return false
}

// JWTClaims is the payload of an access token. Identity and role management live outside this service.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Pagination is returned alongside list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
