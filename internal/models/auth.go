package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates the roles recognised by route guards.
type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleStaff UserRole = "STAFF"
)

// JWTClaims represents the JWT payload for access tokens. Token issuance
// lives in the surrounding identity service; this API only validates.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Name   string   `json:"name"`
	jwt.RegisteredClaims
}
