package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload carries the identity fields minted into a token.
type AccessTokenPayload struct {
	UserID  uuid.UUID
	Email   string
	IsStaff bool
	JTI     string
}

// AccessTokenClaims is the JWT claim set the API trusts.
type AccessTokenClaims struct {
	UserID  uuid.UUID `json:"uid"`
	Email   string    `json:"email"`
	IsStaff bool      `json:"staff"`
	jwt.RegisteredClaims
}
