package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	DisplayName string
	JTI         string
}

// AccessTokenClaims identifies the actor behind a request. Production
// operations are not gated by role; the identity only feeds audit fields.
type AccessTokenClaims struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"name,omitempty"`
	jwt.RegisteredClaims
}
