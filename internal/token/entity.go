package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the signed payload. ExpirationDate is checked literally by
// Validate; no registered exp claim is set.
type Claims struct {
	Email          string    `json:"email"`
	ExpirationDate time.Time `json:"expirationDate"`
	jwt.RegisteredClaims
}
