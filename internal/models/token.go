package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims identifies the teacher allowed to schedule tests with a bearer token.
type TokenClaims struct {
	Teacher string `json:"teacher"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed bearer token and its expiry.
type IssuedToken struct {
	Token     string `json:"token"`
	Teacher   string `json:"teacher"`
	ExpiresAt int64  `json:"expires_at"`
}
