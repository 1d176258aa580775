package models

import (
	jwt "github.com/dgrijalva/jwt-go"
)

// MyClaims is the payload of an identity token. PlayerID outlives any single
// connection; it is what rooms key their members by.
type MyClaims struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	jwt.StandardClaims
}
