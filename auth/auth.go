package auth

import (
	"errors"

	"gemhall/models"

	jwt "github.com/dgrijalva/jwt-go"
)

// JwtKey signs and verifies identity tokens. Set once at startup from config.
var JwtKey []byte

func SetKey(secret string) {
	JwtKey = []byte(secret)
}

// ParseToken verifies a token string and returns its claims.
func ParseToken(tokenString string) (*models.MyClaims, error) {
	claims := &models.MyClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return JwtKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func IsValidToken(tokenString string) (bool, error) {
	if _, err := ParseToken(tokenString); err != nil {
		return false, err
	}
	return true, nil
}
