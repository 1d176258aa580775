package middlewares

import (
	"time"

	"gemhall/auth"
	"gemhall/models"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

const tokenLifetime = 72 * time.Hour

// GenerateToken issues a signed identity token. A fresh player ID is minted
// unless the caller presents the one from an earlier token, so a returning
// player keeps their identity across token renewals.
func GenerateToken(existingPlayerID, name string) (string, string, error) {
	playerID := existingPlayerID
	if playerID == "" {
		playerID = uuid.New().String()
	}

	claims := &models.MyClaims{
		PlayerID: playerID,
		Name:     name,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(tokenLifetime).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(auth.JwtKey)
	return tokenString, playerID, err
}
