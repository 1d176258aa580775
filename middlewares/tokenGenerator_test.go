package middlewares

import (
	"testing"

	"gemhall/auth"
)

func TestTokenRoundTrip(t *testing.T) {
	auth.SetKey("test-secret")

	tokenString, playerID, err := GenerateToken("", "Ana")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if playerID == "" {
		t.Fatalf("no player ID minted")
	}

	claims, err := auth.ParseToken(tokenString)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.PlayerID != playerID || claims.Name != "Ana" {
		t.Fatalf("claims = %+v, want playerID %s and name Ana", claims, playerID)
	}
}

func TestTokenKeepsExistingPlayerID(t *testing.T) {
	auth.SetKey("test-secret")

	tokenString, playerID, err := GenerateToken("player-1", "Ana")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if playerID != "player-1" {
		t.Fatalf("playerID = %s, want player-1", playerID)
	}
	claims, err := auth.ParseToken(tokenString)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.PlayerID != "player-1" {
		t.Fatalf("claims.PlayerID = %s, want player-1", claims.PlayerID)
	}
}

func TestParseRejectsForeignSignature(t *testing.T) {
	auth.SetKey("first-secret")
	tokenString, _, err := GenerateToken("", "Ana")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	auth.SetKey("second-secret")
	if ok, _ := auth.IsValidToken(tokenString); ok {
		t.Fatalf("token signed with another key accepted")
	}
}
