package models

import (
	"encoding/json"

	"gemhall/internal/game"
)

// Envelope is the inbound websocket message frame. Type selects the command;
// the remaining fields are read per command and ignored otherwise.
type Envelope struct {
	Type   string          `json:"type"`
	Name   string          `json:"name,omitempty"`
	Code   string          `json:"code,omitempty"`
	Config game.Config     `json:"config,omitempty"`
	Action json.RawMessage `json:"action,omitempty"`
}

// ActionHeader peels the kind tag off a submitted action before full decoding.
type ActionHeader struct {
	Type string `json:"type"`
}

// TokenRequest is the body of POST /token.
type TokenRequest struct {
	Name     string `json:"name"`
	PlayerID string `json:"playerId,omitempty"`
}
