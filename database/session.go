package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sessions outlive any one websocket connection. A client that drops presents
// its session ID on the next connect and is routed back to its room.

const (
	sessionPrefix = "session:"
	sessionTTL    = 24 * time.Hour
)

// SessionInfo is what survives a dropped connection: who the player is and
// which room they were in. RoomCode may be empty before the player joins one.
type SessionInfo struct {
	PlayerID string `json:"playerId"`
	RoomCode string `json:"roomCode,omitempty"`
}

func NewSessionID() string {
	return uuid.New().String()
}

// SaveSession writes the session under its ID, refreshing the TTL.
func SaveSession(ctx context.Context, rdb *redis.Client, sessionID string, info SessionInfo, logger *zap.Logger) error {
	payload, err := json.Marshal(info)
	if err != nil {
		logger.Error("Error encoding session info", zap.Error(err))
		return err
	}
	if err := rdb.Set(ctx, sessionPrefix+sessionID, payload, sessionTTL).Err(); err != nil {
		logger.Error("Error storing session info in Redis", zap.Error(err))
		return err
	}
	return nil
}

// LoadSession resolves a session ID presented by a reconnecting client.
func LoadSession(ctx context.Context, rdb *redis.Client, sessionID string, logger *zap.Logger) (SessionInfo, bool) {
	var info SessionInfo
	if sessionID == "" {
		return info, false
	}
	payload, err := rdb.Get(ctx, sessionPrefix+sessionID).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Error("Failed to retrieve session info", zap.Error(err))
		}
		return info, false
	}
	if err := json.Unmarshal([]byte(payload), &info); err != nil {
		logger.Error("Failed to decode session info", zap.Error(err))
		return info, false
	}
	return info, true
}

func DeleteSession(ctx context.Context, rdb *redis.Client, sessionID string) {
	rdb.Del(ctx, sessionPrefix+sessionID)
}
