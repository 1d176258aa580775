package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"gemhall/auth"
	"gemhall/database"
	"gemhall/internal/game"
	"gemhall/internal/session"
	"gemhall/models"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pingPeriod   = 10 * time.Second
	pongDeadline = 60 * time.Second
)

// Hub bundles what every websocket connection needs: the room registry, the
// session store, and the card catalog games start from.
type Hub struct {
	registry *session.Registry
	rdb      *redis.Client
	catalog  game.Catalog
	config   models.Config
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewHub(registry *session.Registry, rdb *redis.Client, catalog game.Catalog, config models.Config, logger *zap.Logger) *Hub {
	return &Hub{
		registry: registry,
		rdb:      rdb,
		catalog:  catalog,
		config:   config,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWS authenticates the request, upgrades it, restores any prior session,
// and runs the read loop until the connection drops.
func (h *Hub) HandleWS(c *gin.Context) {
	claims, err := auth.ParseToken(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Error upgrading WebSocket", zap.Error(err))
		return
	}

	client := &models.Client{
		Conn:     conn,
		PlayerID: claims.PlayerID,
		Name:     claims.Name,
		ConnID:   uuid.New().String(),
	}
	h.logger.Info("New client connected",
		zap.String("player", client.PlayerID),
		zap.String("conn", client.ConnID),
	)

	// Redis outlives the request, so session writes use the background context.
	ctx := context.Background()
	h.restoreSession(ctx, c.Request.Header.Get("SessionID"), client)
	h.issueSession(ctx, client)

	go h.keepAlive(client)
	h.readLoop(client)
}

// restoreSession routes a reconnecting client back into its room. Session IDs
// are single-use; the old one is deleted whether restore succeeds or not.
func (h *Hub) restoreSession(ctx context.Context, sessionID string, client *models.Client) {
	info, ok := database.LoadSession(ctx, h.rdb, sessionID, h.logger)
	if !ok {
		return
	}
	database.DeleteSession(ctx, h.rdb, sessionID)
	if info.PlayerID != client.PlayerID || info.RoomCode == "" {
		return
	}
	room, ok := h.registry.Lookup(info.RoomCode)
	if !ok {
		return
	}
	if _, err := room.Join(client.PlayerID, client.Name, client.ConnID, client); err != nil {
		h.logger.Info("Session restore rejected",
			zap.String("player", client.PlayerID),
			zap.String("code", info.RoomCode),
			zap.Error(err),
		)
		return
	}
	client.RoomCode = room.Code
	client.WriteJSON(map[string]interface{}{"type": "room_joined", "code": room.Code, "reconnect": true})
	room.BroadcastMembers()
	h.syncState(client, room)
}

// issueSession mints a fresh session ID, stores it, and hands it to the client
// for use on its next connect.
func (h *Hub) issueSession(ctx context.Context, client *models.Client) {
	client.SessionID = database.NewSessionID()
	if err := h.saveSession(ctx, client); err != nil {
		return
	}
	client.WriteJSON(map[string]interface{}{
		"type":      "session",
		"sessionId": client.SessionID,
		"playerId":  client.PlayerID,
	})
}

func (h *Hub) saveSession(ctx context.Context, client *models.Client) error {
	info := database.SessionInfo{PlayerID: client.PlayerID, RoomCode: client.RoomCode}
	return database.SaveSession(ctx, h.rdb, client.SessionID, info, h.logger)
}

// keepAlive pings on a ticker and treats a missing pong as a dead connection.
func (h *Hub) keepAlive(client *models.Client) {
	client.Conn.SetReadDeadline(time.Now().Add(pongDeadline))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongDeadline))
		return nil
	})

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for range ticker.C {
		if err := client.Ping(); err != nil {
			client.Conn.Close()
			return
		}
	}
}

func (h *Hub) readLoop(client *models.Client) {
	defer func() {
		client.Conn.Close()
		if room, ok := h.registry.Lookup(client.RoomCode); ok {
			room.Disconnect(client.PlayerID)
		}
		h.logger.Info("Client disconnected",
			zap.String("player", client.PlayerID),
			zap.String("conn", client.ConnID),
		)
	}()

	for {
		var env models.Envelope
		if err := client.Conn.ReadJSON(&env); err != nil {
			return
		}
		h.dispatch(client, env)
	}
}

func (h *Hub) dispatch(client *models.Client, env models.Envelope) {
	switch env.Type {
	case "create_room":
		h.handleCreate(client)
	case "join_room":
		h.handleJoin(client, env)
	case "start_game":
		h.handleStart(client, env)
	case "submit_action":
		h.handleSubmit(client, env)
	case "close_room":
		h.handleClose(client)
	default:
		h.sendError(client, "unknown_type")
	}
}

func (h *Hub) handleCreate(client *models.Client) {
	if client.RoomCode != "" {
		h.sendError(client, "already_in_room")
		return
	}
	room := h.registry.CreateRoom(client.PlayerID, client.Name, client.ConnID, client)
	client.RoomCode = room.Code
	h.saveSession(context.Background(), client)

	client.WriteJSON(map[string]interface{}{"type": "room_created", "code": room.Code})
	room.BroadcastMembers()
}

func (h *Hub) handleJoin(client *models.Client, env models.Envelope) {
	room, ok := h.registry.Lookup(env.Code)
	if !ok {
		h.sendError(client, session.ErrRoomNotFound.Error())
		return
	}
	reconnect, err := room.Join(client.PlayerID, client.Name, client.ConnID, client)
	if err != nil {
		h.sendError(client, err.Error())
		return
	}
	client.RoomCode = room.Code
	h.saveSession(context.Background(), client)

	client.WriteJSON(map[string]interface{}{"type": "room_joined", "code": room.Code, "reconnect": reconnect})
	room.BroadcastMembers()
	h.syncState(client, room)
}

func (h *Hub) handleStart(client *models.Client, env models.Envelope) {
	room, ok := h.registry.Lookup(client.RoomCode)
	if !ok {
		h.sendError(client, session.ErrRoomNotFound.Error())
		return
	}
	cfg := env.Config
	if cfg.TurnSeconds == 0 {
		cfg.TurnSeconds = h.config.TurnSeconds
	}
	if err := room.Start(client.PlayerID, cfg, h.catalog); err != nil {
		h.sendError(client, err.Error())
	}
}

func (h *Hub) handleSubmit(client *models.Client, env models.Envelope) {
	room, ok := h.registry.Lookup(client.RoomCode)
	if !ok {
		h.sendError(client, session.ErrRoomNotFound.Error())
		return
	}
	var header models.ActionHeader
	if err := json.Unmarshal(env.Action, &header); err != nil {
		h.sendError(client, "invalid_action")
		return
	}
	action, err := game.DecodeAction(header.Type, env.Action)
	if err != nil {
		h.sendError(client, "invalid_action")
		return
	}
	if err := room.Submit(client.PlayerID, action); err != nil {
		h.sendError(client, err.Error())
	}
}

func (h *Hub) handleClose(client *models.Client) {
	room, ok := h.registry.Lookup(client.RoomCode)
	if !ok {
		h.sendError(client, session.ErrRoomNotFound.Error())
		return
	}
	if err := room.Close(client.PlayerID); err != nil {
		h.sendError(client, err.Error())
		return
	}
	h.registry.Remove(room.Code)
	client.RoomCode = ""
	h.saveSession(context.Background(), client)
}

// syncState pushes the current snapshot to one client, typically right after a
// join or reconnect mid-game.
func (h *Hub) syncState(client *models.Client, room *session.Room) {
	if state := room.State(); state != nil {
		client.WriteJSON(map[string]interface{}{"type": "state_sync", "code": room.Code, "state": state})
	}
}

func (h *Hub) sendError(client *models.Client, message string) {
	if err := client.WriteJSON(map[string]interface{}{"type": "error", "message": message}); err != nil {
		h.logger.Error("Failed to send error reply",
			zap.String("player", client.PlayerID),
			zap.Error(err),
		)
	}
}
