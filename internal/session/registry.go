package session

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Protocol violations returned to the offending caller only, never broadcast.
var (
	ErrRoomNotFound = errors.New("not_found")
	ErrRoomFull     = errors.New("full")
	ErrInProgress   = errors.New("in_progress")
	ErrNotHost      = errors.New("not_host")
	ErrNotMember    = errors.New("not_member")
	ErrNoGame       = errors.New("no_active_game")
)

// Code alphabet drops characters that read ambiguously (O/0, I/1/L).
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// Registry owns the table of active rooms. All access goes through its
// methods; nothing else holds the map.
type Registry struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	logger *zap.Logger
	rng    *rand.Rand
	now    func() time.Time
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]*Room),
		logger: logger,
		rng:    newLocalRand(),
		now:    time.Now,
	}
}

func newLocalRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// CreateRoom allocates an unused code and registers the creator as host and
// sole member.
func (reg *Registry) CreateRoom(hostID, hostName, connID string, conn Conn) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code := reg.newCode()
	room := newRoom(code, hostID, reg.logger, newLocalRand(), reg.now)
	room.members[hostID] = &Member{ID: hostID, ConnID: connID, Name: hostName, Connected: true, conn: conn}
	room.order = append(room.order, hostID)
	reg.rooms[code] = room
	go room.run()

	reg.logger.Info("Room created", zap.String("code", code), zap.String("host", hostID))
	return room
}

func (reg *Registry) newCode() string {
	for {
		b := make([]byte, codeLength)
		for i := range b {
			b[i] = codeAlphabet[reg.rng.Intn(len(codeAlphabet))]
		}
		code := string(b)
		if _, taken := reg.rooms[code]; !taken {
			return code
		}
	}
}

// Lookup is case-insensitive so codes survive being read out loud and typed
// back in lowercase.
func (reg *Registry) Lookup(code string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[strings.ToUpper(code)]
	return room, ok
}

// Remove drops a room from the table and stops its inbox loop.
func (reg *Registry) Remove(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if room, ok := reg.rooms[code]; ok {
		room.stop()
		delete(reg.rooms, code)
		reg.logger.Info("Room removed", zap.String("code", code))
	}
}

// Count reports how many rooms are live.
func (reg *Registry) Count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// SweepExpired evicts every room older than maxAge, regardless of activity.
// Abandoned sessions are bounded without per-room heartbeat tracking.
func (reg *Registry) SweepExpired(maxAge time.Duration) int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	removed := 0
	cutoff := reg.now().Add(-maxAge)
	for code, room := range reg.rooms {
		if room.CreatedAt.Before(cutoff) {
			room.mu.Lock()
			room.broadcastClosed("Room expired")
			room.mu.Unlock()
			room.stop()
			delete(reg.rooms, code)
			removed++
			reg.logger.Info("Stale room swept", zap.String("code", code))
		}
	}
	return removed
}
