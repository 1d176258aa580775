package session

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"gemhall/internal/game"
)

// Conn is the slice of a websocket connection the session layer needs.
// *models.Client satisfies it; tests substitute a recorder.
type Conn interface {
	WriteJSON(v interface{}) error
}

// Member is one participant of a room, keyed by persistent identity. ConnID
// only addresses the transport and never enters game rules.
type Member struct {
	ID        string `json:"id"`
	ConnID    string `json:"connId"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	conn      Conn
}

type submission struct {
	playerID string
	action   game.Action
}

// Room holds one session: its members, the authoritative GameState once
// started, and a single inbox goroutine that serializes every game action
// before it reaches the engine.
type Room struct {
	Code      string
	HostID    string
	CreatedAt time.Time

	mu      sync.Mutex
	members map[string]*Member
	order   []string // join order; becomes seating order at start
	state   *game.State

	inbox  chan submission
	done   chan struct{}
	logger *zap.Logger
	rng    *rand.Rand
	now    func() time.Time
}

func newRoom(code, hostID string, logger *zap.Logger, rng *rand.Rand, now func() time.Time) *Room {
	return &Room{
		Code:      code,
		HostID:    hostID,
		CreatedAt: now(),
		members:   make(map[string]*Member),
		inbox:     make(chan submission, 16),
		done:      make(chan struct{}),
		logger:    logger,
		rng:       rng,
		now:       now,
	}
}

// run consumes the inbox until the room is stopped. One goroutine per room is
// the single-writer guarantee: two actions can never race the same pre-state.
func (r *Room) run() {
	for {
		select {
		case sub := <-r.inbox:
			r.applyAndBroadcast(sub)
		case <-r.done:
			return
		}
	}
}

func (r *Room) stop() {
	select {
	case <-r.done:
	default:
		close(r.done)
	}
}

func (r *Room) applyAndBroadcast(sub submission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		return
	}
	next := game.Apply(*r.state, sub.action, r.now())
	r.state = &next
	r.broadcastStateLocked()
}

// Join admits a new member or reconnects a known one. A reconnect replaces the
// transport identity and flips connected flags; it never touches economic state.
func (r *Room) Join(playerID, name, connID string, conn Conn) (reconnect bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, known := r.members[playerID]; known {
		m.ConnID = connID
		m.conn = conn
		m.Connected = true
		if name != "" {
			m.Name = name
		}
		if r.state != nil {
			r.updatePlayerConnLocked(playerID, connID, true)
		}
		r.logger.Info("Member reconnected", zap.String("code", r.Code), zap.String("player", playerID))
		return true, nil
	}

	if r.state != nil && r.state.Status != game.StatusLobby {
		return false, ErrInProgress
	}
	if len(r.members) >= game.MaxPlayers {
		return false, ErrRoomFull
	}
	r.members[playerID] = &Member{ID: playerID, ConnID: connID, Name: name, Connected: true, conn: conn}
	r.order = append(r.order, playerID)
	r.logger.Info("Member joined", zap.String("code", r.Code), zap.String("player", playerID))
	return false, nil
}

// Start builds the initial game state from the member list. Host only.
func (r *Room) Start(playerID string, cfg game.Config, catalog game.Catalog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if playerID != r.HostID {
		return ErrNotHost
	}
	if r.state != nil {
		return ErrInProgress
	}

	seats := make([]game.Seat, 0, len(r.order))
	for _, id := range r.order {
		m := r.members[id]
		seats = append(seats, game.Seat{ID: m.ID, ConnID: m.ConnID, Name: m.Name})
	}
	state, err := game.NewGame(seats, catalog, cfg, r.rng, r.now())
	if err != nil {
		return err
	}
	r.state = &state
	r.logger.Info("Game started", zap.String("code", r.Code), zap.Int("players", len(seats)))
	r.broadcastStateLocked()
	return nil
}

// Submit queues an action for the room's inbox loop. The engine silently
// rejects anything illegal, so duplicate or stale submissions are safe.
func (r *Room) Submit(playerID string, action game.Action) error {
	r.mu.Lock()
	if _, known := r.members[playerID]; !known {
		r.mu.Unlock()
		return ErrNotMember
	}
	if r.state == nil {
		r.mu.Unlock()
		return ErrNoGame
	}
	r.mu.Unlock()

	select {
	case r.inbox <- submission{playerID: playerID, action: action}:
		return nil
	case <-r.done:
		return ErrRoomNotFound
	}
}

// Close broadcasts a termination notice and evicts every member. Host only;
// the registry removes the room afterwards.
func (r *Room) Close(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if playerID != r.HostID {
		return ErrNotHost
	}
	r.broadcastClosed("Host closed the room")
	if r.state != nil {
		r.state.Status = game.StatusAborted
	}
	r.members = make(map[string]*Member)
	r.order = nil
	r.logger.Info("Room closed by host", zap.String("code", r.Code))
	return nil
}

// Disconnect marks a member offline. Tokens, cards, and turn order stay put;
// only connected flags change.
func (r *Room) Disconnect(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, known := r.members[playerID]
	if !known {
		return
	}
	m.Connected = false
	m.conn = nil
	if r.state != nil {
		r.updatePlayerConnLocked(playerID, m.ConnID, false)
	}
	r.logger.Info("Member disconnected", zap.String("code", r.Code), zap.String("player", playerID))
	r.broadcastMembersLocked()
}

func (r *Room) updatePlayerConnLocked(playerID, connID string, connected bool) {
	for i := range r.state.Players {
		if r.state.Players[i].ID == playerID {
			r.state.Players[i].ConnID = connID
			r.state.Players[i].Connected = connected
			return
		}
	}
}

// Members returns a snapshot of the member list in join order.
func (r *Room) Members() []Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.membersLocked()
}

func (r *Room) membersLocked() []Member {
	out := make([]Member, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.members[id])
	}
	return out
}

// State returns a copy of the current game state, or nil before start.
func (r *Room) State() *game.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		return nil
	}
	snapshot := r.state.Clone()
	return &snapshot
}
