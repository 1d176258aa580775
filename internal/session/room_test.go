package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"gemhall/internal/game"
)

// fakeConn records everything broadcast to a member.
type fakeConn struct {
	mu   sync.Mutex
	msgs []map[string]interface{}
	fail bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	if c.fail {
		return errors.New("write failed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, v.(map[string]interface{}))
	return nil
}

func (c *fakeConn) countType(t string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.msgs {
		if m["type"] == t {
			n++
		}
	}
	return n
}

func sessionCatalog() game.Catalog {
	var cards []game.Card
	for tier := 1; tier <= 3; tier++ {
		for i := 0; i < 6; i++ {
			cards = append(cards, game.Card{
				ID:    fmt.Sprintf("t%d-%d", tier, i),
				Tier:  tier,
				Bonus: game.Principals[i%len(game.Principals)],
				Cost:  map[game.Color]int{game.Blue: tier},
			})
		}
	}
	var tiles []game.LocationTile
	for i := 0; i < game.MaxPlayers; i++ {
		tiles = append(tiles, game.LocationTile{
			ID:    fmt.Sprintf("tile-%d", i),
			SideA: game.Location{ID: fmt.Sprintf("loc-%da", i), Name: "A", Points: 3, Requirement: map[game.Color]int{game.Red: 9}},
			SideB: game.Location{ID: fmt.Sprintf("loc-%db", i), Name: "B", Points: 3, Requirement: map[game.Color]int{game.Blue: 9}},
		})
	}
	return game.Catalog{Cards: cards, Tiles: tiles}
}

func newTestRegistry() *Registry {
	return NewRegistry(zap.NewNop())
}

// startedRoom returns a room with host "p1" and member "p2" mid-game.
func startedRoom(t *testing.T, reg *Registry) (*Room, *fakeConn, *fakeConn) {
	t.Helper()
	hostConn := &fakeConn{}
	room := reg.CreateRoom("p1", "Ana", "c1", hostConn)
	guestConn := &fakeConn{}
	if _, err := room.Join("p2", "Bruno", "c2", guestConn); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := room.Start("p1", game.Config{}, sessionCatalog()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return room, hostConn, guestConn
}

func TestJoinAdmitsRejectsAndReconnects(t *testing.T) {
	reg := newTestRegistry()
	room := reg.CreateRoom("p1", "Ana", "c1", &fakeConn{})

	for i := 2; i <= game.MaxPlayers; i++ {
		id := fmt.Sprintf("p%d", i)
		reconnect, err := room.Join(id, "Guest", "c"+id, &fakeConn{})
		if err != nil || reconnect {
			t.Fatalf("Join(%s) = (%v, %v), want fresh join", id, reconnect, err)
		}
	}
	if _, err := room.Join("p5", "Late", "c5", &fakeConn{}); err != ErrRoomFull {
		t.Fatalf("fifth join err = %v, want ErrRoomFull", err)
	}

	// A known identity on a new connection is a reconnect, not a seat claim.
	reconnect, err := room.Join("p2", "", "c2-new", &fakeConn{})
	if err != nil || !reconnect {
		t.Fatalf("rejoin = (%v, %v), want reconnect", reconnect, err)
	}
	members := room.Members()
	if len(members) != game.MaxPlayers {
		t.Fatalf("member count = %d, want %d", len(members), game.MaxPlayers)
	}
	for _, m := range members {
		if m.ID == "p2" {
			if m.ConnID != "c2-new" || m.Name != "Guest" {
				t.Fatalf("reconnected member = %+v, want new conn id and kept name", m)
			}
		}
	}
}

func TestJoinDuringGameOnlyReconnects(t *testing.T) {
	reg := newTestRegistry()
	room, _, _ := startedRoom(t, reg)

	if _, err := room.Join("p3", "Late", "c3", &fakeConn{}); err != ErrInProgress {
		t.Fatalf("new join mid-game err = %v, want ErrInProgress", err)
	}
	reconnect, err := room.Join("p2", "", "c2-b", &fakeConn{})
	if err != nil || !reconnect {
		t.Fatalf("member rejoin mid-game = (%v, %v), want reconnect", reconnect, err)
	}
	state := room.State()
	for _, p := range state.Players {
		if p.ID == "p2" && (p.ConnID != "c2-b" || !p.Connected) {
			t.Fatalf("in-game player not rebound: %+v", p)
		}
	}
}

func TestStartIsHostOnlyAndOnce(t *testing.T) {
	reg := newTestRegistry()
	hostConn := &fakeConn{}
	room := reg.CreateRoom("p1", "Ana", "c1", hostConn)
	guestConn := &fakeConn{}
	room.Join("p2", "Bruno", "c2", guestConn)

	if err := room.Start("p2", game.Config{}, sessionCatalog()); err != ErrNotHost {
		t.Fatalf("guest start err = %v, want ErrNotHost", err)
	}
	if err := room.Start("p1", game.Config{}, sessionCatalog()); err != nil {
		t.Fatalf("host start err = %v", err)
	}
	if err := room.Start("p1", game.Config{}, sessionCatalog()); err != ErrInProgress {
		t.Fatalf("second start err = %v, want ErrInProgress", err)
	}
	if hostConn.countType("state_sync") != 1 || guestConn.countType("state_sync") != 1 {
		t.Fatalf("start should sync state to every member once")
	}
	state := room.State()
	if state == nil || state.Status != game.StatusPlaying || len(state.Players) != 2 {
		t.Fatalf("unexpected state after start: %+v", state)
	}
	if state.Players[0].ID != "p1" || state.Players[1].ID != "p2" {
		t.Fatalf("seating should follow join order, got %s then %s", state.Players[0].ID, state.Players[1].ID)
	}
}

func TestSubmitGuards(t *testing.T) {
	reg := newTestRegistry()
	room := reg.CreateRoom("p1", "Ana", "c1", &fakeConn{})
	room.Join("p2", "Bruno", "c2", &fakeConn{})

	if err := room.Submit("ghost", game.PassTurn{}); err != ErrNotMember {
		t.Fatalf("stranger submit err = %v, want ErrNotMember", err)
	}
	if err := room.Submit("p1", game.PassTurn{}); err != ErrNoGame {
		t.Fatalf("lobby submit err = %v, want ErrNoGame", err)
	}
}

func TestSubmitAppliesAndBroadcasts(t *testing.T) {
	reg := newTestRegistry()
	room, hostConn, guestConn := startedRoom(t, reg)

	if err := room.Submit("p2", game.PassTurn{}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, func() bool { return room.State().CurrentPlayerIndex == 1 })
	if hostConn.countType("state_sync") < 2 || guestConn.countType("state_sync") < 2 {
		t.Fatalf("applied action should be broadcast to every member")
	}
}

func TestDuplicatePassTurnIsIdempotent(t *testing.T) {
	reg := newTestRegistry()
	room, _, _ := startedRoom(t, reg)

	expected := 0
	pass := game.PassTurn{ExpectedPlayerIndex: &expected}
	room.applyAndBroadcast(submission{playerID: "p1", action: pass})
	before := room.State().Clone()
	room.applyAndBroadcast(submission{playerID: "p1", action: pass})
	after := room.State()

	if after.CurrentPlayerIndex != before.CurrentPlayerIndex || after.Round != before.Round {
		t.Fatalf("duplicate pass advanced the turn: index %d round %d", after.CurrentPlayerIndex, after.Round)
	}
}

func TestCloseIsHostOnlyAndEvicts(t *testing.T) {
	reg := newTestRegistry()
	room, hostConn, guestConn := startedRoom(t, reg)

	if err := room.Close("p2"); err != ErrNotHost {
		t.Fatalf("guest close err = %v, want ErrNotHost", err)
	}
	if err := room.Close("p1"); err != nil {
		t.Fatalf("host close err = %v", err)
	}
	if hostConn.countType("room_closed") != 1 || guestConn.countType("room_closed") != 1 {
		t.Fatalf("close should notify every member")
	}
	if len(room.Members()) != 0 {
		t.Fatalf("close should evict all members")
	}
	if room.State().Status != game.StatusAborted {
		t.Fatalf("closed mid-game room status = %s, want ABORTED", room.State().Status)
	}
}

func TestDisconnectOnlyFlagsPresence(t *testing.T) {
	reg := newTestRegistry()
	room, _, guestConn := startedRoom(t, reg)
	before := room.State().Clone()

	room.Disconnect("p2")

	state := room.State()
	for i, p := range state.Players {
		if p.ID == "p2" && p.Connected {
			t.Fatalf("disconnected player still flagged connected")
		}
		if p.Points != before.Players[i].Points || len(p.Tableau) != len(before.Players[i].Tableau) {
			t.Fatalf("disconnect touched economic state of %s", p.ID)
		}
	}
	if state.CurrentPlayerIndex != before.CurrentPlayerIndex {
		t.Fatalf("disconnect moved the turn")
	}
	if guestConn.countType("player_list") == 0 {
		t.Fatalf("disconnect should broadcast the member list")
	}
}

func TestBroadcastSkipsOfflineAndFailedConns(t *testing.T) {
	reg := newTestRegistry()
	hostConn := &fakeConn{}
	room := reg.CreateRoom("p1", "Ana", "c1", hostConn)
	broken := &fakeConn{fail: true}
	room.Join("p2", "Bruno", "c2", broken)
	room.Join("p3", "Caro", "c3", &fakeConn{})
	room.Disconnect("p3")

	room.BroadcastMembers()

	if hostConn.countType("player_list") == 0 {
		t.Fatalf("healthy member missed the broadcast")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}
