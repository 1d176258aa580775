package session

import (
	"strings"
	"testing"
	"time"
)

func TestCreateRoomCodeShape(t *testing.T) {
	reg := newTestRegistry()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		room := reg.CreateRoom("host", "Ana", "c1", &fakeConn{})
		if len(room.Code) != codeLength {
			t.Fatalf("code %q length = %d, want %d", room.Code, len(room.Code), codeLength)
		}
		for _, ch := range room.Code {
			if !strings.ContainsRune(codeAlphabet, ch) {
				t.Fatalf("code %q contains %q, outside the alphabet", room.Code, ch)
			}
		}
		if seen[room.Code] {
			t.Fatalf("code %q issued twice while live", room.Code)
		}
		seen[room.Code] = true
	}
	if reg.Count() != 50 {
		t.Fatalf("Count = %d, want 50", reg.Count())
	}
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	reg := newTestRegistry()
	room := reg.CreateRoom("host", "Ana", "c1", &fakeConn{})

	if got, ok := reg.Lookup(strings.ToLower(room.Code)); !ok || got != room {
		t.Fatalf("lowercase lookup of %q failed", room.Code)
	}
	if _, ok := reg.Lookup("ZZZZZZ"); ok {
		t.Fatalf("lookup of unknown code succeeded")
	}
}

func TestRemoveStopsTheRoom(t *testing.T) {
	reg := newTestRegistry()
	room := reg.CreateRoom("host", "Ana", "c1", &fakeConn{})

	reg.Remove(room.Code)

	if _, ok := reg.Lookup(room.Code); ok {
		t.Fatalf("removed room still resolvable")
	}
	select {
	case <-room.done:
	case <-time.After(time.Second):
		t.Fatalf("removed room's loop not stopped")
	}
}

func TestSweepExpiredEvictsOldRoomsOnly(t *testing.T) {
	reg := newTestRegistry()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return base }
	staleConn := &fakeConn{}
	stale := reg.CreateRoom("h1", "Ana", "c1", staleConn)

	reg.now = func() time.Time { return base.Add(3 * time.Hour) }
	fresh := reg.CreateRoom("h2", "Bruno", "c2", &fakeConn{})

	reg.now = func() time.Time { return base.Add(5 * time.Hour) }
	if removed := reg.SweepExpired(4 * time.Hour); removed != 1 {
		t.Fatalf("SweepExpired removed %d rooms, want 1", removed)
	}
	if _, ok := reg.Lookup(stale.Code); ok {
		t.Fatalf("stale room survived the sweep")
	}
	if _, ok := reg.Lookup(fresh.Code); !ok {
		t.Fatalf("fresh room was swept")
	}
	if staleConn.countType("room_closed") != 1 {
		t.Fatalf("swept room's members were not notified")
	}
}
