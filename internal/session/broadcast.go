package session

import (
	"go.uber.org/zap"
)

// Snapshots always replace the receiver's local copy whole; nothing is ever
// merged, so members never reconcile divergent state.

func (r *Room) broadcastStateLocked() {
	if r.state == nil {
		return
	}
	msg := map[string]interface{}{
		"type":  "state_sync",
		"code":  r.Code,
		"state": r.state,
	}
	r.sendToAllLocked(msg)
}

func (r *Room) broadcastMembersLocked() {
	msg := map[string]interface{}{
		"type":    "player_list",
		"code":    r.Code,
		"players": r.membersLocked(),
	}
	r.sendToAllLocked(msg)
}

// BroadcastMembers pushes the current member list to everyone in the room.
func (r *Room) BroadcastMembers() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastMembersLocked()
}

func (r *Room) broadcastClosed(reason string) {
	msg := map[string]interface{}{
		"type":    "room_closed",
		"code":    r.Code,
		"message": reason,
	}
	r.sendToAllLocked(msg)
}

func (r *Room) sendToAllLocked(msg map[string]interface{}) {
	for _, m := range r.members {
		if m.conn == nil {
			continue
		}
		if err := m.conn.WriteJSON(msg); err != nil {
			r.logger.Error("Failed to send to member",
				zap.String("code", r.Code),
				zap.String("player", m.ID),
				zap.Error(err),
			)
		}
	}
}
