package game

import (
	"maps"
	"slices"
)

// Color identifies one of the seven token pools.
type Color string

const (
	Red    Color = "red"
	Blue   Color = "blue"
	Yellow Color = "yellow"
	Purple Color = "purple"
	Orange Color = "orange"
	Gray   Color = "gray"  // wild token, covers any principal shortfall
	Green  Color = "green" // rare token, granted once per player on a tier-3 recruit
)

// Principals are the five colors cards and locations can cost.
var Principals = []Color{Red, Blue, Yellow, Purple, Orange}

// Status is the lifecycle stage of a game.
type Status string

const (
	StatusLobby    Status = "LOBBY"
	StatusPlaying  Status = "PLAYING"
	StatusGameOver Status = "GAME_OVER"
	StatusAborted  Status = "ABORTED"
)

// Card is an immutable market card. Cost maps principal colors to positive counts.
type Card struct {
	ID     string        `json:"id"`
	Tier   int           `json:"tier"`
	Points int           `json:"points"`
	Bonus  Color         `json:"bonus"`
	Cost   map[Color]int `json:"cost"`
	Tag    int           `json:"tag,omitempty"`
	Name   string        `json:"name,omitempty"`
}

// Location is one active side of a location tile. Its requirement is checked
// against a player's tableau bonus counts, not their tokens.
type Location struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Points      int           `json:"points"`
	Requirement map[Color]int `json:"requirement"`
}

// LocationTile is a physical dual-sided tile; exactly one side enters a session.
type LocationTile struct {
	ID    string   `json:"id"`
	SideA Location `json:"sideA"`
	SideB Location `json:"sideB"`
}

// Player is one seat at the table. ID is the persistent identity; ConnID is the
// transport connection and carries no game meaning.
type Player struct {
	ID        string        `json:"id"`
	ConnID    string        `json:"connId,omitempty"`
	Name      string        `json:"name"`
	Tokens    map[Color]int `json:"tokens"`
	Hand      []Card        `json:"hand"`
	Tableau   []Card        `json:"tableau"`
	Locations []Location    `json:"locations"`
	Points    int           `json:"points"`
	TagScore  int           `json:"tagScore"`
	Connected bool          `json:"connected"`
}

// State is the full authoritative game state. It is only ever produced by
// NewGame and Apply, and is broadcast whole to every room member.
type State struct {
	Players               []Player        `json:"players"`
	CurrentPlayerIndex    int             `json:"currentPlayerIndex"`
	Tokens                map[Color]int   `json:"tokens"`
	Decks                 map[int][]Card  `json:"decks"`
	Market                map[int][]Card  `json:"market"`
	Locations             []Location      `json:"locations"`
	PendingLocationChoice []Location      `json:"pendingLocationChoice,omitempty"`
	Round                 int             `json:"round"`
	Winner                string          `json:"winner,omitempty"`
	Logs                  []string        `json:"logs"`
	Status                Status          `json:"status"`
	FinalRound            bool            `json:"finalRound"`
	TagBonusHolder        string          `json:"tagBonusHolder,omitempty"`
	TurnDeadline          int64           `json:"turnDeadline,omitempty"` // unix millis, 0 when no clock runs
	TurnSeconds           int             `json:"turnSeconds"`
}

func isPrincipal(c Color) bool {
	for _, p := range Principals {
		if c == p {
			return true
		}
	}
	return false
}

func tokenTotal(tokens map[Color]int) int {
	total := 0
	for _, n := range tokens {
		total += n
	}
	return total
}

// bonusCounts tallies the permanent per-color discounts a tableau provides.
func bonusCounts(tableau []Card) map[Color]int {
	counts := make(map[Color]int)
	for _, c := range tableau {
		counts[c.Bonus]++
	}
	return counts
}

func meetsRequirement(bonuses map[Color]int, requirement map[Color]int) bool {
	for color, need := range requirement {
		if bonuses[color] < need {
			return false
		}
	}
	return true
}

func clonePlayer(p Player) Player {
	p.Tokens = maps.Clone(p.Tokens)
	p.Hand = slices.Clone(p.Hand)
	p.Tableau = slices.Clone(p.Tableau)
	p.Locations = slices.Clone(p.Locations)
	return p
}

// clone deep-copies everything Apply may touch, so the caller's state survives
// a partially evaluated action untouched.
func (s State) Clone() State {
	out := s
	out.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		out.Players[i] = clonePlayer(p)
	}
	out.Tokens = maps.Clone(s.Tokens)
	out.Decks = make(map[int][]Card, len(s.Decks))
	for tier, deck := range s.Decks {
		out.Decks[tier] = slices.Clone(deck)
	}
	out.Market = make(map[int][]Card, len(s.Market))
	for tier, row := range s.Market {
		out.Market[tier] = slices.Clone(row)
	}
	out.Locations = slices.Clone(s.Locations)
	out.PendingLocationChoice = slices.Clone(s.PendingLocationChoice)
	out.Logs = slices.Clone(s.Logs)
	return out
}
