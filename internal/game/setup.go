package game

import (
	"fmt"
	"math/rand"
	"time"
)

const (
	MinPlayers = 2
	MaxPlayers = 4

	marketWidth  = 4
	wildSupply   = 5
	rareSupply   = 5
	initialRound = 1
)

// Seat describes one participant when a game is constructed from a room's
// member list.
type Seat struct {
	ID     string
	ConnID string
	Name   string
}

// Config carries the start-time options chosen by the host.
type Config struct {
	TurnSeconds int `json:"turnSeconds"`
}

// principalSupply scales the five principal token pools by table size.
func principalSupply(playerCount int) int {
	switch playerCount {
	case 2:
		return 4
	case 3:
		return 5
	default:
		return 7
	}
}

// NewGame builds the initial PLAYING state: sized bank, shuffled decks, dealt
// markets, and one dual-sided location tile per player resolved to a random
// side. The caller supplies the rand source, so a seeded game is reproducible.
func NewGame(seats []Seat, catalog Catalog, cfg Config, rng *rand.Rand, now time.Time) (State, error) {
	if len(seats) < MinPlayers || len(seats) > MaxPlayers {
		return State{}, fmt.Errorf("player count %d out of range", len(seats))
	}
	if len(catalog.Tiles) < len(seats) {
		return State{}, fmt.Errorf("catalog has %d location tiles, need %d", len(catalog.Tiles), len(seats))
	}

	deck := append([]Card(nil), catalog.Cards...)
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	decks := map[int][]Card{1: nil, 2: nil, 3: nil}
	for _, c := range deck {
		decks[c.Tier] = append(decks[c.Tier], c)
	}
	market := make(map[int][]Card, 3)
	for tier := 1; tier <= 3; tier++ {
		n := marketWidth
		if len(decks[tier]) < n {
			n = len(decks[tier])
		}
		market[tier] = append([]Card(nil), decks[tier][:n]...)
		decks[tier] = decks[tier][n:]
	}

	tiles := append([]LocationTile(nil), catalog.Tiles...)
	rng.Shuffle(len(tiles), func(i, j int) {
		tiles[i], tiles[j] = tiles[j], tiles[i]
	})
	locations := make([]Location, 0, len(seats))
	for _, tile := range tiles[:len(seats)] {
		if rng.Intn(2) == 0 {
			locations = append(locations, tile.SideA)
		} else {
			locations = append(locations, tile.SideB)
		}
	}

	supply := principalSupply(len(seats))
	bank := map[Color]int{Gray: wildSupply, Green: rareSupply}
	for _, color := range Principals {
		bank[color] = supply
	}

	players := make([]Player, len(seats))
	for i, seat := range seats {
		players[i] = Player{
			ID:        seat.ID,
			ConnID:    seat.ConnID,
			Name:      seat.Name,
			Tokens:    emptyTokens(),
			Connected: true,
		}
	}

	s := State{
		Players:            players,
		CurrentPlayerIndex: 0,
		Tokens:             bank,
		Decks:              decks,
		Market:             market,
		Locations:          locations,
		Round:              initialRound,
		Logs:               []string{"Game initialized."},
		Status:             StatusPlaying,
		TurnSeconds:        cfg.TurnSeconds,
	}
	if cfg.TurnSeconds > 0 {
		s.TurnDeadline = now.Add(time.Duration(cfg.TurnSeconds) * time.Second).UnixMilli()
	}
	return s, nil
}

func emptyTokens() map[Color]int {
	tokens := make(map[Color]int, 7)
	for _, color := range Principals {
		tokens[color] = 0
	}
	tokens[Gray] = 0
	tokens[Green] = 0
	return tokens
}
