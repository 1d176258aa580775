package game

import (
	"encoding/json"
	"fmt"
	"os"
)

// Catalog is the immutable card and location content a session draws from.
// The content itself is external data; the engine only consumes it.
type Catalog struct {
	Cards []Card         `json:"cards"`
	Tiles []LocationTile `json:"tiles"`
}

// LoadCatalog reads a catalog from a JSON file.
func LoadCatalog(path string) (Catalog, error) {
	var catalog Catalog
	f, err := os.Open(path)
	if err != nil {
		return catalog, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&catalog); err != nil {
		return catalog, err
	}
	if err := catalog.validate(); err != nil {
		return catalog, err
	}
	return catalog, nil
}

func (c Catalog) validate() error {
	if len(c.Cards) == 0 {
		return fmt.Errorf("catalog has no cards")
	}
	tiers := make(map[int]int)
	for _, card := range c.Cards {
		if card.Tier < 1 || card.Tier > 3 {
			return fmt.Errorf("card %s has invalid tier %d", card.ID, card.Tier)
		}
		tiers[card.Tier]++
	}
	for tier := 1; tier <= 3; tier++ {
		if tiers[tier] == 0 {
			return fmt.Errorf("catalog has no tier %d cards", tier)
		}
	}
	if len(c.Tiles) < MaxPlayers {
		return fmt.Errorf("catalog has %d location tiles, need %d", len(c.Tiles), MaxPlayers)
	}
	return nil
}
