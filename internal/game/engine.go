package game

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	holdingCap        = 10 // max tokens a player may hold
	handCap           = 3  // max reserved cards
	doubleTakeMinBank = 4  // bank floor to take two of one color
	winPoints         = 16
	tagBonusThreshold = 3
	tagBonusPoints    = 3
	topTier           = 3
)

// Apply folds one action into the state and returns the successor. It is total
// and side-effect-free: rule violations return the input unchanged, so callers
// may retry or duplicate submissions freely. now only feeds the turn deadline;
// identical (state, action, now) triples always produce identical results.
func Apply(s State, a Action, now time.Time) State {
	if s.Status != StatusPlaying {
		return s
	}
	switch act := a.(type) {
	case TakeTokens:
		next, ok := applyTakeTokens(s, act)
		if !ok {
			return s
		}
		return endOfAction(next, now)
	case ReserveCard:
		next, ok := applyReserveCard(s, act)
		if !ok {
			return s
		}
		return endOfAction(next, now)
	case RecruitCard:
		next, ok := applyRecruitCard(s, act)
		if !ok {
			return s
		}
		return endOfAction(next, now)
	case SelectLocation:
		next, ok := applySelectLocation(s, act)
		if !ok {
			return s
		}
		return advanceTurn(next, now)
	case PassTurn:
		if act.ExpectedPlayerIndex != nil && *act.ExpectedPlayerIndex != s.CurrentPlayerIndex {
			return s
		}
		next := s.Clone()
		if len(next.PendingLocationChoice) > 0 {
			next = claimLocation(next, next.PendingLocationChoice[0])
			next.PendingLocationChoice = nil
		}
		return advanceTurn(next, now)
	}
	return s
}

func applyTakeTokens(s State, act TakeTokens) (State, bool) {
	// An unresolved location choice blocks further economic actions.
	if len(s.PendingLocationChoice) > 0 {
		return State{}, false
	}

	taken := 0
	colors := 0
	double := Color("")
	for color, n := range act.Tokens {
		if n <= 0 {
			continue
		}
		if !isPrincipal(color) {
			return State{}, false
		}
		switch n {
		case 1:
		case 2:
			double = color
		default:
			return State{}, false
		}
		if s.Tokens[color] < n {
			return State{}, false
		}
		colors++
		taken += n
	}
	if colors == 0 {
		return State{}, false
	}
	if double != "" {
		// Two of one color: nothing else selected, and that pile must be deep.
		if colors != 1 || s.Tokens[double] < doubleTakeMinBank {
			return State{}, false
		}
	} else if colors > 3 {
		return State{}, false
	}

	player := s.Players[s.CurrentPlayerIndex]
	if tokenTotal(player.Tokens)+taken > holdingCap {
		return State{}, false // all-or-nothing, no discard path
	}

	next := s.Clone()
	p := &next.Players[next.CurrentPlayerIndex]
	for color, n := range act.Tokens {
		if n > 0 {
			next.Tokens[color] -= n
			p.Tokens[color] += n
		}
	}
	next.Logs = append(next.Logs, fmt.Sprintf("%s took tokens.", p.Name))
	return next, true
}

func applyReserveCard(s State, act ReserveCard) (State, bool) {
	if len(s.PendingLocationChoice) > 0 {
		return State{}, false
	}
	player := s.Players[s.CurrentPlayerIndex]
	if len(player.Hand) >= handCap {
		return State{}, false
	}
	tier, idx, ok := findInMarket(s, act.CardID)
	if !ok {
		return State{}, false
	}

	next := s.Clone()
	p := &next.Players[next.CurrentPlayerIndex]
	card := next.Market[tier][idx]

	if next.Tokens[Gray] > 0 && tokenTotal(p.Tokens) < holdingCap {
		next.Tokens[Gray]--
		p.Tokens[Gray]++
	}
	p.Hand = append(p.Hand, card)
	refillMarket(&next, tier, idx)
	next.Logs = append(next.Logs, fmt.Sprintf("%s reserved a card.", p.Name))
	return next, true
}

func applyRecruitCard(s State, act RecruitCard) (State, bool) {
	if len(s.PendingLocationChoice) > 0 {
		return State{}, false
	}
	player := s.Players[s.CurrentPlayerIndex]

	fromHand := false
	handIdx := -1
	for i, c := range player.Hand {
		if c.ID == act.CardID {
			fromHand = true
			handIdx = i
			break
		}
	}
	tier, marketIdx := 0, -1
	var card Card
	if fromHand {
		card = player.Hand[handIdx]
	} else {
		var ok bool
		tier, marketIdx, ok = findInMarket(s, act.CardID)
		if !ok {
			return State{}, false
		}
		card = s.Market[tier][marketIdx]
	}

	// Effective cost per color after tableau discounts; whatever the player's
	// colored tokens cannot cover must come out of their wild tokens.
	discounts := bonusCounts(player.Tableau)
	grayNeeded := 0
	payment := make(map[Color]int)
	for color, cost := range card.Cost {
		effective := cost - discounts[color]
		if effective <= 0 {
			continue
		}
		owned := player.Tokens[color]
		if owned >= effective {
			payment[color] = effective
		} else {
			payment[color] = owned
			grayNeeded += effective - owned
		}
	}
	if player.Tokens[Gray] < grayNeeded {
		return State{}, false
	}

	next := s.Clone()
	p := &next.Players[next.CurrentPlayerIndex]
	for color, n := range payment {
		p.Tokens[color] -= n
		next.Tokens[color] += n
	}
	p.Tokens[Gray] -= grayNeeded
	next.Tokens[Gray] += grayNeeded

	if fromHand {
		p.Hand = append(p.Hand[:handIdx], p.Hand[handIdx+1:]...)
	} else {
		refillMarket(&next, tier, marketIdx)
	}
	p.Tableau = append(p.Tableau, card)
	p.Points += card.Points

	// Top-tier recruits carry the rare token, once per player per game.
	if card.Tier == topTier && p.Tokens[Green] == 0 && next.Tokens[Green] > 0 {
		next.Tokens[Green]--
		p.Tokens[Green]++
	}

	next = awardTagBonus(next, card)
	next.Logs = append(next.Logs, fmt.Sprintf("%s recruited %s.", p.Name, card.ID))
	return next, true
}

// awardTagBonus updates the running tag score of the active player and moves
// the flat bonus when the lead changes hands. Transferring the bonus is the
// one place a player's points can go down.
func awardTagBonus(s State, card Card) State {
	p := &s.Players[s.CurrentPlayerIndex]
	p.TagScore += card.Tag
	if card.Tag == 0 {
		return s
	}
	if s.TagBonusHolder == "" {
		if p.TagScore >= tagBonusThreshold {
			s.TagBonusHolder = p.ID
			p.Points += tagBonusPoints
			s.Logs = append(s.Logs, fmt.Sprintf("%s claimed the assembly bonus.", p.Name))
		}
		return s
	}
	if s.TagBonusHolder == p.ID {
		return s
	}
	for i := range s.Players {
		if s.Players[i].ID == s.TagBonusHolder {
			if p.TagScore > s.Players[i].TagScore {
				s.Players[i].Points -= tagBonusPoints
				p.Points += tagBonusPoints
				s.TagBonusHolder = p.ID
				s.Logs = append(s.Logs, fmt.Sprintf("%s took over the assembly bonus.", p.Name))
			}
			break
		}
	}
	return s
}

func applySelectLocation(s State, act SelectLocation) (State, bool) {
	chosen := -1
	for i, loc := range s.PendingLocationChoice {
		if loc.ID == act.LocationID {
			chosen = i
			break
		}
	}
	if chosen == -1 {
		return State{}, false
	}
	next := s.Clone()
	next = claimLocation(next, next.PendingLocationChoice[chosen])
	next.PendingLocationChoice = nil
	return next, true
}

func claimLocation(s State, loc Location) State {
	for i, available := range s.Locations {
		if available.ID == loc.ID {
			s.Locations = append(s.Locations[:i], s.Locations[i+1:]...)
			break
		}
	}
	p := &s.Players[s.CurrentPlayerIndex]
	p.Locations = append(p.Locations, loc)
	p.Points += loc.Points
	s.Logs = append(s.Logs, fmt.Sprintf("%s claimed %s.", p.Name, loc.Name))
	return s
}

// endOfAction runs the shared post-action sequence: location qualification,
// then turn advancement unless the player must pick between several claims.
func endOfAction(s State, now time.Time) State {
	p := s.Players[s.CurrentPlayerIndex]
	bonuses := bonusCounts(p.Tableau)
	var qualified []Location
	for _, loc := range s.Locations {
		if meetsRequirement(bonuses, loc.Requirement) {
			qualified = append(qualified, loc)
		}
	}
	switch len(qualified) {
	case 0:
	case 1:
		s = claimLocation(s, qualified[0])
	default:
		s.PendingLocationChoice = qualified
		return s // turn does not advance until the choice resolves
	}
	return advanceTurn(s, now)
}

func hasAllBonusColors(tableau []Card) bool {
	bonuses := bonusCounts(tableau)
	for _, color := range Principals {
		if bonuses[color] == 0 {
			return false
		}
	}
	return true
}

func advanceTurn(s State, now time.Time) State {
	p := s.Players[s.CurrentPlayerIndex]
	if !s.FinalRound && p.Points >= winPoints && p.Tokens[Green] > 0 && hasAllBonusColors(p.Tableau) {
		s.FinalRound = true
		s.Logs = append(s.Logs, fmt.Sprintf("%s has triggered the end game. Finishing the round...", p.Name))
	}
	next := (s.CurrentPlayerIndex + 1) % len(s.Players)
	if next == 0 {
		if s.FinalRound {
			return finishGame(s)
		}
		s.Round++
	}
	s.CurrentPlayerIndex = next
	if s.TurnSeconds > 0 {
		s.TurnDeadline = now.Add(time.Duration(s.TurnSeconds) * time.Second).UnixMilli()
	}
	return s
}

// finishGame ranks players by points, breaking ties by fewer acquired cards.
// Players tied on both keys share the win.
func finishGame(s State) State {
	ranked := append([]Player(nil), s.Players...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Points != ranked[j].Points {
			return ranked[i].Points > ranked[j].Points
		}
		return len(ranked[i].Tableau) < len(ranked[j].Tableau)
	})
	var names []string
	for _, p := range ranked {
		if p.Points == ranked[0].Points && len(p.Tableau) == len(ranked[0].Tableau) {
			names = append(names, p.Name)
		}
	}
	s.CurrentPlayerIndex = 0
	s.Winner = strings.Join(names, ", ")
	s.Status = StatusGameOver
	s.TurnDeadline = 0
	s.Logs = append(s.Logs, fmt.Sprintf("Round complete. Game over, %s wins with %d points.", s.Winner, ranked[0].Points))
	return s
}

func findInMarket(s State, cardID string) (tier, idx int, ok bool) {
	for tier := 1; tier <= 3; tier++ {
		for i, c := range s.Market[tier] {
			if c.ID == cardID {
				return tier, i, true
			}
		}
	}
	return 0, 0, false
}

// refillMarket removes the card at the given slot and slides the top of the
// tier's deck into its place, or shrinks the row when the deck is spent.
func refillMarket(s *State, tier, idx int) {
	deck := s.Decks[tier]
	row := s.Market[tier]
	if len(deck) > 0 {
		row[idx] = deck[0]
		s.Decks[tier] = deck[1:]
	} else {
		s.Market[tier] = append(row[:idx], row[idx+1:]...)
	}
}
