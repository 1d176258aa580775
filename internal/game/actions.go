package game

import (
	"encoding/json"
	"fmt"
)

// Action is the closed set of player intents the engine understands. Keeping it
// a tagged union makes Apply an exhaustive switch instead of a stringly-typed
// dispatch.
type Action interface {
	isAction()
}

// TakeTokens takes either two of one principal color or one each of up to
// three distinct principal colors.
type TakeTokens struct {
	Tokens map[Color]int `json:"tokens"`
}

// ReserveCard moves a visible market card into the player's hand.
type ReserveCard struct {
	CardID string `json:"cardId"`
}

// RecruitCard buys a card from the player's hand or an open market slot.
type RecruitCard struct {
	CardID string `json:"cardId"`
}

// SelectLocation resolves a pending multi-location claim.
type SelectLocation struct {
	LocationID string `json:"locationId"`
}

// PassTurn advances the turn. ExpectedPlayerIndex, when set, must match the
// current active index; duplicated timeout signals from several observers then
// collapse to a single effective pass.
type PassTurn struct {
	ExpectedPlayerIndex *int `json:"expectedPlayerIndex,omitempty"`
}

func (TakeTokens) isAction()     {}
func (ReserveCard) isAction()    {}
func (RecruitCard) isAction()    {}
func (SelectLocation) isAction() {}
func (PassTurn) isAction()       {}

// Action kind tags as they appear on the wire.
const (
	KindTakeTokens     = "take_tokens"
	KindReserveCard    = "reserve_card"
	KindRecruitCard    = "recruit_card"
	KindSelectLocation = "select_location"
	KindPassTurn       = "pass_turn"
)

// DecodeAction turns a wire envelope into a typed action. Unknown kinds are an
// error at the transport boundary; the engine itself never sees them.
func DecodeAction(kind string, payload json.RawMessage) (Action, error) {
	switch kind {
	case KindTakeTokens:
		var a TakeTokens
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, err
		}
		return a, nil
	case KindReserveCard:
		var a ReserveCard
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, err
		}
		return a, nil
	case KindRecruitCard:
		var a RecruitCard
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, err
		}
		return a, nil
	case KindSelectLocation:
		var a SelectLocation
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, err
		}
		return a, nil
	case KindPassTurn:
		var a PassTurn
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &a); err != nil {
				return nil, err
			}
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown action kind %q", kind)
	}
}
