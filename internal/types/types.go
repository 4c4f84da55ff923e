package types

import (
	"encoding/json"
	"errors"
)

var ErrMalformed = errors.New("malformed message")
var ErrUnknownType = errors.New("unknown message type")

type ClientType string

const (
	ClientJoin       ClientType = "join"
	ClientReady      ClientType = "player_ready"
	ClientGuess      ClientType = "guess"
	ClientBonusGuess ClientType = "bonus_guess"
	ClientAnimDone   ClientType = "anim_done"
	ClientRoundReady ClientType = "round_ready"
)

type ClientMessage struct {
	Type       ClientType `json:"type"`
	PlayerID   string     `json:"playerId,omitempty"`
	Equipments []string   `json:"equipments,omitempty"`
	Value      *int       `json:"value,omitempty"`
	SlotIndex  *int       `json:"slotIndex,omitempty"`
}

// Decode parses one inbound frame. Guesses must carry both value and slot;
// range checks against the loadout happen in the match.
func Decode(data []byte) (ClientMessage, error) {
	var cm ClientMessage
	if err := json.Unmarshal(data, &cm); err != nil {
		return ClientMessage{}, ErrMalformed
	}

	switch cm.Type {
	case ClientJoin, ClientReady, ClientAnimDone, ClientRoundReady:
		return cm, nil
	case ClientGuess, ClientBonusGuess:
		if cm.Value == nil || cm.SlotIndex == nil {
			return ClientMessage{}, ErrMalformed
		}
		return cm, nil
	case "":
		return ClientMessage{}, ErrMalformed
	default:
		return ClientMessage{}, ErrUnknownType
	}
}
