// Package session tracks who holds the two seats of a room: stable
// identities, the connection currently bound to each seat and the loadout
// each player brought. It does no I/O; the match actor owns a Roster and
// turns its answers into outbound messages and timers.
package session

import (
	"errors"

	"github.com/DoyleJ11/dice-duel-backend/internal/engine"
	"github.com/google/uuid"
)

const Seats = 2

var ErrRoomFull = errors.New("room full")
var ErrUnknownPlayer = errors.New("unknown player")

type JoinKind int

const (
	JoinRejected JoinKind = iota
	JoinNew
	JoinReconnect
)

func (k JoinKind) String() string {
	switch k {
	case JoinNew:
		return "new"
	case JoinReconnect:
		return "reconnect"
	default:
		return "rejected"
	}
}

type Player struct {
	ID      string
	Slot    int
	Loadout []string
	ConnID  string // empty while disconnected
}

func (p *Player) Connected() bool { return p.ConnID != "" }

type Roster struct {
	seats [Seats]*Player
}

// Classify decides how a join request is handled. A non-empty identity that
// matches no seat is rejected even if a seat is free, so identities from a
// forgotten match cannot sneak back in.
func (r *Roster) Classify(identity string) JoinKind {
	if identity != "" {
		if r.ByID(identity) != nil {
			return JoinReconnect
		}
		return JoinRejected
	}
	if r.Count() < Seats {
		return JoinNew
	}
	return JoinRejected
}

// Admit seats a new player in the lowest free seat with a fresh identity.
func (r *Roster) Admit(connID string, loadout []string) (*Player, error) {
	for i, p := range r.seats {
		if p != nil {
			continue
		}
		np := &Player{
			ID:      uuid.NewString(),
			Slot:    i,
			Loadout: engine.NormalizeLoadout(loadout),
			ConnID:  connID,
		}
		r.seats[i] = np
		return np, nil
	}
	return nil, ErrRoomFull
}

// Rebind attaches connID to an existing identity and returns the connection
// it replaced (empty if the seat was disconnected). A non-empty loadout
// replaces the stored one; running rounds keep their own snapshot.
func (r *Roster) Rebind(identity, connID string, loadout []string) (*Player, string, error) {
	p := r.ByID(identity)
	if p == nil {
		return nil, "", ErrUnknownPlayer
	}
	prev := p.ConnID
	p.ConnID = connID
	if len(loadout) > 0 {
		p.Loadout = engine.NormalizeLoadout(loadout)
	}
	return p, prev, nil
}

// Disconnect unbinds connID from its seat. The seat stays reserved until Vacate.
func (r *Roster) Disconnect(connID string) *Player {
	p := r.ByConn(connID)
	if p == nil {
		return nil
	}
	p.ConnID = ""
	return p
}

func (r *Roster) Vacate(identity string) *Player {
	for i, p := range r.seats {
		if p != nil && p.ID == identity {
			r.seats[i] = nil
			return p
		}
	}
	return nil
}

func (r *Roster) ByID(identity string) *Player {
	if identity == "" {
		return nil
	}
	for _, p := range r.seats {
		if p != nil && p.ID == identity {
			return p
		}
	}
	return nil
}

func (r *Roster) ByConn(connID string) *Player {
	if connID == "" {
		return nil
	}
	for _, p := range r.seats {
		if p != nil && p.ConnID == connID {
			return p
		}
	}
	return nil
}

func (r *Roster) Seat(slot int) *Player {
	if slot < 0 || slot >= Seats {
		return nil
	}
	return r.seats[slot]
}

func (r *Roster) Opponent(slot int) *Player {
	return r.Seat(1 - slot)
}

func (r *Roster) Count() int {
	n := 0
	for _, p := range r.seats {
		if p != nil {
			n++
		}
	}
	return n
}

func (r *Roster) Full() bool { return r.Count() == Seats }

func (r *Roster) Connected() [Seats]bool {
	var out [Seats]bool
	for i, p := range r.seats {
		out[i] = p != nil && p.Connected()
	}
	return out
}
